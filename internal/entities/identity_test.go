package entities

import (
	"sort"
	"testing"
)

func TestAnonymous(t *testing.T) {
	id := Anonymous()

	if id.IsAuthenticated() {
		t.Error("Anonymous() should not be authenticated")
	}
	if id.IsAdmin() {
		t.Error("Anonymous() should not be admin")
	}
	if id.UserID() != 0 {
		t.Errorf("Anonymous() UserID = %d, want 0", id.UserID())
	}
	if id.MemberOf(1) {
		t.Error("Anonymous() should not be member of any group")
	}
}

func TestIdentity_ZeroValueIsAnonymous(t *testing.T) {
	var id Identity

	if id.IsAuthenticated() {
		t.Error("zero value Identity should not be authenticated")
	}
	if id.IsAdmin() {
		t.Error("zero value Identity should not be admin")
	}
}

func TestAuthenticated(t *testing.T) {
	tests := []struct {
		name      string
		userID    int64
		admin     bool
		groupIDs  []int64
		wantAdmin bool
	}{
		{
			name:      "standard user without groups",
			userID:    100,
			admin:     false,
			groupIDs:  nil,
			wantAdmin: false,
		},
		{
			name:      "admin user",
			userID:    1,
			admin:     true,
			groupIDs:  []int64{5},
			wantAdmin: true,
		},
		{
			name:      "user with groups",
			userID:    200,
			admin:     false,
			groupIDs:  []int64{1, 2, 3},
			wantAdmin: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := Authenticated(tt.userID, tt.admin, tt.groupIDs)

			if !id.IsAuthenticated() {
				t.Error("Authenticated() should be authenticated")
			}
			if id.UserID() != tt.userID {
				t.Errorf("UserID = %d, want %d", id.UserID(), tt.userID)
			}
			if id.IsAdmin() != tt.wantAdmin {
				t.Errorf("IsAdmin = %v, want %v", id.IsAdmin(), tt.wantAdmin)
			}
			for _, g := range tt.groupIDs {
				if !id.MemberOf(g) {
					t.Errorf("MemberOf(%d) = false, want true", g)
				}
			}
			if id.MemberOf(999) {
				t.Error("MemberOf(999) = true, want false")
			}
		})
	}
}

func TestAuthenticated_DeduplicatesGroups(t *testing.T) {
	id := Authenticated(100, false, []int64{5, 5, 7, 5, 7})

	got := id.GroupIDs()
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })

	want := []int64{5, 7}
	if len(got) != len(want) {
		t.Fatalf("GroupIDs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GroupIDs = %v, want %v", got, want)
			break
		}
	}
}
