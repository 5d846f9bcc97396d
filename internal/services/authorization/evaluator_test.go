package authorization

import (
	"testing"

	"github.com/chishiki/chishiki/internal/entities"
)

func TestCanView(t *testing.T) {
	tests := []struct {
		name     string
		identity entities.Identity
		item     *entities.ContentItem
		want     entities.Decision
	}{
		{
			name:     "public item viewable by anonymous",
			identity: entities.Anonymous(),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.VisibilityPublic},
			want:     entities.Allow,
		},
		{
			name:     "public item viewable by unrelated user",
			identity: entities.Authenticated(999, false, nil),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.VisibilityPublic},
			want:     entities.Allow,
		},
		{
			name:     "private item viewable by owner",
			identity: entities.Authenticated(100, false, nil),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.VisibilityPrivate, EditorIDs: []int64{200}},
			want:     entities.Allow,
		},
		{
			name:     "private item viewable by admin",
			identity: entities.Authenticated(1, true, nil),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.VisibilityPrivate},
			want:     entities.Allow,
		},
		{
			name:     "private item not viewable by anonymous",
			identity: entities.Anonymous(),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.VisibilityPrivate},
			want:     entities.Deny,
		},
		{
			// The editor list grants editing, not viewing, on Private items.
			name:     "private item not viewable by delegated editor",
			identity: entities.Authenticated(200, false, nil),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.VisibilityPrivate, EditorIDs: []int64{200}},
			want:     entities.Deny,
		},
		{
			name:     "private item not viewable by group member",
			identity: entities.Authenticated(300, false, []int64{5}),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.VisibilityPrivate, ACLGroupIDs: []int64{5}},
			want:     entities.Deny,
		},
		{
			name:     "protected item viewable by owner",
			identity: entities.Authenticated(100, false, nil),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.VisibilityProtected},
			want:     entities.Allow,
		},
		{
			name:     "protected item viewable by delegated editor",
			identity: entities.Authenticated(200, false, nil),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.VisibilityProtected, EditorIDs: []int64{200}},
			want:     entities.Allow,
		},
		{
			name:     "protected item viewable by group member",
			identity: entities.Authenticated(300, false, []int64{5}),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.VisibilityProtected, ACLGroupIDs: []int64{5}},
			want:     entities.Allow,
		},
		{
			name:     "protected item not viewable without any grant",
			identity: entities.Authenticated(300, false, []int64{9}),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.VisibilityProtected, ACLGroupIDs: []int64{5}},
			want:     entities.Deny,
		},
		{
			name:     "protected item not viewable by anonymous",
			identity: entities.Anonymous(),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.VisibilityProtected, ACLGroupIDs: []int64{5}},
			want:     entities.Deny,
		},
		{
			name:     "unknown visibility denies even the owner",
			identity: entities.Authenticated(100, true, nil),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.Visibility(42)},
			want:     entities.Deny,
		},
		{
			name:     "deleted item denies the owner",
			identity: entities.Authenticated(100, false, nil),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.VisibilityPublic, Deleted: true},
			want:     entities.Deny,
		},
		{
			name:     "deleted item denies admins",
			identity: entities.Authenticated(1, true, nil),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.VisibilityPublic, Deleted: true},
			want:     entities.Deny,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanView(tt.identity, tt.item); got != tt.want {
				t.Errorf("CanView() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanEdit(t *testing.T) {
	tests := []struct {
		name     string
		identity entities.Identity
		item     *entities.ContentItem
		want     entities.Decision
	}{
		{
			name:     "owner can edit",
			identity: entities.Authenticated(100, false, nil),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.VisibilityPrivate},
			want:     entities.Allow,
		},
		{
			name:     "admin can edit",
			identity: entities.Authenticated(1, true, nil),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.VisibilityPrivate},
			want:     entities.Allow,
		},
		{
			name:     "delegated editor can edit a private item",
			identity: entities.Authenticated(200, false, nil),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.VisibilityPrivate, EditorIDs: []int64{200}},
			want:     entities.Allow,
		},
		{
			name:     "anonymous cannot edit a public item",
			identity: entities.Anonymous(),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.VisibilityPublic},
			want:     entities.Deny,
		},
		{
			name:     "group membership grants viewing only, not editing",
			identity: entities.Authenticated(300, false, []int64{5}),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.VisibilityProtected, ACLGroupIDs: []int64{5}},
			want:     entities.Deny,
		},
		{
			name:     "deleted item denies the owner",
			identity: entities.Authenticated(100, false, nil),
			item:     &entities.ContentItem{ID: 1, OwnerID: 100, Deleted: true},
			want:     entities.Deny,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanEdit(tt.identity, tt.item); got != tt.want {
				t.Errorf("CanEdit() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Editing rights must not depend on the visibility tier.
func TestCanEdit_VisibilityIndependent(t *testing.T) {
	visibilities := []entities.Visibility{
		entities.VisibilityPrivate,
		entities.VisibilityPublic,
		entities.VisibilityProtected,
		entities.Visibility(42),
	}
	identities := map[string]entities.Identity{
		"owner":    entities.Authenticated(100, false, nil),
		"admin":    entities.Authenticated(1, true, nil),
		"editor":   entities.Authenticated(200, false, nil),
		"stranger": entities.Authenticated(300, false, []int64{5}),
		"anon":     entities.Anonymous(),
	}

	for name, id := range identities {
		var first entities.Decision
		for i, vis := range visibilities {
			item := &entities.ContentItem{
				ID:          1,
				OwnerID:     100,
				Visibility:  vis,
				EditorIDs:   []int64{200},
				ACLGroupIDs: []int64{5},
			}
			got := CanEdit(id, item)
			if i == 0 {
				first = got
				continue
			}
			if got != first {
				t.Errorf("CanEdit(%s) changed from %v to %v when visibility became %d", name, first, got, vis)
			}
		}
	}
}

// CanDelete and CanEdit must agree on every input until the rules diverge.
func TestCanDelete_MatchesCanEdit(t *testing.T) {
	item := &entities.ContentItem{
		ID:          1,
		OwnerID:     100,
		Visibility:  entities.VisibilityProtected,
		EditorIDs:   []int64{200},
		ACLGroupIDs: []int64{5},
	}
	deletedItem := &entities.ContentItem{ID: 2, OwnerID: 100, Deleted: true}

	identities := []entities.Identity{
		entities.Anonymous(),
		entities.Authenticated(100, false, nil),
		entities.Authenticated(200, false, nil),
		entities.Authenticated(300, false, []int64{5}),
		entities.Authenticated(1, true, nil),
	}

	for _, id := range identities {
		for _, it := range []*entities.ContentItem{item, deletedItem} {
			if CanDelete(id, it) != CanEdit(id, it) {
				t.Errorf("CanDelete and CanEdit disagree for user %d on item %d", id.UserID(), it.ID)
			}
		}
	}
}

func TestGroupOverlap(t *testing.T) {
	item := &entities.ContentItem{ID: 1, ACLGroupIDs: []int64{5, 6}}

	tests := []struct {
		name     string
		identity entities.Identity
		want     entities.Decision
	}{
		{"member of listed group", entities.Authenticated(300, false, []int64{6}), entities.Allow},
		{"member of unlisted group", entities.Authenticated(300, false, []int64{7}), entities.Deny},
		{"no groups", entities.Authenticated(300, false, nil), entities.Deny},
		{"anonymous", entities.Anonymous(), entities.Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GroupOverlap(tt.identity, item); got != tt.want {
				t.Errorf("GroupOverlap() = %v, want %v", got, tt.want)
			}
		})
	}

	empty := &entities.ContentItem{ID: 2}
	if GroupOverlap(entities.Authenticated(300, false, []int64{5}), empty) != entities.Deny {
		t.Error("GroupOverlap with empty ACL should deny")
	}
}

func TestForAction(t *testing.T) {
	owner := entities.Authenticated(100, false, nil)
	item := &entities.ContentItem{ID: 1, OwnerID: 100, Visibility: entities.VisibilityPrivate}

	if ForAction(entities.ActionView)(owner, item) != entities.Allow {
		t.Error("ForAction(view) should evaluate CanView")
	}
	if ForAction(entities.ActionEdit)(owner, item) != entities.Allow {
		t.Error("ForAction(edit) should evaluate CanEdit")
	}
	if ForAction(entities.ActionDelete)(owner, item) != entities.Allow {
		t.Error("ForAction(delete) should evaluate CanDelete")
	}
	if ForAction(entities.Action("publish"))(owner, item) != entities.Deny {
		t.Error("ForAction with unknown action should always deny")
	}
}
