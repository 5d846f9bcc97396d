package entities

// Identity is the resolved caller of a request.
// It is a closed union: either Anonymous or an authenticated user.
// The zero value is Anonymous, so a forgotten initialization can never
// grant rights by accident.
type Identity struct {
	authenticated bool
	userID        int64
	admin         bool
	groups        map[int64]struct{}
}

// Anonymous returns the identity of an unauthenticated caller.
func Anonymous() Identity {
	return Identity{}
}

// Authenticated returns the identity of a signed-in user.
// Duplicate group IDs are collapsed; group order is irrelevant to every
// downstream rule.
func Authenticated(userID int64, admin bool, groupIDs []int64) Identity {
	id := Identity{
		authenticated: true,
		userID:        userID,
		admin:         admin,
	}
	if len(groupIDs) > 0 {
		id.groups = make(map[int64]struct{}, len(groupIDs))
		for _, g := range groupIDs {
			id.groups[g] = struct{}{}
		}
	}
	return id
}

// IsAuthenticated reports whether the identity belongs to a signed-in user.
func (i Identity) IsAuthenticated() bool {
	return i.authenticated
}

// UserID returns the user ID, or 0 for Anonymous.
func (i Identity) UserID() int64 {
	if !i.authenticated {
		return 0
	}
	return i.userID
}

// IsAdmin reports whether the identity carries the admin role.
// Anonymous is never admin.
func (i Identity) IsAdmin() bool {
	return i.authenticated && i.admin
}

// MemberOf reports whether the identity belongs to the given group.
func (i Identity) MemberOf(groupID int64) bool {
	if !i.authenticated {
		return false
	}
	_, ok := i.groups[groupID]
	return ok
}

// GroupIDs returns the identity's group memberships as a fresh slice.
func (i Identity) GroupIDs() []int64 {
	if len(i.groups) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(i.groups))
	for g := range i.groups {
		ids = append(ids, g)
	}
	return ids
}
