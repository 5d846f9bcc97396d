package authorization

import (
	"github.com/chishiki/chishiki/internal/entities"
)

// The predicates below are the whole access policy. They are pure and
// total: any (identity, item) pair yields a Decision, never an error,
// and anything unmapped denies.

// OwnerOrAdmin allows when the identity owns the item or is an admin.
func OwnerOrAdmin(identity entities.Identity, item *entities.ContentItem) entities.Decision {
	if !identity.IsAuthenticated() {
		return entities.Deny
	}
	if identity.IsAdmin() || identity.UserID() == item.OwnerID {
		return entities.Allow
	}
	return entities.Deny
}

// IsEditor allows when the identity is a delegated editor of the item.
func IsEditor(identity entities.Identity, item *entities.ContentItem) entities.Decision {
	if !identity.IsAuthenticated() {
		return entities.Deny
	}
	if item.HasEditor(identity.UserID()) {
		return entities.Allow
	}
	return entities.Deny
}

// GroupOverlap allows when the identity belongs to any group on the
// item's access list.
func GroupOverlap(identity entities.Identity, item *entities.ContentItem) entities.Decision {
	if !identity.IsAuthenticated() {
		return entities.Deny
	}
	for _, groupID := range item.ACLGroupIDs {
		if identity.MemberOf(groupID) {
			return entities.Allow
		}
	}
	return entities.Deny
}

// CanView decides viewing access by visibility tier.
// A deleted item denies everyone, admins included. Note that a Private
// item is viewable by its owner and admins only: a delegated editor may
// edit it without being able to view it. That asymmetry matches the
// shipped behavior and must not be changed without product confirmation.
func CanView(identity entities.Identity, item *entities.ContentItem) entities.Decision {
	if item.Deleted {
		return entities.Deny
	}

	switch item.Visibility {
	case entities.VisibilityPublic:
		return entities.Allow
	case entities.VisibilityPrivate:
		return OwnerOrAdmin(identity, item)
	case entities.VisibilityProtected:
		if OwnerOrAdmin(identity, item).Allowed() {
			return entities.Allow
		}
		if IsEditor(identity, item).Allowed() {
			return entities.Allow
		}
		return GroupOverlap(identity, item)
	default:
		// Unknown visibility values fail closed.
		return entities.Deny
	}
}

// CanEdit decides editing access: owner, admin, or delegated editor.
// Visibility plays no part here.
func CanEdit(identity entities.Identity, item *entities.ContentItem) entities.Decision {
	if item.Deleted {
		return entities.Deny
	}
	if OwnerOrAdmin(identity, item).Allowed() {
		return entities.Allow
	}
	return IsEditor(identity, item)
}

// CanDelete decides deletion access. The rule is the same as CanEdit
// today; it stays a separate predicate so a future tightening (say,
// admin-only deletion) does not touch edit call sites.
func CanDelete(identity entities.Identity, item *entities.ContentItem) entities.Decision {
	return CanEdit(identity, item)
}

// ForAction returns the predicate for the requested action.
// Unknown actions return a predicate that always denies.
func ForAction(action entities.Action) func(entities.Identity, *entities.ContentItem) entities.Decision {
	switch action {
	case entities.ActionView:
		return CanView
	case entities.ActionEdit:
		return CanEdit
	case entities.ActionDelete:
		return CanDelete
	default:
		return func(entities.Identity, *entities.ContentItem) entities.Decision {
			return entities.Deny
		}
	}
}
