package entities

import "time"

// Visibility is the public_flag classification of a content item.
// The numeric values are fixed by the existing database schema.
type Visibility int

const (
	VisibilityPrivate   Visibility = 0 // Owner and admins only
	VisibilityPublic    Visibility = 1 // Everyone, including anonymous
	VisibilityProtected Visibility = 2 // Owner, admins, editors, listed groups
)

// Action is an operation a caller may request on a content item.
type Action string

const (
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// ContentItem is an article/knowledge entry with its access-control
// metadata. ACLGroupIDs grants Protected-tier viewing; EditorIDs grants
// edit/delete regardless of visibility.
type ContentItem struct {
	ID          int64
	OwnerID     int64
	Title       string
	Body        string
	Visibility  Visibility
	ACLGroupIDs []int64
	EditorIDs   []int64
	Deleted     bool
	ViewCount   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasEditor reports whether the user is a delegated editor of this item.
func (c *ContentItem) HasEditor(userID int64) bool {
	for _, id := range c.EditorIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AllowsGroup reports whether the group is on this item's access list.
func (c *ContentItem) AllowsGroup(groupID int64) bool {
	for _, id := range c.ACLGroupIDs {
		if id == groupID {
			return true
		}
	}
	return false
}
