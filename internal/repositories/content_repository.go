package repositories

import (
	"context"

	"github.com/chishiki/chishiki/internal/entities"
)

// ContentRepository defines the interface for content item data access
type ContentRepository interface {
	// GetByID retrieves a content item with its ACL group and editor lists.
	// Returns ErrNotFound when the item does not exist or is soft-deleted.
	GetByID(ctx context.Context, contentID int64) (*entities.ContentItem, error)

	// ListAccessible retrieves items the identity may view, newest first.
	// Anonymous callers see public items only; admins see everything that
	// is not deleted.
	ListAccessible(ctx context.Context, identity entities.Identity, limit, offset int) ([]*entities.ContentItem, error)

	// Update rewrites the mutable fields of an item (title, body,
	// visibility, ACL group and editor lists). The caller must already
	// hold an Edit grant from the authorization gateway.
	Update(ctx context.Context, item *entities.ContentItem) error

	// SoftDelete flags the item as deleted. The row is kept; every read
	// path afterwards treats the item as absent. The caller must already
	// hold a Delete grant from the authorization gateway.
	SoftDelete(ctx context.Context, contentID int64, deletedBy int64) error
}

// ViewRecorder records that an identity viewed a content item.
// Recording runs after an Allow decision and must never influence it.
type ViewRecorder interface {
	RecordView(ctx context.Context, contentID int64, identity entities.Identity) error
}
