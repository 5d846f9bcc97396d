package repositories

import (
	"context"

	"github.com/chishiki/chishiki/internal/entities"
)

// CredentialStore defines the interface for looking up credential subjects
type CredentialStore interface {
	// FindBySubject retrieves the subject a credential refers to.
	// Returns ErrNotFound when no such subject exists. Soft-deleted
	// subjects are returned with their DeleteFlag set; classifying them
	// is the resolver's job, not the store's.
	FindBySubject(ctx context.Context, subjectKey string) (*entities.Subject, error)
}
