package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chishiki/chishiki/internal/entities"
	"github.com/chishiki/chishiki/internal/repositories"
	"github.com/lib/pq"
)

// PostgresUserRepository implements CredentialStore using PostgreSQL
type PostgresUserRepository struct {
	db *sql.DB
}

// NewPostgresUserRepository creates a new PostgreSQL user repository
func NewPostgresUserRepository(db *sql.DB) repositories.CredentialStore {
	return &PostgresUserRepository{db: db}
}

// FindBySubject retrieves a subject by its user key, including group
// memberships. Soft-deleted rows are returned with their delete_flag so
// the resolver can degrade them to anonymous without the store guessing.
func (r *PostgresUserRepository) FindBySubject(ctx context.Context, subjectKey string) (*entities.Subject, error) {
	query := `
		SELECT
			u.user_id, u.user_key, u.user_name, u.auth_level, u.delete_flag,
			COALESCE(
				(SELECT array_agg(ug.group_id) FROM user_groups ug WHERE ug.user_id = u.user_id),
				'{}'
			)
		FROM users u
		WHERE u.user_key = $1
	`

	subject := &entities.Subject{}
	var groupIDs pq.Int64Array
	err := r.db.QueryRowContext(ctx, query, subjectKey).Scan(
		&subject.UserID,
		&subject.UserKey,
		&subject.UserName,
		&subject.Level,
		&subject.DeleteFlag,
		&groupIDs,
	)
	if err == sql.ErrNoRows {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subject: %w", err)
	}

	subject.GroupIDs = []int64(groupIDs)
	return subject, nil
}
