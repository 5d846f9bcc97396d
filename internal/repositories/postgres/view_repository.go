package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chishiki/chishiki/internal/entities"
	"github.com/chishiki/chishiki/internal/repositories"
)

// PostgresViewRepository implements ViewRecorder using PostgreSQL
type PostgresViewRepository struct {
	db *sql.DB
}

// NewPostgresViewRepository creates a new PostgreSQL view repository
func NewPostgresViewRepository(db *sql.DB) repositories.ViewRecorder {
	return &PostgresViewRepository{db: db}
}

// RecordView bumps the view counter and, for authenticated viewers,
// writes at most one history row per user, item, and day. It runs after
// the authorization decision; callers log and drop its errors.
func (r *PostgresViewRepository) RecordView(ctx context.Context, contentID int64, identity entities.Identity) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE contents
		SET view_count = view_count + 1
		WHERE content_id = $1 AND delete_flag = 0
	`, contentID); err != nil {
		return fmt.Errorf("failed to increment view count for content %d: %w", contentID, err)
	}

	if !identity.IsAuthenticated() {
		return nil
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO view_histories (content_id, insert_user, view_date, view_date_time)
		VALUES ($1, $2, CURRENT_DATE, NOW())
		ON CONFLICT (content_id, insert_user, view_date) DO NOTHING
	`, contentID, identity.UserID()); err != nil {
		return fmt.Errorf("failed to record view history for content %d: %w", contentID, err)
	}
	return nil
}
