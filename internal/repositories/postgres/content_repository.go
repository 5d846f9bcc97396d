package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chishiki/chishiki/internal/entities"
	"github.com/chishiki/chishiki/internal/repositories"
	"github.com/lib/pq"
)

// PostgresContentRepository implements ContentRepository using PostgreSQL
type PostgresContentRepository struct {
	db *sql.DB
}

// NewPostgresContentRepository creates a new PostgreSQL content repository
func NewPostgresContentRepository(db *sql.DB) repositories.ContentRepository {
	return &PostgresContentRepository{db: db}
}

const contentColumns = `
	c.content_id, c.insert_user, c.title, c.content, c.public_flag, c.view_count,
	c.insert_datetime, c.update_datetime,
	COALESCE((SELECT array_agg(g.group_id) FROM content_groups g WHERE g.content_id = c.content_id), '{}'),
	COALESCE((SELECT array_agg(e.user_id) FROM content_editors e WHERE e.content_id = c.content_id), '{}')
`

// GetByID retrieves a content item with its ACL group and editor lists.
// Soft-deleted rows are filtered here, so they surface as ErrNotFound.
func (r *PostgresContentRepository) GetByID(ctx context.Context, contentID int64) (*entities.ContentItem, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM contents c
		WHERE c.content_id = $1 AND c.delete_flag = 0
	`, contentColumns)

	item, err := scanContent(r.db.QueryRowContext(ctx, query, contentID))
	if err == sql.ErrNoRows {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content %d: %w", contentID, err)
	}
	return item, nil
}

// ListAccessible retrieves items the identity may view, newest first.
// The WHERE clause mirrors the view predicate: public for everyone, plus
// owned items, plus protected items reachable through the editor list or
// a shared ACL group. Admins see every non-deleted row.
func (r *PostgresContentRepository) ListAccessible(ctx context.Context, identity entities.Identity, limit, offset int) ([]*entities.ContentItem, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var query string
	var args []interface{}

	switch {
	case !identity.IsAuthenticated():
		query = fmt.Sprintf(`
			SELECT %s FROM contents c
			WHERE c.delete_flag = 0 AND c.public_flag = %d
			ORDER BY c.update_datetime DESC
			LIMIT $1 OFFSET $2
		`, contentColumns, entities.VisibilityPublic)
		args = []interface{}{limit, offset}
	case identity.IsAdmin():
		query = fmt.Sprintf(`
			SELECT %s FROM contents c
			WHERE c.delete_flag = 0
			ORDER BY c.update_datetime DESC
			LIMIT $1 OFFSET $2
		`, contentColumns)
		args = []interface{}{limit, offset}
	default:
		query = fmt.Sprintf(`
			SELECT %s FROM contents c
			WHERE c.delete_flag = 0 AND (
				c.public_flag = %d
				OR c.insert_user = $1
				OR (c.public_flag = %d AND (
					EXISTS (
						SELECT 1 FROM content_editors e
						WHERE e.content_id = c.content_id AND e.user_id = $1
					)
					OR EXISTS (
						SELECT 1 FROM content_groups g
						JOIN user_groups ug ON ug.group_id = g.group_id
						WHERE g.content_id = c.content_id AND ug.user_id = $1
					)
				))
			)
			ORDER BY c.update_datetime DESC
			LIMIT $2 OFFSET $3
		`, contentColumns, entities.VisibilityPublic, entities.VisibilityProtected)
		args = []interface{}{identity.UserID(), limit, offset}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accessible contents: %w", err)
	}
	defer rows.Close()

	var items []*entities.ContentItem
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate content rows: %w", err)
	}
	return items, nil
}

// Update rewrites the mutable fields and replaces the ACL group and
// editor lists in one transaction.
func (r *PostgresContentRepository) Update(ctx context.Context, item *entities.ContentItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE contents
		SET title = $1, content = $2, public_flag = $3, update_datetime = $4
		WHERE content_id = $5 AND delete_flag = 0
	`, item.Title, item.Body, int(item.Visibility), time.Now(), item.ID)
	if err != nil {
		return fmt.Errorf("failed to update content %d: %w", item.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return repositories.ErrNotFound
	}

	if err := replaceIDList(ctx, tx, "content_groups", "group_id", item.ID, item.ACLGroupIDs); err != nil {
		return err
	}
	if err := replaceIDList(ctx, tx, "content_editors", "user_id", item.ID, item.EditorIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SoftDelete flags the item as deleted; the row is never erased.
func (r *PostgresContentRepository) SoftDelete(ctx context.Context, contentID int64, deletedBy int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE contents
		SET delete_flag = 1, update_user = $1, update_datetime = $2
		WHERE content_id = $3 AND delete_flag = 0
	`, deletedBy, time.Now(), contentID)
	if err != nil {
		return fmt.Errorf("failed to soft-delete content %d: %w", contentID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// replaceIDList rewrites a (content_id, id) join table for one content row.
func replaceIDList(ctx context.Context, tx *sql.Tx, table, column string, contentID int64, ids []int64) error {
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE content_id = $1", table), contentID,
	); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (content_id, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING", table, column),
			contentID, id,
		); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContent(row rowScanner) (*entities.ContentItem, error) {
	item := &entities.ContentItem{}
	var publicFlag int
	var groupIDs, editorIDs pq.Int64Array

	err := row.Scan(
		&item.ID,
		&item.OwnerID,
		&item.Title,
		&item.Body,
		&publicFlag,
		&item.ViewCount,
		&item.CreatedAt,
		&item.UpdatedAt,
		&groupIDs,
		&editorIDs,
	)
	if err != nil {
		return nil, err
	}

	item.Visibility = entities.Visibility(publicFlag)
	item.ACLGroupIDs = []int64(groupIDs)
	item.EditorIDs = []int64(editorIDs)
	return item, nil
}
