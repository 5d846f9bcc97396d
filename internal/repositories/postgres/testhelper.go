package postgres

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/chishiki/chishiki/internal/infrastructure/config"
	"github.com/chishiki/chishiki/internal/infrastructure/database"
	_ "github.com/lib/pq"
)

// SetupTestDB creates a test database connection and runs migrations.
// Tests are skipped when no test database is reachable.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	if err := config.InitConfig("test"); err != nil {
		t.Fatalf("Failed to init config: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Skipf("Skipping: test config unavailable: %v", err)
	}

	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		t.Skipf("Skipping: test database unavailable: %v", err)
	}

	if err := pg.RunMigrations("../../../internal/infrastructure/database/migrations/postgres"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return pg.DB
}

// CleanupTestDB closes the database connection and cleans up test data
func CleanupTestDB(t *testing.T, db *sql.DB) {
	t.Helper()

	tables := []string{"view_histories", "content_editors", "content_groups", "contents", "user_groups", "groups", "users"}
	for _, table := range tables {
		_, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("Warning: Failed to clean up table %s: %v", table, err)
		}
	}

	if err := db.Close(); err != nil {
		t.Logf("Warning: Failed to close database: %v", err)
	}
}

// seedUser inserts a user row with optional group memberships.
func seedUser(t *testing.T, db *sql.DB, userKey string, level, deleteFlag int, groupIDs ...int64) int64 {
	t.Helper()

	var userID int64
	err := db.QueryRow(`
		INSERT INTO users (user_key, user_name, auth_level, delete_flag)
		VALUES ($1, $1, $2, $3)
		RETURNING user_id
	`, userKey, level, deleteFlag).Scan(&userID)
	if err != nil {
		t.Fatalf("Failed to seed user %s: %v", userKey, err)
	}

	for _, groupID := range groupIDs {
		if _, err := db.Exec(`
			INSERT INTO groups (group_id, group_name)
			VALUES ($1, $2)
			ON CONFLICT (group_id) DO NOTHING
		`, groupID, fmt.Sprintf("group-%d", groupID)); err != nil {
			t.Fatalf("Failed to seed group %d: %v", groupID, err)
		}
		if _, err := db.Exec(`
			INSERT INTO user_groups (user_id, group_id) VALUES ($1, $2)
		`, userID, groupID); err != nil {
			t.Fatalf("Failed to seed user_groups: %v", err)
		}
	}

	return userID
}

// seedContent inserts a content row and returns its ID.
func seedContent(t *testing.T, db *sql.DB, ownerID int64, publicFlag, deleteFlag int) int64 {
	t.Helper()

	var contentID int64
	err := db.QueryRow(`
		INSERT INTO contents (insert_user, update_user, title, content, public_flag, delete_flag)
		VALUES ($1, $1, 'title', 'body', $2, $3)
		RETURNING content_id
	`, ownerID, publicFlag, deleteFlag).Scan(&contentID)
	if err != nil {
		t.Fatalf("Failed to seed content: %v", err)
	}
	return contentID
}
