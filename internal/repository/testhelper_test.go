package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/doya-app/banner-api/internal/database/migrations"
	_ "github.com/tursodatabase/go-libsql"
)

// setupTestDB creates an in-memory SQLite database for testing.
// It runs migrations and returns a database connection that will be cleaned up
// when the test completes.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := migrations.Run(db, nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// setupTestRepos creates all repositories using a test database.
func setupTestRepos(t *testing.T) *Repositories {
	t.Helper()
	db := setupTestDB(t)
	return NewRepositories(db)
}

// insertTestSubscription inserts a subscription row directly.
func insertTestSubscription(t *testing.T, db *sql.DB, id, userID, plan string, monthlyUsage int, lastReset time.Time) {
	t.Helper()
	query := `
		INSERT INTO service_subscriptions (id, user_id, plan, monthly_usage, last_usage_reset, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, datetime('now'), datetime('now'))
	`
	if _, err := db.Exec(query, id, userID, plan, monthlyUsage, lastReset.UTC().Format(time.RFC3339)); err != nil {
		t.Fatalf("failed to insert test subscription: %v", err)
	}
}

// insertTestGeneration inserts a generation row directly.
func insertTestGeneration(t *testing.T, db *sql.DB, id, userID, batchID string, shared bool, createdAt time.Time) {
	t.Helper()
	var uid *string
	if userID != "" {
		uid = &userID
	}
	query := `
		INSERT INTO generations (id, user_id, batch_id, pattern_letter, source_url, size, image_prompt, share_to_gallery, share_profile, created_at)
		VALUES (?, ?, ?, 'A', 'https://example.com', '1080x1080', 'test prompt', ?, 0, ?)
	`
	if _, err := db.Exec(query, id, uid, batchID, boolToInt(shared), createdAt.UTC().Format(time.RFC3339)); err != nil {
		t.Fatalf("failed to insert test generation: %v", err)
	}
}
