package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"inkwell/api/internal/store"
)

// TestPostgresSearchTotalSpansAllPages verifies the fallback searcher
// reports the full match count even when the page is smaller.
func TestPostgresSearchTotalSpansAllPages(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := store.Open(ctx, databaseURL)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := store.ApplyMigrations(ctx, db, filepath.Join("..", "..", "db", "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	userID := "search-total-user"
	if _, err := db.ExecContext(ctx, `
		INSERT INTO users (id, email) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING
	`, userID, userID+"@example.com"); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	defer db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, userID)

	folderID := "search-total-folder"
	if _, err := db.ExecContext(ctx, `
		INSERT INTO folders (id, user_id, name) VALUES ($1, $2, 'Search fixtures') ON CONFLICT (id) DO NOTHING
	`, folderID, userID); err != nil {
		t.Fatalf("insert folder: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO notes (id, user_id, folder_id, title) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING
		`, fmt.Sprintf("search-total-note-%d", i), userID, folderID, fmt.Sprintf("quarterly plan %d", i)); err != nil {
			t.Fatalf("insert note %d: %v", i, err)
		}
	}

	searcher := NewPostgres(db)
	results, total, err := searcher.Search(Query{UserID: userID, Text: "quarterly", FilterType: ResultNote, Limit: 2})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected page of 2, got %d", len(results))
	}
	if total != 3 {
		t.Fatalf("expected total 3 across pages, got %d", total)
	}
}
