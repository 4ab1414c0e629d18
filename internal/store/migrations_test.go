package store

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func readInitMigration(t *testing.T) string {
	t.Helper()
	path := filepath.Join("..", "..", "db", "migrations", "0001_init.up.sql")
	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read init migration: %v", err)
	}
	return string(contents)
}

// Every note belongs to exactly one folder; the column must not accept
// NULL and must cascade with its folder.
func TestNotesFolderColumnIsMandatory(t *testing.T) {
	schema := readInitMigration(t)

	line := regexp.MustCompile(`(?m)^\s*folder_id\s+.*$`).FindString(schema)
	if line == "" {
		t.Fatal("notes.folder_id column not found in init migration")
	}
	if !strings.Contains(line, "NOT NULL") {
		t.Fatalf("notes.folder_id must be NOT NULL, got: %s", strings.TrimSpace(line))
	}
	if !strings.Contains(line, "REFERENCES folders(id) ON DELETE CASCADE") {
		t.Fatalf("notes.folder_id must cascade with its folder, got: %s", strings.TrimSpace(line))
	}
}

func TestChildTablesCascadeFromOwners(t *testing.T) {
	schema := readInitMigration(t)

	cascades := []string{
		"REFERENCES users(id) ON DELETE CASCADE",
		"REFERENCES folders(id) ON DELETE CASCADE",
		"REFERENCES boards(id) ON DELETE CASCADE",
		"REFERENCES kanban_columns(id) ON DELETE CASCADE",
	}
	for _, want := range cascades {
		if !strings.Contains(schema, want) {
			t.Fatalf("init migration missing cascade: %s", want)
		}
	}
}
