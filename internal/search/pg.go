package search

import (
	"context"
	"database/sql"
	"fmt"
)

// Postgres is the fallback Searcher backed by ILIKE queries over the
// primary database. Always healthy; used whenever Meilisearch is down
// or unconfigured.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Healthy always reports true; the primary database being down fails
// the whole request anyway.
func (p *Postgres) Healthy() bool {
	return true
}

// Search runs ILIKE matches over notes and boards for one user. The
// returned total counts every match, not just the returned page.
func (p *Postgres) Search(q Query) ([]Result, int, error) {
	limit := q.Limit
	if limit == 0 {
		limit = 20
	}
	pattern := "%" + q.Text + "%"

	results := make([]Result, 0)
	total := 0
	ctx := context.Background()

	if q.FilterType == "" || q.FilterType == ResultNote {
		var count int
		if err := p.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM notes
			WHERE user_id=$1 AND (title ILIKE $2 OR description ILIKE $2 OR content ILIKE $2)
		`, q.UserID, pattern).Scan(&count); err != nil {
			return nil, 0, fmt.Errorf("count note hits: %w", err)
		}
		total += count

		rows, err := p.db.QueryContext(ctx, `
			SELECT id, title, description, folder_id
			FROM notes
			WHERE user_id=$1 AND (title ILIKE $2 OR description ILIKE $2 OR content ILIKE $2)
			ORDER BY updated_at DESC
			LIMIT $3 OFFSET $4
		`, q.UserID, pattern, limit, q.Offset)
		if err != nil {
			return nil, 0, fmt.Errorf("search notes: %w", err)
		}
		for rows.Next() {
			var r Result
			r.Type = ResultNote
			if err := rows.Scan(&r.ID, &r.Title, &r.Snippet, &r.FolderID); err != nil {
				rows.Close()
				return nil, 0, fmt.Errorf("scan note hit: %w", err)
			}
			results = append(results, r)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, 0, fmt.Errorf("iterate note hits: %w", err)
		}
	}

	if q.FilterType == "" || q.FilterType == ResultBoard {
		var count int
		if err := p.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM boards
			WHERE user_id=$1 AND (name ILIKE $2 OR description ILIKE $2)
		`, q.UserID, pattern).Scan(&count); err != nil {
			return nil, 0, fmt.Errorf("count board hits: %w", err)
		}
		total += count

		rows, err := p.db.QueryContext(ctx, `
			SELECT id, name, description
			FROM boards
			WHERE user_id=$1 AND (name ILIKE $2 OR description ILIKE $2)
			ORDER BY updated_at DESC
			LIMIT $3 OFFSET $4
		`, q.UserID, pattern, limit, q.Offset)
		if err != nil {
			return nil, 0, fmt.Errorf("search boards: %w", err)
		}
		for rows.Next() {
			var r Result
			r.Type = ResultBoard
			if err := rows.Scan(&r.ID, &r.Title, &r.Snippet); err != nil {
				rows.Close()
				return nil, 0, fmt.Errorf("scan board hit: %w", err)
			}
			results = append(results, r)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, 0, fmt.Errorf("iterate board hits: %w", err)
		}
	}

	return results, total, nil
}

// LoadAllRecords reads every note and board for reindexing into
// Meilisearch.
func (p *Postgres) LoadAllRecords(ctx context.Context) ([]NoteRecord, []BoardRecord, error) {
	noteRows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, title, description, content, folder_id FROM notes
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load notes: %w", err)
	}
	var notes []NoteRecord
	for noteRows.Next() {
		var n NoteRecord
		if err := noteRows.Scan(&n.ID, &n.UserID, &n.Title, &n.Description, &n.Body, &n.FolderID); err != nil {
			noteRows.Close()
			return nil, nil, fmt.Errorf("scan note record: %w", err)
		}
		notes = append(notes, n)
	}
	noteRows.Close()
	if err := noteRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate note records: %w", err)
	}

	boardRows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, name, description FROM boards
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load boards: %w", err)
	}
	var boards []BoardRecord
	for boardRows.Next() {
		var b BoardRecord
		if err := boardRows.Scan(&b.ID, &b.UserID, &b.Name, &b.Description); err != nil {
			boardRows.Close()
			return nil, nil, fmt.Errorf("scan board record: %w", err)
		}
		boards = append(boards, b)
	}
	boardRows.Close()
	if err := boardRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate board records: %w", err)
	}

	return notes, boards, nil
}
