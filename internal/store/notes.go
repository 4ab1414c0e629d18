package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const noteColumns = `id, user_id, folder_id, title, description, content, pinned, favorited, created_at, updated_at`

func scanNote(scan func(dest ...any) error) (Note, error) {
	var item Note
	err := scan(
		&item.ID, &item.UserID, &item.FolderID, &item.Title, &item.Description,
		&item.Content, &item.Pinned, &item.Favorited, &item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}

// ListNotes returns the user's notes, optionally restricted to one folder.
func (s *PostgresStore) ListNotes(ctx context.Context, userID string, folderID *string) ([]Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE user_id=$1`
	args := []any{userID}
	if folderID != nil {
		query += ` AND folder_id=$2`
		args = append(args, *folderID)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	items := make([]Note, 0)
	for rows.Next() {
		item, err := scanNote(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetNote(ctx context.Context, userID, noteID string) (Note, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+noteColumns+` FROM notes WHERE id=$1 AND user_id=$2
	`, noteID, userID)
	return scanNote(row.Scan)
}

// InsertNote creates the note. The folder must belong to the same
// user; a foreign folder reads as sql.ErrNoRows.
func (s *PostgresStore) InsertNote(ctx context.Context, item Note) (Note, error) {
	var owned bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM folders WHERE id=$1 AND user_id=$2)
	`, item.FolderID, item.UserID).Scan(&owned); err != nil {
		return Note{}, fmt.Errorf("check folder ownership: %w", err)
	}
	if !owned {
		return Note{}, sql.ErrNoRows
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO notes (id, user_id, folder_id, title, description, content)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+noteColumns+`
	`, item.ID, item.UserID, item.FolderID, item.Title, item.Description, item.Content)
	created, err := scanNote(row.Scan)
	if err != nil {
		return Note{}, fmt.Errorf("insert note: %w", err)
	}
	return created, nil
}

// UpdateNote rewrites the editable fields. A nil folderID keeps the
// note in its current folder; a non-nil one moves it after an
// ownership check.
func (s *PostgresStore) UpdateNote(ctx context.Context, userID, noteID string, title, description, content string, folderID *string) (Note, error) {
	if folderID != nil {
		var owned bool
		if err := s.db.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM folders WHERE id=$1 AND user_id=$2)
		`, *folderID, userID).Scan(&owned); err != nil {
			return Note{}, fmt.Errorf("check folder ownership: %w", err)
		}
		if !owned {
			return Note{}, sql.ErrNoRows
		}
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE notes
		SET title=$3, description=$4, content=$5, folder_id=COALESCE($6, folder_id), updated_at=NOW()
		WHERE id=$1 AND user_id=$2
		RETURNING `+noteColumns+`
	`, noteID, userID, title, description, content, folderID)
	return scanNote(row.Scan)
}

func (s *PostgresStore) SetNotePinned(ctx context.Context, userID, noteID string, pinned bool) (Note, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE notes SET pinned=$3, updated_at=NOW()
		WHERE id=$1 AND user_id=$2
		RETURNING `+noteColumns+`
	`, noteID, userID, pinned)
	return scanNote(row.Scan)
}

func (s *PostgresStore) SetNoteFavorited(ctx context.Context, userID, noteID string, favorited bool) (Note, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE notes SET favorited=$3, updated_at=NOW()
		WHERE id=$1 AND user_id=$2
		RETURNING `+noteColumns+`
	`, noteID, userID, favorited)
	return scanNote(row.Scan)
}

func (s *PostgresStore) DeleteNote(ctx context.Context, userID, noteID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id=$1 AND user_id=$2`, noteID, userID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) ListFavoriteNotes(ctx context.Context, userID string) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE user_id=$1 AND favorited=TRUE
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorite notes: %w", err)
	}
	defer rows.Close()

	items := make([]Note, 0)
	for rows.Next() {
		item, err := scanNote(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorite notes: %w", err)
	}
	return items, nil
}

// NotesCreatedBetween feeds the calendar merge with note creation stamps.
func (s *PostgresStore) NotesCreatedBetween(ctx context.Context, userID string, from, to time.Time) ([]NoteStamp, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, folder_id, created_at
		FROM notes
		WHERE user_id=$1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at ASC
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list note stamps: %w", err)
	}
	defer rows.Close()

	items := make([]NoteStamp, 0)
	for rows.Next() {
		var item NoteStamp
		if err := rows.Scan(&item.ID, &item.Title, &item.FolderID, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note stamp: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate note stamps: %w", err)
	}
	return items, nil
}
