package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const eventColumnsSQL = `id, user_id, title, description, start_at, end_at, color, note_id, created_at, updated_at`

func scanEvent(scan func(dest ...any) error) (CalendarEvent, error) {
	var item CalendarEvent
	err := scan(
		&item.ID, &item.UserID, &item.Title, &item.Description,
		&item.StartAt, &item.EndAt, &item.Color, &item.NoteID,
		&item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}

// EventsBetween returns events overlapping [from, to): an event with an
// end time overlaps when it ends after the window opens, a point event
// when it starts inside the window.
func (s *PostgresStore) EventsBetween(ctx context.Context, userID string, from, to time.Time) ([]CalendarEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+eventColumnsSQL+`
		FROM calendar_events
		WHERE user_id=$1
			AND start_at < $3
			AND COALESCE(end_at, start_at) >= $2
		ORDER BY start_at ASC
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items := make([]CalendarEvent, 0)
	for rows.Next() {
		item, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetEvent(ctx context.Context, userID, eventID string) (CalendarEvent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+eventColumnsSQL+` FROM calendar_events WHERE id=$1 AND user_id=$2
	`, eventID, userID)
	return scanEvent(row.Scan)
}

// InsertEvent creates the event. A note backlink must point at the
// user's own note.
func (s *PostgresStore) InsertEvent(ctx context.Context, item CalendarEvent) (CalendarEvent, error) {
	if item.NoteID != nil {
		var owned bool
		if err := s.db.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM notes WHERE id=$1 AND user_id=$2)
		`, *item.NoteID, item.UserID).Scan(&owned); err != nil {
			return CalendarEvent{}, fmt.Errorf("check note ownership: %w", err)
		}
		if !owned {
			return CalendarEvent{}, sql.ErrNoRows
		}
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO calendar_events (id, user_id, title, description, start_at, end_at, color, note_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+eventColumnsSQL+`
	`, item.ID, item.UserID, item.Title, item.Description, item.StartAt, item.EndAt, item.Color, item.NoteID)
	created, err := scanEvent(row.Scan)
	if err != nil {
		return CalendarEvent{}, fmt.Errorf("insert event: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) UpdateEvent(ctx context.Context, item CalendarEvent) (CalendarEvent, error) {
	if item.NoteID != nil {
		var owned bool
		if err := s.db.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM notes WHERE id=$1 AND user_id=$2)
		`, *item.NoteID, item.UserID).Scan(&owned); err != nil {
			return CalendarEvent{}, fmt.Errorf("check note ownership: %w", err)
		}
		if !owned {
			return CalendarEvent{}, sql.ErrNoRows
		}
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE calendar_events
		SET title=$3, description=$4, start_at=$5, end_at=$6, color=$7, note_id=$8, updated_at=NOW()
		WHERE id=$1 AND user_id=$2
		RETURNING `+eventColumnsSQL+`
	`, item.ID, item.UserID, item.Title, item.Description, item.StartAt, item.EndAt, item.Color, item.NoteID)
	return scanEvent(row.Scan)
}

func (s *PostgresStore) DeleteEvent(ctx context.Context, userID, eventID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE id=$1 AND user_id=$2`, eventID, userID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
