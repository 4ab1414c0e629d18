package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const columnColumnsSQL = `id, board_id, name, color, sort_order, created_at`
const cardColumnsSQL = `id, column_id, name, description, due_date, sort_order, created_at, updated_at`

func scanColumn(scan func(dest ...any) error) (KanbanColumn, error) {
	var item KanbanColumn
	err := scan(&item.ID, &item.BoardID, &item.Name, &item.Color, &item.SortOrder, &item.CreatedAt)
	return item, err
}

func scanCard(scan func(dest ...any) error) (KanbanCard, error) {
	var item KanbanCard
	err := scan(
		&item.ID, &item.ColumnID, &item.Name, &item.Description,
		&item.DueDate, &item.SortOrder, &item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}

func (s *PostgresStore) ListColumns(ctx context.Context, userID, boardID string) ([]KanbanColumn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.board_id, c.name, c.color, c.sort_order, c.created_at
		FROM kanban_columns c
		JOIN boards b ON b.id = c.board_id
		WHERE c.board_id=$1 AND b.user_id=$2
		ORDER BY c.sort_order ASC
	`, boardID, userID)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	items := make([]KanbanColumn, 0)
	for rows.Next() {
		item, err := scanColumn(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return items, nil
}

// InsertColumn appends a column to a board the user owns.
func (s *PostgresStore) InsertColumn(ctx context.Context, userID string, item KanbanColumn) (KanbanColumn, error) {
	var owned bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM boards WHERE id=$1 AND user_id=$2)
	`, item.BoardID, userID).Scan(&owned); err != nil {
		return KanbanColumn{}, fmt.Errorf("check board ownership: %w", err)
	}
	if !owned {
		return KanbanColumn{}, sql.ErrNoRows
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO kanban_columns (id, board_id, name, color, sort_order)
		VALUES ($1, $2, $3, $4,
			(SELECT COALESCE(MAX(sort_order), -1) + 1 FROM kanban_columns WHERE board_id=$2))
		RETURNING `+columnColumnsSQL+`
	`, item.ID, item.BoardID, item.Name, item.Color)
	created, err := scanColumn(row.Scan)
	if err != nil {
		return KanbanColumn{}, fmt.Errorf("insert column: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) UpdateColumn(ctx context.Context, userID, columnID, name, color string) (KanbanColumn, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE kanban_columns c
		SET name=$3, color=$4
		FROM boards b
		WHERE c.id=$1 AND b.id=c.board_id AND b.user_id=$2
		RETURNING c.id, c.board_id, c.name, c.color, c.sort_order, c.created_at
	`, columnID, userID, name, color)
	return scanColumn(row.Scan)
}

func (s *PostgresStore) DeleteColumn(ctx context.Context, userID, columnID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM kanban_columns c
		USING boards b
		WHERE c.id=$1 AND b.id=c.board_id AND b.user_id=$2
	`, columnID, userID)
	if err != nil {
		return fmt.Errorf("delete column: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete column result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ReorderColumns applies a batch of new column orders in one tx. Every
// row must name a column on a board the user owns or the whole batch
// rolls back with sql.ErrNoRows.
func (s *PostgresStore) ReorderColumns(ctx context.Context, userID string, items []ColumnReorderItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, item := range items {
		res, err := tx.ExecContext(ctx, `
			UPDATE kanban_columns c
			SET sort_order=$3
			FROM boards b
			WHERE c.id=$1 AND b.id=c.board_id AND b.user_id=$2
		`, item.ID, userID, item.SortOrder)
		if err != nil {
			return fmt.Errorf("reorder column %s: %w", item.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("reorder column result: %w", err)
		}
		if affected == 0 {
			return sql.ErrNoRows
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListCards(ctx context.Context, userID, columnID string) ([]KanbanCard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT k.id, k.column_id, k.name, k.description, k.due_date, k.sort_order, k.created_at, k.updated_at
		FROM kanban_cards k
		JOIN kanban_columns c ON c.id = k.column_id
		JOIN boards b ON b.id = c.board_id
		WHERE k.column_id=$1 AND b.user_id=$2
		ORDER BY k.sort_order ASC
	`, columnID, userID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	items := make([]KanbanCard, 0)
	for rows.Next() {
		item, err := scanCard(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return items, nil
}

// ListBoardCards returns every card on the board grouped by column order.
func (s *PostgresStore) ListBoardCards(ctx context.Context, userID, boardID string) ([]KanbanCard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT k.id, k.column_id, k.name, k.description, k.due_date, k.sort_order, k.created_at, k.updated_at
		FROM kanban_cards k
		JOIN kanban_columns c ON c.id = k.column_id
		JOIN boards b ON b.id = c.board_id
		WHERE c.board_id=$1 AND b.user_id=$2
		ORDER BY c.sort_order ASC, k.sort_order ASC
	`, boardID, userID)
	if err != nil {
		return nil, fmt.Errorf("list board cards: %w", err)
	}
	defer rows.Close()

	items := make([]KanbanCard, 0)
	for rows.Next() {
		item, err := scanCard(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate board cards: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertCard(ctx context.Context, userID string, item KanbanCard) (KanbanCard, error) {
	var owned bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM kanban_columns c
			JOIN boards b ON b.id = c.board_id
			WHERE c.id=$1 AND b.user_id=$2
		)
	`, item.ColumnID, userID).Scan(&owned); err != nil {
		return KanbanCard{}, fmt.Errorf("check column ownership: %w", err)
	}
	if !owned {
		return KanbanCard{}, sql.ErrNoRows
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO kanban_cards (id, column_id, name, description, due_date, sort_order)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(sort_order), -1) + 1 FROM kanban_cards WHERE column_id=$2))
		RETURNING `+cardColumnsSQL+`
	`, item.ID, item.ColumnID, item.Name, item.Description, item.DueDate)
	created, err := scanCard(row.Scan)
	if err != nil {
		return KanbanCard{}, fmt.Errorf("insert card: %w", err)
	}
	return created, nil
}

// UpdateCard rewrites the card's fields, including its column when the
// card moves. Both the card and the target column must be the user's.
func (s *PostgresStore) UpdateCard(ctx context.Context, userID, cardID string, columnID, name, description string, dueDate *time.Time, sortOrder int) (KanbanCard, error) {
	var owned bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM kanban_columns c
			JOIN boards b ON b.id = c.board_id
			WHERE c.id=$1 AND b.user_id=$2
		)
	`, columnID, userID).Scan(&owned); err != nil {
		return KanbanCard{}, fmt.Errorf("check column ownership: %w", err)
	}
	if !owned {
		return KanbanCard{}, sql.ErrNoRows
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE kanban_cards k
		SET column_id=$3, name=$4, description=$5, due_date=$6, sort_order=$7, updated_at=NOW()
		FROM kanban_columns c, boards b
		WHERE k.id=$1 AND c.id=k.column_id AND b.id=c.board_id AND b.user_id=$2
		RETURNING k.id, k.column_id, k.name, k.description, k.due_date, k.sort_order, k.created_at, k.updated_at
	`, cardID, userID, columnID, name, description, dueDate, sortOrder)
	return scanCard(row.Scan)
}

func (s *PostgresStore) DeleteCard(ctx context.Context, userID, cardID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM kanban_cards k
		USING kanban_columns c, boards b
		WHERE k.id=$1 AND c.id=k.column_id AND b.id=c.board_id AND b.user_id=$2
	`, cardID, userID)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete card result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ReorderCards applies a drag-and-drop batch in one tx. Each row moves a
// card to a column and position; the card and the target column must
// both belong to the user, otherwise the whole batch rolls back.
func (s *PostgresStore) ReorderCards(ctx context.Context, userID string, items []CardReorderItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, item := range items {
		var owned bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM kanban_columns c
				JOIN boards b ON b.id = c.board_id
				WHERE c.id=$1 AND b.user_id=$2
			)
		`, item.ColumnID, userID).Scan(&owned); err != nil {
			return fmt.Errorf("check target column: %w", err)
		}
		if !owned {
			return sql.ErrNoRows
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE kanban_cards k
			SET column_id=$3, sort_order=$4, updated_at=NOW()
			FROM kanban_columns c, boards b
			WHERE k.id=$1 AND c.id=k.column_id AND b.id=c.board_id AND b.user_id=$2
		`, item.ID, userID, item.ColumnID, item.SortOrder)
		if err != nil {
			return fmt.Errorf("reorder card %s: %w", item.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("reorder card result: %w", err)
		}
		if affected == 0 {
			return sql.ErrNoRows
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder tx: %w", err)
	}
	return nil
}

// CardsDueBetween returns the user's cards whose due date falls in the
// window, with owning board info for the calendar merge.
func (s *PostgresStore) CardsDueBetween(ctx context.Context, userID string, from, to time.Time) ([]CardWithBoard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT k.id, k.column_id, k.name, k.description, k.due_date, k.sort_order, k.created_at, k.updated_at,
			b.id, b.name
		FROM kanban_cards k
		JOIN kanban_columns c ON c.id = k.column_id
		JOIN boards b ON b.id = c.board_id
		WHERE b.user_id=$1 AND k.due_date IS NOT NULL AND k.due_date >= $2 AND k.due_date < $3
		ORDER BY k.due_date ASC
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list due cards: %w", err)
	}
	defer rows.Close()

	items := make([]CardWithBoard, 0)
	for rows.Next() {
		var item CardWithBoard
		if err := rows.Scan(
			&item.ID, &item.ColumnID, &item.Name, &item.Description,
			&item.DueDate, &item.SortOrder, &item.CreatedAt, &item.UpdatedAt,
			&item.BoardID, &item.BoardName,
		); err != nil {
			return nil, fmt.Errorf("scan due card: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due cards: %w", err)
	}
	return items, nil
}
