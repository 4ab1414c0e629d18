package store

import (
	"context"
	"database/sql"
	"fmt"
)

const boardColumnsSQL = `id, user_id, name, description, pinned, favorited, created_at, updated_at`

var defaultColumnNames = []string{"Todo", "In Progress", "Done"}

func scanBoard(scan func(dest ...any) error) (Board, error) {
	var item Board
	err := scan(
		&item.ID, &item.UserID, &item.Name, &item.Description,
		&item.Pinned, &item.Favorited, &item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}

func (s *PostgresStore) ListBoards(ctx context.Context, userID string) ([]Board, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+boardColumnsSQL+` FROM boards WHERE user_id=$1 ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()

	items := make([]Board, 0)
	for rows.Next() {
		item, err := scanBoard(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan board: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate boards: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetBoard(ctx context.Context, userID, boardID string) (Board, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+boardColumnsSQL+` FROM boards WHERE id=$1 AND user_id=$2
	`, boardID, userID)
	return scanBoard(row.Scan)
}

// InsertBoard creates the board and seeds its default columns in one tx.
// columnIDs must carry one fresh id per default column.
func (s *PostgresStore) InsertBoard(ctx context.Context, item Board, columnIDs []string) (Board, error) {
	if len(columnIDs) != len(defaultColumnNames) {
		return Board{}, fmt.Errorf("expected %d column ids, got %d", len(defaultColumnNames), len(columnIDs))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Board{}, fmt.Errorf("begin board tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO boards (id, user_id, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING `+boardColumnsSQL+`
	`, item.ID, item.UserID, item.Name, item.Description)
	created, err := scanBoard(row.Scan)
	if err != nil {
		return Board{}, fmt.Errorf("insert board: %w", err)
	}

	for i, name := range defaultColumnNames {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO kanban_columns (id, board_id, name, sort_order)
			VALUES ($1, $2, $3, $4)
		`, columnIDs[i], created.ID, name, i); err != nil {
			return Board{}, fmt.Errorf("seed column %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Board{}, fmt.Errorf("commit board tx: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) UpdateBoard(ctx context.Context, userID, boardID, name, description string) (Board, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE boards
		SET name=$3, description=$4, updated_at=NOW()
		WHERE id=$1 AND user_id=$2
		RETURNING `+boardColumnsSQL+`
	`, boardID, userID, name, description)
	return scanBoard(row.Scan)
}

func (s *PostgresStore) SetBoardPinned(ctx context.Context, userID, boardID string, pinned bool) (Board, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE boards SET pinned=$3, updated_at=NOW()
		WHERE id=$1 AND user_id=$2
		RETURNING `+boardColumnsSQL+`
	`, boardID, userID, pinned)
	return scanBoard(row.Scan)
}

func (s *PostgresStore) SetBoardFavorited(ctx context.Context, userID, boardID string, favorited bool) (Board, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE boards SET favorited=$3, updated_at=NOW()
		WHERE id=$1 AND user_id=$2
		RETURNING `+boardColumnsSQL+`
	`, boardID, userID, favorited)
	return scanBoard(row.Scan)
}

// DeleteBoard removes the board; columns and cards cascade.
func (s *PostgresStore) DeleteBoard(ctx context.Context, userID, boardID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM boards WHERE id=$1 AND user_id=$2`, boardID, userID)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete board result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) ListFavoriteBoards(ctx context.Context, userID string) ([]Board, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+boardColumnsSQL+` FROM boards
		WHERE user_id=$1 AND favorited=TRUE
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorite boards: %w", err)
	}
	defer rows.Close()

	items := make([]Board, 0)
	for rows.Next() {
		item, err := scanBoard(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan board: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorite boards: %w", err)
	}
	return items, nil
}

// DuplicateBoard copies a board with all its columns and cards in one tx.
// newID names the copy; fresh column and card ids are minted by newChildID.
func (s *PostgresStore) DuplicateBoard(ctx context.Context, userID, boardID, newID, newName string, newChildID func() string) (Board, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Board{}, fmt.Errorf("begin duplicate tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO boards (id, user_id, name, description, pinned, favorited)
		SELECT $2, user_id, $3, description, FALSE, FALSE
		FROM boards WHERE id=$1 AND user_id=$4
		RETURNING `+boardColumnsSQL+`
	`, boardID, newID, newName, userID)
	created, err := scanBoard(row.Scan)
	if err != nil {
		return Board{}, err
	}

	colRows, err := tx.QueryContext(ctx, `
		SELECT id, name, color, sort_order FROM kanban_columns WHERE board_id=$1 ORDER BY sort_order ASC
	`, boardID)
	if err != nil {
		return Board{}, fmt.Errorf("read source columns: %w", err)
	}
	type srcColumn struct {
		id, name, color string
		sortOrder       int
	}
	var srcColumns []srcColumn
	for colRows.Next() {
		var c srcColumn
		if err := colRows.Scan(&c.id, &c.name, &c.color, &c.sortOrder); err != nil {
			colRows.Close()
			return Board{}, fmt.Errorf("scan source column: %w", err)
		}
		srcColumns = append(srcColumns, c)
	}
	colRows.Close()
	if err := colRows.Err(); err != nil {
		return Board{}, fmt.Errorf("iterate source columns: %w", err)
	}

	for _, src := range srcColumns {
		copyID := newChildID()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO kanban_columns (id, board_id, name, color, sort_order)
			VALUES ($1, $2, $3, $4, $5)
		`, copyID, created.ID, src.name, src.color, src.sortOrder); err != nil {
			return Board{}, fmt.Errorf("copy column: %w", err)
		}

		cardRows, err := tx.QueryContext(ctx, `
			SELECT name, description, due_date, sort_order FROM kanban_cards WHERE column_id=$1 ORDER BY sort_order ASC
		`, src.id)
		if err != nil {
			return Board{}, fmt.Errorf("read source cards: %w", err)
		}
		var srcCards []KanbanCard
		for cardRows.Next() {
			var c KanbanCard
			if err := cardRows.Scan(&c.Name, &c.Description, &c.DueDate, &c.SortOrder); err != nil {
				cardRows.Close()
				return Board{}, fmt.Errorf("scan source card: %w", err)
			}
			srcCards = append(srcCards, c)
		}
		cardRows.Close()
		if err := cardRows.Err(); err != nil {
			return Board{}, fmt.Errorf("iterate source cards: %w", err)
		}

		for _, card := range srcCards {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO kanban_cards (id, column_id, name, description, due_date, sort_order)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, newChildID(), copyID, card.Name, card.Description, card.DueDate, card.SortOrder); err != nil {
				return Board{}, fmt.Errorf("copy card: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Board{}, fmt.Errorf("commit duplicate tx: %w", err)
	}
	return created, nil
}
