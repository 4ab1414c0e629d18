package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ErrDuplicateName reports a case-insensitive folder name collision
// within a user's folders.
var ErrDuplicateName = fmt.Errorf("duplicate name")

const folderColumns = `id, user_id, name, description, color, sort_order, pinned, created_at, updated_at`

func scanFolder(scan func(dest ...any) error) (Folder, error) {
	var item Folder
	err := scan(
		&item.ID, &item.UserID, &item.Name, &item.Description, &item.Color,
		&item.SortOrder, &item.Pinned, &item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}

func (s *PostgresStore) ListFolders(ctx context.Context, userID string) ([]Folder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+folderColumns+`
		FROM folders
		WHERE user_id=$1
		ORDER BY sort_order ASC, created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	items := make([]Folder, 0)
	for rows.Next() {
		item, err := scanFolder(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetFolder(ctx context.Context, userID, folderID string) (Folder, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+folderColumns+` FROM folders WHERE id=$1 AND user_id=$2
	`, folderID, userID)
	return scanFolder(row.Scan)
}

// InsertFolder creates the folder at the end of the user's list. A
// case-insensitive name collision returns ErrDuplicateName.
func (s *PostgresStore) InsertFolder(ctx context.Context, item Folder) (Folder, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Folder{}, fmt.Errorf("begin folder tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM folders WHERE user_id=$1 AND LOWER(name)=LOWER($2))
	`, item.UserID, item.Name).Scan(&exists); err != nil {
		return Folder{}, fmt.Errorf("check folder name: %w", err)
	}
	if exists {
		return Folder{}, ErrDuplicateName
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO folders (id, user_id, name, description, color, sort_order)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(sort_order), -1) + 1 FROM folders WHERE user_id=$2))
		RETURNING `+folderColumns+`
	`, item.ID, item.UserID, item.Name, item.Description, item.Color)
	created, err := scanFolder(row.Scan)
	if err != nil {
		return Folder{}, fmt.Errorf("insert folder: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Folder{}, fmt.Errorf("commit folder tx: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) UpdateFolder(ctx context.Context, userID, folderID, name, description, color string) (Folder, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM folders WHERE user_id=$1 AND LOWER(name)=LOWER($2) AND id<>$3)
	`, userID, name, folderID).Scan(&exists); err != nil {
		return Folder{}, fmt.Errorf("check folder name: %w", err)
	}
	if exists {
		return Folder{}, ErrDuplicateName
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE folders
		SET name=$3, description=$4, color=$5, updated_at=NOW()
		WHERE id=$1 AND user_id=$2
		RETURNING `+folderColumns+`
	`, folderID, userID, name, description, color)
	return scanFolder(row.Scan)
}

func (s *PostgresStore) SetFolderPinned(ctx context.Context, userID, folderID string, pinned bool) (Folder, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE folders SET pinned=$3, updated_at=NOW()
		WHERE id=$1 AND user_id=$2
		RETURNING `+folderColumns+`
	`, folderID, userID, pinned)
	return scanFolder(row.Scan)
}

// DeleteFolder removes the folder; contained notes go with it via the
// cascade on notes.folder_id.
func (s *PostgresStore) DeleteFolder(ctx context.Context, userID, folderID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM folders WHERE id=$1 AND user_id=$2`, folderID, userID)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete folder result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
