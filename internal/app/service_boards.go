package app

import (
	"context"
	"time"

	"inkwell/api/internal/events"
	"inkwell/api/internal/search"
	"inkwell/api/internal/store"
	"inkwell/api/internal/util"
)

func (s *Service) ListBoards(ctx context.Context, userID string) ([]store.Board, error) {
	return s.store.ListBoards(ctx, userID)
}

func (s *Service) GetBoard(ctx context.Context, userID, boardID string) (store.Board, error) {
	return s.store.GetBoard(ctx, userID, boardID)
}

// BoardInput carries the caller-editable board fields.
type BoardInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// CreateBoard creates a board seeded with the Todo, In Progress and
// Done columns.
func (s *Service) CreateBoard(ctx context.Context, userID string, in BoardInput) (store.Board, error) {
	columnIDs := []string{util.NewID(), util.NewID(), util.NewID()}
	board, err := s.store.InsertBoard(ctx, store.Board{
		ID:          util.NewID(),
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
	}, columnIDs)
	if err != nil {
		return store.Board{}, err
	}
	s.indexBoard(board)
	s.publish(events.TypeBoardChanged, userID, board.ID)
	return board, nil
}

func (s *Service) UpdateBoard(ctx context.Context, userID, boardID string, in BoardInput) (store.Board, error) {
	board, err := s.store.UpdateBoard(ctx, userID, boardID, in.Name, in.Description)
	if err != nil {
		return store.Board{}, err
	}
	s.indexBoard(board)
	s.publish(events.TypeBoardChanged, userID, board.ID)
	return board, nil
}

func (s *Service) PinBoard(ctx context.Context, userID, boardID string, pinned bool) (store.Board, error) {
	board, err := s.store.SetBoardPinned(ctx, userID, boardID, pinned)
	if err != nil {
		return store.Board{}, err
	}
	s.publish(events.TypeBoardChanged, userID, board.ID)
	return board, nil
}

func (s *Service) FavoriteBoard(ctx context.Context, userID, boardID string, favorited bool) (store.Board, error) {
	board, err := s.store.SetBoardFavorited(ctx, userID, boardID, favorited)
	if err != nil {
		return store.Board{}, err
	}
	s.publish(events.TypeFavoriteChanged, userID, board.ID)
	return board, nil
}

func (s *Service) DeleteBoard(ctx context.Context, userID, boardID string) error {
	if err := s.store.DeleteBoard(ctx, userID, boardID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteBoard(boardID)
	}
	s.publish(events.TypeBoardChanged, userID, boardID)
	return nil
}

// DuplicateBoard deep-copies a board with its columns and cards. The
// copy starts unpinned and unfavorited.
func (s *Service) DuplicateBoard(ctx context.Context, userID, boardID string) (store.Board, error) {
	src, err := s.store.GetBoard(ctx, userID, boardID)
	if err != nil {
		return store.Board{}, err
	}
	board, err := s.store.DuplicateBoard(ctx, userID, boardID, util.NewID(), src.Name+" (Copy)", util.NewID)
	if err != nil {
		return store.Board{}, err
	}
	s.indexBoard(board)
	s.publish(events.TypeBoardChanged, userID, board.ID)
	return board, nil
}

func (s *Service) indexBoard(board store.Board) {
	if s.search == nil {
		return
	}
	s.search.IndexBoard(search.BoardRecord{
		ID:          board.ID,
		UserID:      board.UserID,
		Name:        board.Name,
		Description: board.Description,
	})
}

func (s *Service) ListColumns(ctx context.Context, userID, boardID string) ([]store.KanbanColumn, error) {
	return s.store.ListColumns(ctx, userID, boardID)
}

func (s *Service) ListBoardCards(ctx context.Context, userID, boardID string) ([]store.KanbanCard, error) {
	return s.store.ListBoardCards(ctx, userID, boardID)
}

// ColumnInput carries the caller-editable column fields. BoardID is
// only honored on create.
type ColumnInput struct {
	BoardID string `json:"boardId" validate:"omitempty,uuid"`
	Name    string `json:"name" validate:"required,max=100"`
	Color   string `json:"color" validate:"max=50"`
}

func (s *Service) CreateColumn(ctx context.Context, userID string, in ColumnInput) (store.KanbanColumn, error) {
	if in.BoardID == "" {
		return store.KanbanColumn{}, domainError(400, "VALIDATION_ERROR", "boardId is required", nil)
	}
	column, err := s.store.InsertColumn(ctx, userID, store.KanbanColumn{
		ID:      util.NewID(),
		BoardID: in.BoardID,
		Name:    in.Name,
		Color:   in.Color,
	})
	if err != nil {
		return store.KanbanColumn{}, err
	}
	s.publish(events.TypeBoardChanged, userID, column.BoardID)
	return column, nil
}

func (s *Service) UpdateColumn(ctx context.Context, userID, columnID string, in ColumnInput) (store.KanbanColumn, error) {
	column, err := s.store.UpdateColumn(ctx, userID, columnID, in.Name, in.Color)
	if err != nil {
		return store.KanbanColumn{}, err
	}
	s.publish(events.TypeBoardChanged, userID, column.BoardID)
	return column, nil
}

func (s *Service) DeleteColumn(ctx context.Context, userID, columnID string) error {
	if err := s.store.DeleteColumn(ctx, userID, columnID); err != nil {
		return err
	}
	s.publish(events.TypeBoardChanged, userID, columnID)
	return nil
}

// ReorderColumns applies a batch of column positions atomically. Any
// column outside the caller's boards aborts the whole batch.
func (s *Service) ReorderColumns(ctx context.Context, userID string, items []store.ColumnReorderItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := s.store.ReorderColumns(ctx, userID, items); err != nil {
		return err
	}
	s.publish(events.TypeBoardChanged, userID, "")
	return nil
}

func (s *Service) ListCards(ctx context.Context, userID, columnID string) ([]store.KanbanCard, error) {
	return s.store.ListCards(ctx, userID, columnID)
}

// CardInput carries the caller-editable card fields. ColumnID moves the
// card when it differs from the current column.
type CardInput struct {
	ColumnID    string     `json:"columnId" validate:"omitempty,uuid"`
	Name        string     `json:"name" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	DueDate     *time.Time `json:"dueDate"`
	SortOrder   int        `json:"order"`
}

func (s *Service) CreateCard(ctx context.Context, userID string, in CardInput) (store.KanbanCard, error) {
	if in.ColumnID == "" {
		return store.KanbanCard{}, domainError(400, "VALIDATION_ERROR", "columnId is required", nil)
	}
	card, err := s.store.InsertCard(ctx, userID, store.KanbanCard{
		ID:          util.NewID(),
		ColumnID:    in.ColumnID,
		Name:        in.Name,
		Description: in.Description,
		DueDate:     in.DueDate,
	})
	if err != nil {
		return store.KanbanCard{}, err
	}
	s.publish(events.TypeCardChanged, userID, card.ID)
	return card, nil
}

func (s *Service) UpdateCard(ctx context.Context, userID, cardID string, in CardInput) (store.KanbanCard, error) {
	if in.ColumnID == "" {
		return store.KanbanCard{}, domainError(400, "VALIDATION_ERROR", "columnId is required", nil)
	}
	card, err := s.store.UpdateCard(ctx, userID, cardID, in.ColumnID, in.Name, in.Description, in.DueDate, in.SortOrder)
	if err != nil {
		return store.KanbanCard{}, err
	}
	s.publish(events.TypeCardChanged, userID, card.ID)
	return card, nil
}

func (s *Service) DeleteCard(ctx context.Context, userID, cardID string) error {
	if err := s.store.DeleteCard(ctx, userID, cardID); err != nil {
		return err
	}
	s.publish(events.TypeCardChanged, userID, cardID)
	return nil
}

// ReorderCards applies a batch of card moves atomically. Every card and
// every target column must belong to the caller or the batch aborts.
func (s *Service) ReorderCards(ctx context.Context, userID string, items []store.CardReorderItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := s.store.ReorderCards(ctx, userID, items); err != nil {
		return err
	}
	s.publish(events.TypeCardChanged, userID, "")
	return nil
}
