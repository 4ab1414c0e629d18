package app

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"inkwell/api/internal/authpw"
	"inkwell/api/internal/config"
	"inkwell/api/internal/store"
)

// fakeStore implements dataStore (and authpw.UserStore) with per-method
// overrides. Unset methods return sql.ErrNoRows or empty values.
type fakeStore struct {
	GetUserByIDFn          func(ctx context.Context, userID string) (store.User, error)
	GetUserByEmailFn       func(ctx context.Context, email string) (store.User, error)
	CreateUserFn           func(ctx context.Context, user store.User) error
	UpdateUserProfileFn    func(ctx context.Context, userID, name, image string) error
	SetUserPasswordFn      func(ctx context.Context, userID, passwordHash string) error
	MarkEmailVerifiedFn    func(ctx context.Context, token string) (store.User, error)
	SetVerificationTokenFn func(ctx context.Context, userID, token string, expiresAt time.Time) error
	UpsertAccountFn        func(ctx context.Context, account store.Account, user store.User) (store.User, error)
	SavePasswordResetFn    func(ctx context.Context, token, userID string, expiresAt time.Time) error
	ConsumePasswordResetFn func(ctx context.Context, token string) (string, error)
	RevokeAccessTokenFn    func(ctx context.Context, jti string, exp time.Time) error
	IsAccessTokenRevokedFn func(ctx context.Context, jti string) (bool, error)

	ListFoldersFn     func(ctx context.Context, userID string) ([]store.Folder, error)
	GetFolderFn       func(ctx context.Context, userID, folderID string) (store.Folder, error)
	InsertFolderFn    func(ctx context.Context, item store.Folder) (store.Folder, error)
	UpdateFolderFn    func(ctx context.Context, userID, folderID, name, description, color string) (store.Folder, error)
	SetFolderPinnedFn func(ctx context.Context, userID, folderID string, pinned bool) (store.Folder, error)
	DeleteFolderFn    func(ctx context.Context, userID, folderID string) error

	ListNotesFn           func(ctx context.Context, userID string, folderID *string) ([]store.Note, error)
	GetNoteFn             func(ctx context.Context, userID, noteID string) (store.Note, error)
	InsertNoteFn          func(ctx context.Context, item store.Note) (store.Note, error)
	UpdateNoteFn          func(ctx context.Context, userID, noteID string, title, description, content string, folderID *string) (store.Note, error)
	SetNotePinnedFn       func(ctx context.Context, userID, noteID string, pinned bool) (store.Note, error)
	SetNoteFavoritedFn    func(ctx context.Context, userID, noteID string, favorited bool) (store.Note, error)
	DeleteNoteFn          func(ctx context.Context, userID, noteID string) error
	ListFavoriteNotesFn   func(ctx context.Context, userID string) ([]store.Note, error)
	NotesCreatedBetweenFn func(ctx context.Context, userID string, from, to time.Time) ([]store.NoteStamp, error)

	ListBoardsFn         func(ctx context.Context, userID string) ([]store.Board, error)
	GetBoardFn           func(ctx context.Context, userID, boardID string) (store.Board, error)
	InsertBoardFn        func(ctx context.Context, item store.Board, columnIDs []string) (store.Board, error)
	UpdateBoardFn        func(ctx context.Context, userID, boardID, name, description string) (store.Board, error)
	SetBoardPinnedFn     func(ctx context.Context, userID, boardID string, pinned bool) (store.Board, error)
	SetBoardFavoritedFn  func(ctx context.Context, userID, boardID string, favorited bool) (store.Board, error)
	DeleteBoardFn        func(ctx context.Context, userID, boardID string) error
	ListFavoriteBoardsFn func(ctx context.Context, userID string) ([]store.Board, error)
	DuplicateBoardFn     func(ctx context.Context, userID, boardID, newID, newName string, newChildID func() string) (store.Board, error)

	ListColumnsFn    func(ctx context.Context, userID, boardID string) ([]store.KanbanColumn, error)
	InsertColumnFn   func(ctx context.Context, userID string, item store.KanbanColumn) (store.KanbanColumn, error)
	UpdateColumnFn   func(ctx context.Context, userID, columnID, name, color string) (store.KanbanColumn, error)
	DeleteColumnFn   func(ctx context.Context, userID, columnID string) error
	ReorderColumnsFn func(ctx context.Context, userID string, items []store.ColumnReorderItem) error
	ListCardsFn      func(ctx context.Context, userID, columnID string) ([]store.KanbanCard, error)
	ListBoardCardsFn func(ctx context.Context, userID, boardID string) ([]store.KanbanCard, error)
	InsertCardFn     func(ctx context.Context, userID string, item store.KanbanCard) (store.KanbanCard, error)
	UpdateCardFn     func(ctx context.Context, userID, cardID string, columnID, name, description string, dueDate *time.Time, sortOrder int) (store.KanbanCard, error)
	DeleteCardFn     func(ctx context.Context, userID, cardID string) error
	ReorderCardsFn   func(ctx context.Context, userID string, items []store.CardReorderItem) error
	CardsDueBetweenFn func(ctx context.Context, userID string, from, to time.Time) ([]store.CardWithBoard, error)

	EventsBetweenFn func(ctx context.Context, userID string, from, to time.Time) ([]store.CalendarEvent, error)
	GetEventFn      func(ctx context.Context, userID, eventID string) (store.CalendarEvent, error)
	InsertEventFn   func(ctx context.Context, item store.CalendarEvent) (store.CalendarEvent, error)
	UpdateEventFn   func(ctx context.Context, item store.CalendarEvent) (store.CalendarEvent, error)
	DeleteEventFn   func(ctx context.Context, userID, eventID string) error
}

func (f *fakeStore) GetUserByID(ctx context.Context, userID string) (store.User, error) {
	if f.GetUserByIDFn != nil {
		return f.GetUserByIDFn(ctx, userID)
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	if f.GetUserByEmailFn != nil {
		return f.GetUserByEmailFn(ctx, email)
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeStore) CreateUser(ctx context.Context, user store.User) error {
	if f.CreateUserFn != nil {
		return f.CreateUserFn(ctx, user)
	}
	return nil
}

func (f *fakeStore) UpdateUserProfile(ctx context.Context, userID, name, image string) error {
	if f.UpdateUserProfileFn != nil {
		return f.UpdateUserProfileFn(ctx, userID, name, image)
	}
	return nil
}

func (f *fakeStore) SetUserPassword(ctx context.Context, userID, passwordHash string) error {
	if f.SetUserPasswordFn != nil {
		return f.SetUserPasswordFn(ctx, userID, passwordHash)
	}
	return nil
}

func (f *fakeStore) MarkEmailVerified(ctx context.Context, token string) (store.User, error) {
	if f.MarkEmailVerifiedFn != nil {
		return f.MarkEmailVerifiedFn(ctx, token)
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeStore) SetVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	if f.SetVerificationTokenFn != nil {
		return f.SetVerificationTokenFn(ctx, userID, token, expiresAt)
	}
	return nil
}

func (f *fakeStore) UpsertAccount(ctx context.Context, account store.Account, user store.User) (store.User, error) {
	if f.UpsertAccountFn != nil {
		return f.UpsertAccountFn(ctx, account, user)
	}
	return user, nil
}

func (f *fakeStore) SavePasswordReset(ctx context.Context, token, userID string, expiresAt time.Time) error {
	if f.SavePasswordResetFn != nil {
		return f.SavePasswordResetFn(ctx, token, userID, expiresAt)
	}
	return nil
}

func (f *fakeStore) ConsumePasswordReset(ctx context.Context, token string) (string, error) {
	if f.ConsumePasswordResetFn != nil {
		return f.ConsumePasswordResetFn(ctx, token)
	}
	return "", sql.ErrNoRows
}

func (f *fakeStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	if f.RevokeAccessTokenFn != nil {
		return f.RevokeAccessTokenFn(ctx, jti, exp)
	}
	return nil
}

func (f *fakeStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if f.IsAccessTokenRevokedFn != nil {
		return f.IsAccessTokenRevokedFn(ctx, jti)
	}
	return false, nil
}

func (f *fakeStore) ListFolders(ctx context.Context, userID string) ([]store.Folder, error) {
	if f.ListFoldersFn != nil {
		return f.ListFoldersFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeStore) GetFolder(ctx context.Context, userID, folderID string) (store.Folder, error) {
	if f.GetFolderFn != nil {
		return f.GetFolderFn(ctx, userID, folderID)
	}
	return store.Folder{}, sql.ErrNoRows
}

func (f *fakeStore) InsertFolder(ctx context.Context, item store.Folder) (store.Folder, error) {
	if f.InsertFolderFn != nil {
		return f.InsertFolderFn(ctx, item)
	}
	return item, nil
}

func (f *fakeStore) UpdateFolder(ctx context.Context, userID, folderID, name, description, color string) (store.Folder, error) {
	if f.UpdateFolderFn != nil {
		return f.UpdateFolderFn(ctx, userID, folderID, name, description, color)
	}
	return store.Folder{}, sql.ErrNoRows
}

func (f *fakeStore) SetFolderPinned(ctx context.Context, userID, folderID string, pinned bool) (store.Folder, error) {
	if f.SetFolderPinnedFn != nil {
		return f.SetFolderPinnedFn(ctx, userID, folderID, pinned)
	}
	return store.Folder{}, sql.ErrNoRows
}

func (f *fakeStore) DeleteFolder(ctx context.Context, userID, folderID string) error {
	if f.DeleteFolderFn != nil {
		return f.DeleteFolderFn(ctx, userID, folderID)
	}
	return sql.ErrNoRows
}

func (f *fakeStore) ListNotes(ctx context.Context, userID string, folderID *string) ([]store.Note, error) {
	if f.ListNotesFn != nil {
		return f.ListNotesFn(ctx, userID, folderID)
	}
	return nil, nil
}

func (f *fakeStore) GetNote(ctx context.Context, userID, noteID string) (store.Note, error) {
	if f.GetNoteFn != nil {
		return f.GetNoteFn(ctx, userID, noteID)
	}
	return store.Note{}, sql.ErrNoRows
}

func (f *fakeStore) InsertNote(ctx context.Context, item store.Note) (store.Note, error) {
	if f.InsertNoteFn != nil {
		return f.InsertNoteFn(ctx, item)
	}
	return item, nil
}

func (f *fakeStore) UpdateNote(ctx context.Context, userID, noteID string, title, description, content string, folderID *string) (store.Note, error) {
	if f.UpdateNoteFn != nil {
		return f.UpdateNoteFn(ctx, userID, noteID, title, description, content, folderID)
	}
	return store.Note{}, sql.ErrNoRows
}

func (f *fakeStore) SetNotePinned(ctx context.Context, userID, noteID string, pinned bool) (store.Note, error) {
	if f.SetNotePinnedFn != nil {
		return f.SetNotePinnedFn(ctx, userID, noteID, pinned)
	}
	return store.Note{}, sql.ErrNoRows
}

func (f *fakeStore) SetNoteFavorited(ctx context.Context, userID, noteID string, favorited bool) (store.Note, error) {
	if f.SetNoteFavoritedFn != nil {
		return f.SetNoteFavoritedFn(ctx, userID, noteID, favorited)
	}
	return store.Note{}, sql.ErrNoRows
}

func (f *fakeStore) DeleteNote(ctx context.Context, userID, noteID string) error {
	if f.DeleteNoteFn != nil {
		return f.DeleteNoteFn(ctx, userID, noteID)
	}
	return sql.ErrNoRows
}

func (f *fakeStore) ListFavoriteNotes(ctx context.Context, userID string) ([]store.Note, error) {
	if f.ListFavoriteNotesFn != nil {
		return f.ListFavoriteNotesFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeStore) NotesCreatedBetween(ctx context.Context, userID string, from, to time.Time) ([]store.NoteStamp, error) {
	if f.NotesCreatedBetweenFn != nil {
		return f.NotesCreatedBetweenFn(ctx, userID, from, to)
	}
	return nil, nil
}

func (f *fakeStore) ListBoards(ctx context.Context, userID string) ([]store.Board, error) {
	if f.ListBoardsFn != nil {
		return f.ListBoardsFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeStore) GetBoard(ctx context.Context, userID, boardID string) (store.Board, error) {
	if f.GetBoardFn != nil {
		return f.GetBoardFn(ctx, userID, boardID)
	}
	return store.Board{}, sql.ErrNoRows
}

func (f *fakeStore) InsertBoard(ctx context.Context, item store.Board, columnIDs []string) (store.Board, error) {
	if f.InsertBoardFn != nil {
		return f.InsertBoardFn(ctx, item, columnIDs)
	}
	return item, nil
}

func (f *fakeStore) UpdateBoard(ctx context.Context, userID, boardID, name, description string) (store.Board, error) {
	if f.UpdateBoardFn != nil {
		return f.UpdateBoardFn(ctx, userID, boardID, name, description)
	}
	return store.Board{}, sql.ErrNoRows
}

func (f *fakeStore) SetBoardPinned(ctx context.Context, userID, boardID string, pinned bool) (store.Board, error) {
	if f.SetBoardPinnedFn != nil {
		return f.SetBoardPinnedFn(ctx, userID, boardID, pinned)
	}
	return store.Board{}, sql.ErrNoRows
}

func (f *fakeStore) SetBoardFavorited(ctx context.Context, userID, boardID string, favorited bool) (store.Board, error) {
	if f.SetBoardFavoritedFn != nil {
		return f.SetBoardFavoritedFn(ctx, userID, boardID, favorited)
	}
	return store.Board{}, sql.ErrNoRows
}

func (f *fakeStore) DeleteBoard(ctx context.Context, userID, boardID string) error {
	if f.DeleteBoardFn != nil {
		return f.DeleteBoardFn(ctx, userID, boardID)
	}
	return sql.ErrNoRows
}

func (f *fakeStore) ListFavoriteBoards(ctx context.Context, userID string) ([]store.Board, error) {
	if f.ListFavoriteBoardsFn != nil {
		return f.ListFavoriteBoardsFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeStore) DuplicateBoard(ctx context.Context, userID, boardID, newID, newName string, newChildID func() string) (store.Board, error) {
	if f.DuplicateBoardFn != nil {
		return f.DuplicateBoardFn(ctx, userID, boardID, newID, newName, newChildID)
	}
	return store.Board{}, sql.ErrNoRows
}

func (f *fakeStore) ListColumns(ctx context.Context, userID, boardID string) ([]store.KanbanColumn, error) {
	if f.ListColumnsFn != nil {
		return f.ListColumnsFn(ctx, userID, boardID)
	}
	return nil, nil
}

func (f *fakeStore) InsertColumn(ctx context.Context, userID string, item store.KanbanColumn) (store.KanbanColumn, error) {
	if f.InsertColumnFn != nil {
		return f.InsertColumnFn(ctx, userID, item)
	}
	return item, nil
}

func (f *fakeStore) UpdateColumn(ctx context.Context, userID, columnID, name, color string) (store.KanbanColumn, error) {
	if f.UpdateColumnFn != nil {
		return f.UpdateColumnFn(ctx, userID, columnID, name, color)
	}
	return store.KanbanColumn{}, sql.ErrNoRows
}

func (f *fakeStore) DeleteColumn(ctx context.Context, userID, columnID string) error {
	if f.DeleteColumnFn != nil {
		return f.DeleteColumnFn(ctx, userID, columnID)
	}
	return sql.ErrNoRows
}

func (f *fakeStore) ReorderColumns(ctx context.Context, userID string, items []store.ColumnReorderItem) error {
	if f.ReorderColumnsFn != nil {
		return f.ReorderColumnsFn(ctx, userID, items)
	}
	return nil
}

func (f *fakeStore) ListCards(ctx context.Context, userID, columnID string) ([]store.KanbanCard, error) {
	if f.ListCardsFn != nil {
		return f.ListCardsFn(ctx, userID, columnID)
	}
	return nil, nil
}

func (f *fakeStore) ListBoardCards(ctx context.Context, userID, boardID string) ([]store.KanbanCard, error) {
	if f.ListBoardCardsFn != nil {
		return f.ListBoardCardsFn(ctx, userID, boardID)
	}
	return nil, nil
}

func (f *fakeStore) InsertCard(ctx context.Context, userID string, item store.KanbanCard) (store.KanbanCard, error) {
	if f.InsertCardFn != nil {
		return f.InsertCardFn(ctx, userID, item)
	}
	return item, nil
}

func (f *fakeStore) UpdateCard(ctx context.Context, userID, cardID string, columnID, name, description string, dueDate *time.Time, sortOrder int) (store.KanbanCard, error) {
	if f.UpdateCardFn != nil {
		return f.UpdateCardFn(ctx, userID, cardID, columnID, name, description, dueDate, sortOrder)
	}
	return store.KanbanCard{}, sql.ErrNoRows
}

func (f *fakeStore) DeleteCard(ctx context.Context, userID, cardID string) error {
	if f.DeleteCardFn != nil {
		return f.DeleteCardFn(ctx, userID, cardID)
	}
	return sql.ErrNoRows
}

func (f *fakeStore) ReorderCards(ctx context.Context, userID string, items []store.CardReorderItem) error {
	if f.ReorderCardsFn != nil {
		return f.ReorderCardsFn(ctx, userID, items)
	}
	return nil
}

func (f *fakeStore) CardsDueBetween(ctx context.Context, userID string, from, to time.Time) ([]store.CardWithBoard, error) {
	if f.CardsDueBetweenFn != nil {
		return f.CardsDueBetweenFn(ctx, userID, from, to)
	}
	return nil, nil
}

func (f *fakeStore) EventsBetween(ctx context.Context, userID string, from, to time.Time) ([]store.CalendarEvent, error) {
	if f.EventsBetweenFn != nil {
		return f.EventsBetweenFn(ctx, userID, from, to)
	}
	return nil, nil
}

func (f *fakeStore) GetEvent(ctx context.Context, userID, eventID string) (store.CalendarEvent, error) {
	if f.GetEventFn != nil {
		return f.GetEventFn(ctx, userID, eventID)
	}
	return store.CalendarEvent{}, sql.ErrNoRows
}

func (f *fakeStore) InsertEvent(ctx context.Context, item store.CalendarEvent) (store.CalendarEvent, error) {
	if f.InsertEventFn != nil {
		return f.InsertEventFn(ctx, item)
	}
	return item, nil
}

func (f *fakeStore) UpdateEvent(ctx context.Context, item store.CalendarEvent) (store.CalendarEvent, error) {
	if f.UpdateEventFn != nil {
		return f.UpdateEventFn(ctx, item)
	}
	return store.CalendarEvent{}, sql.ErrNoRows
}

func (f *fakeStore) DeleteEvent(ctx context.Context, userID, eventID string) error {
	if f.DeleteEventFn != nil {
		return f.DeleteEventFn(ctx, userID, eventID)
	}
	return sql.ErrNoRows
}

// memSessions is an in-memory refresh token store.
type memSessions struct {
	mu     sync.Mutex
	tokens map[string]store.User
}

func newMemSessions() *memSessions {
	return &memSessions{tokens: make(map[string]store.User)}
}

func (m *memSessions) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[tokenHash] = store.User{ID: userID}
	return nil
}

func (m *memSessions) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.tokens[tokenHash]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return user, nil
}

func (m *memSessions) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, tokenHash)
	return nil
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:  "test-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}
}

func newTestService(fs *fakeStore) *Service {
	return NewService(testConfig(), Deps{
		Store:    fs,
		Sessions: newMemSessions(),
		Accounts: authpw.NewService(fs, "google,github"),
		Log:      zerolog.Nop(),
	})
}

// testUser wires the lookups requireSession needs.
func testUser(fs *fakeStore) store.User {
	user := store.User{ID: "user-1", Name: "Ada", Email: "ada@example.com", EmailVerified: true}
	fs.GetUserByIDFn = func(ctx context.Context, userID string) (store.User, error) {
		if userID == user.ID {
			return user, nil
		}
		return store.User{}, sql.ErrNoRows
	}
	return user
}
