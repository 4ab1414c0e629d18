// Package app wires the HTTP surface to the service layer.
package app

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"inkwell/api/internal/auth"
	"inkwell/api/internal/authpw"
	"inkwell/api/internal/config"
	"inkwell/api/internal/email"
	"inkwell/api/internal/events"
	"inkwell/api/internal/export"
	"inkwell/api/internal/search"
	"inkwell/api/internal/store"
	"inkwell/api/internal/upload"
	"inkwell/api/internal/util"
)

// Session represents an authenticated session.
type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Email        string
	JTI          string
	ExpiresAt    time.Time
}

// dataStore is the storage interface the service depends on. It is
// satisfied by store.PostgresStore and faked in tests.
type dataStore interface {
	// users and auth
	GetUserByID(ctx context.Context, userID string) (store.User, error)
	UpdateUserProfile(ctx context.Context, userID, name, image string) error
	RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)

	// folders
	ListFolders(ctx context.Context, userID string) ([]store.Folder, error)
	GetFolder(ctx context.Context, userID, folderID string) (store.Folder, error)
	InsertFolder(ctx context.Context, item store.Folder) (store.Folder, error)
	UpdateFolder(ctx context.Context, userID, folderID, name, description, color string) (store.Folder, error)
	SetFolderPinned(ctx context.Context, userID, folderID string, pinned bool) (store.Folder, error)
	DeleteFolder(ctx context.Context, userID, folderID string) error

	// notes
	ListNotes(ctx context.Context, userID string, folderID *string) ([]store.Note, error)
	GetNote(ctx context.Context, userID, noteID string) (store.Note, error)
	InsertNote(ctx context.Context, item store.Note) (store.Note, error)
	UpdateNote(ctx context.Context, userID, noteID string, title, description, content string, folderID *string) (store.Note, error)
	SetNotePinned(ctx context.Context, userID, noteID string, pinned bool) (store.Note, error)
	SetNoteFavorited(ctx context.Context, userID, noteID string, favorited bool) (store.Note, error)
	DeleteNote(ctx context.Context, userID, noteID string) error
	ListFavoriteNotes(ctx context.Context, userID string) ([]store.Note, error)
	NotesCreatedBetween(ctx context.Context, userID string, from, to time.Time) ([]store.NoteStamp, error)

	// boards
	ListBoards(ctx context.Context, userID string) ([]store.Board, error)
	GetBoard(ctx context.Context, userID, boardID string) (store.Board, error)
	InsertBoard(ctx context.Context, item store.Board, columnIDs []string) (store.Board, error)
	UpdateBoard(ctx context.Context, userID, boardID, name, description string) (store.Board, error)
	SetBoardPinned(ctx context.Context, userID, boardID string, pinned bool) (store.Board, error)
	SetBoardFavorited(ctx context.Context, userID, boardID string, favorited bool) (store.Board, error)
	DeleteBoard(ctx context.Context, userID, boardID string) error
	ListFavoriteBoards(ctx context.Context, userID string) ([]store.Board, error)
	DuplicateBoard(ctx context.Context, userID, boardID, newID, newName string, newChildID func() string) (store.Board, error)

	// kanban columns and cards
	ListColumns(ctx context.Context, userID, boardID string) ([]store.KanbanColumn, error)
	InsertColumn(ctx context.Context, userID string, item store.KanbanColumn) (store.KanbanColumn, error)
	UpdateColumn(ctx context.Context, userID, columnID, name, color string) (store.KanbanColumn, error)
	DeleteColumn(ctx context.Context, userID, columnID string) error
	ReorderColumns(ctx context.Context, userID string, items []store.ColumnReorderItem) error
	ListCards(ctx context.Context, userID, columnID string) ([]store.KanbanCard, error)
	ListBoardCards(ctx context.Context, userID, boardID string) ([]store.KanbanCard, error)
	InsertCard(ctx context.Context, userID string, item store.KanbanCard) (store.KanbanCard, error)
	UpdateCard(ctx context.Context, userID, cardID string, columnID, name, description string, dueDate *time.Time, sortOrder int) (store.KanbanCard, error)
	DeleteCard(ctx context.Context, userID, cardID string) error
	ReorderCards(ctx context.Context, userID string, items []store.CardReorderItem) error
	CardsDueBetween(ctx context.Context, userID string, from, to time.Time) ([]store.CardWithBoard, error)

	// calendar
	EventsBetween(ctx context.Context, userID string, from, to time.Time) ([]store.CalendarEvent, error)
	GetEvent(ctx context.Context, userID, eventID string) (store.CalendarEvent, error)
	InsertEvent(ctx context.Context, item store.CalendarEvent) (store.CalendarEvent, error)
	UpdateEvent(ctx context.Context, item store.CalendarEvent) (store.CalendarEvent, error)
	DeleteEvent(ctx context.Context, userID, eventID string) error
}

// sessionStore persists refresh tokens. Redis when configured,
// Postgres otherwise.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

// Service implements the application logic behind the HTTP API.
type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	accounts *authpw.Service
	email    *email.Service
	search   *search.Service
	exports  *export.Service
	uploads  *upload.Service
	hub      *events.Hub
	log      zerolog.Logger
}

// Deps bundles the collaborators a Service needs.
type Deps struct {
	Store    dataStore
	Sessions sessionStore
	Accounts *authpw.Service
	Email    *email.Service
	Search   *search.Service
	Exports  *export.Service
	Uploads  *upload.Service
	Hub      *events.Hub
	Log      zerolog.Logger
}

func NewService(cfg config.Config, deps Deps) *Service {
	hub := deps.Hub
	if hub == nil {
		hub = events.NewHub()
	}
	return &Service{
		cfg:      cfg,
		store:    deps.Store,
		sessions: deps.Sessions,
		accounts: deps.Accounts,
		email:    deps.Email,
		search:   deps.Search,
		exports:  deps.Exports,
		uploads:  deps.Uploads,
		hub:      hub,
		log:      deps.Log,
	}
}

// Hub exposes the event hub for the live events endpoint.
func (s *Service) Hub() *events.Hub {
	return s.hub
}

func (s *Service) publish(eventType, userID, entityID string) {
	s.hub.Publish(events.Event{Type: eventType, UserID: userID, EntityID: entityID})
}

// SMTPConfigured reports whether outbound email is available. When it
// is not, verification and reset tokens are returned to the caller so
// local development works without a mail server.
func (s *Service) SMTPConfigured() bool {
	return s.email != nil && s.email.IsConfigured()
}

// UploadsConfigured reports whether object storage is available.
func (s *Service) UploadsConfigured() bool {
	return s.uploads != nil && s.uploads.IsConfigured()
}

// SignUp registers a new account and emails a verification link when
// SMTP is configured. The verification token is returned so the caller
// can surface it in development mode.
func (s *Service) SignUp(ctx context.Context, name, emailAddr, password string) (store.User, string, error) {
	resp, err := s.accounts.SignUp(ctx, authpw.SignUpRequest{
		Name:     name,
		Email:    emailAddr,
		Password: password,
	})
	if err != nil {
		return store.User{}, "", err
	}

	if s.SMTPConfigured() {
		verifyURL := s.cfg.AppURL + "/verify-email?token=" + url.QueryEscape(resp.VerificationToken)
		go func() {
			if err := s.email.SendVerificationEmail(resp.User.Email, resp.User.Name, verifyURL); err != nil {
				s.log.Error().Err(err).Str("user_id", resp.User.ID).Msg("send verification email")
			}
		}()
	}
	return resp.User, resp.VerificationToken, nil
}

// SignIn authenticates by email and password and opens a session.
func (s *Service) SignIn(ctx context.Context, emailAddr, password string) (Session, store.User, error) {
	user, err := s.accounts.SignIn(ctx, authpw.SignInRequest{Email: emailAddr, Password: password})
	if err != nil {
		return Session{}, store.User{}, err
	}
	if !user.EmailVerified {
		return Session{}, store.User{}, domainError(403, "EMAIL_NOT_VERIFIED", "email address is not verified", nil)
	}
	session, err := s.issueSession(ctx, user)
	if err != nil {
		return Session{}, store.User{}, err
	}
	return session, user, nil
}

// SocialSignIn signs a user in from a provider assertion and opens a
// session.
func (s *Service) SocialSignIn(ctx context.Context, req authpw.SocialSignInRequest) (Session, store.User, error) {
	user, err := s.accounts.SocialSignIn(ctx, req)
	if err != nil {
		return Session{}, store.User{}, err
	}
	session, err := s.issueSession(ctx, user)
	if err != nil {
		return Session{}, store.User{}, err
	}
	return session, user, nil
}

// VerifyEmail confirms an email address and opens a session for the
// verified user.
func (s *Service) VerifyEmail(ctx context.Context, token string) (Session, store.User, error) {
	user, err := s.accounts.VerifyEmail(ctx, token)
	if err != nil {
		return Session{}, store.User{}, domainError(400, "INVALID_TOKEN", err.Error(), nil)
	}
	session, err := s.issueSession(ctx, user)
	if err != nil {
		return Session{}, store.User{}, err
	}
	return session, user, nil
}

// RequestPasswordReset issues a reset token. The response does not
// reveal whether the email exists.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) (string, error) {
	token, err := s.accounts.RequestPasswordReset(ctx, emailAddr)
	if err != nil {
		return "", err
	}
	if token != "" && s.SMTPConfigured() {
		user, err := s.accounts.UserByEmail(ctx, emailAddr)
		if err == nil {
			resetURL := s.cfg.AppURL + "/reset-password?token=" + url.QueryEscape(token)
			go func() {
				if err := s.email.SendPasswordResetEmail(user.Email, user.Name, resetURL); err != nil {
					s.log.Error().Err(err).Str("user_id", user.ID).Msg("send reset email")
				}
			}()
		}
	}
	return token, nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := s.accounts.ResetPassword(ctx, authpw.ResetPasswordRequest{Token: token, NewPassword: newPassword}); err != nil {
		return domainError(400, "INVALID_TOKEN", err.Error(), nil)
	}
	return nil
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	jti := util.NewID()
	expiresAt := time.Now().Add(s.cfg.AccessTTL)
	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   user.ID,
		Name:  user.Name,
		Email: user.Email,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}

	refreshToken, err := util.NewToken(32)
	if err != nil {
		return Session{}, fmt.Errorf("issue refresh token: %w", err)
	}
	refreshExpiry := time.Now().Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refreshToken), user.ID, refreshExpiry); err != nil {
		return Session{}, fmt.Errorf("save refresh session: %w", err)
	}

	return Session{
		Token:        token,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		UserName:     user.Name,
		Email:        user.Email,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a
// fresh session is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	hash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, hash)
	if err != nil {
		return Session{}, domainError(401, "UNAUTHORIZED", "invalid refresh token", nil)
	}
	if err := s.sessions.RevokeRefreshSession(ctx, hash); err != nil {
		return Session{}, fmt.Errorf("revoke refresh session: %w", err)
	}
	// The session store may only carry the user id.
	full, err := s.store.GetUserByID(ctx, user.ID)
	if err != nil {
		return Session{}, domainError(401, "UNAUTHORIZED", "invalid refresh token", nil)
	}
	return s.issueSession(ctx, full)
}

// SessionFromToken validates an access token and resolves the session
// it represents.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}
	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, auth.ErrInvalidToken
	}
	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.Name,
		Email:     user.Email,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// Logout revokes the access token and, when presented, the refresh
// token.
func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if err := s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	if refreshToken != "" {
		if err := s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken)); err != nil {
			return fmt.Errorf("revoke refresh session: %w", err)
		}
	}
	return nil
}

// UpdateProfile changes the display name and avatar of the current
// user.
func (s *Service) UpdateProfile(ctx context.Context, userID, name, image string) (store.User, error) {
	if err := s.store.UpdateUserProfile(ctx, userID, name, image); err != nil {
		return store.User{}, err
	}
	return s.store.GetUserByID(ctx, userID)
}
