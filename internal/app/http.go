package app

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"inkwell/api/internal/authpw"
	"inkwell/api/internal/export"
	"inkwell/api/internal/search"
	"inkwell/api/internal/store"
	"inkwell/api/internal/validation"
)

// ReadyCheck reports whether a backing dependency is reachable.
type ReadyCheck func(ctx context.Context) error

// HTTPServer exposes the service over HTTP.
type HTTPServer struct {
	service  *Service
	validate *validation.Validator
	cors     string
	log      zerolog.Logger
	checks   map[string]ReadyCheck
}

func NewHTTPServer(service *Service, corsOrigin string, log zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		service:  service,
		validate: validation.New(),
		cors:     corsOrigin,
		log:      log,
		checks:   make(map[string]ReadyCheck),
	}
}

// AddReadyCheck registers a named dependency probe for /api/ready.
func (s *HTTPServer) AddReadyCheck(name string, check ReadyCheck) {
	s.checks[name] = check
}

// Handler returns the fully wired HTTP handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.route))
}

func (s *HTTPServer) route(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	parts := splitPath(path)

	switch {
	case path == "/api/health" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	case path == "/api/ready" && r.Method == http.MethodGet:
		s.handleReady(w, r)

	case path == "/api/auth/sign-up" && r.Method == http.MethodPost:
		s.handleSignUp(w, r)
	case path == "/api/auth/sign-in" && r.Method == http.MethodPost:
		s.handleSignIn(w, r)
	case path == "/api/auth/sign-out" && r.Method == http.MethodPost:
		s.handleSignOut(w, r)
	case path == "/api/auth/social" && r.Method == http.MethodPost:
		s.handleSocialSignIn(w, r)
	case path == "/api/auth/verify-email" && r.Method == http.MethodPost:
		s.handleVerifyEmail(w, r)
	case path == "/api/auth/reset-password/request" && r.Method == http.MethodPost:
		s.handleResetRequest(w, r)
	case path == "/api/auth/reset-password" && r.Method == http.MethodPost:
		s.handleResetPassword(w, r)

	case path == "/api/session" && r.Method == http.MethodGet:
		s.handleSession(w, r)
	case path == "/api/session/refresh" && r.Method == http.MethodPost:
		s.handleRefresh(w, r)
	case path == "/api/me" && r.Method == http.MethodPut:
		s.handleUpdateProfile(w, r)

	case path == "/api/events" && r.Method == http.MethodGet:
		s.handleEvents(w, r)

	case len(parts) >= 2 && parts[0] == "api" && parts[1] == "folders":
		s.routeFolders(w, r, parts[2:])
	case len(parts) >= 2 && parts[0] == "api" && parts[1] == "notes":
		s.routeNotes(w, r, parts[2:])
	case len(parts) >= 2 && parts[0] == "api" && parts[1] == "boards":
		s.routeBoards(w, r, parts[2:])
	case len(parts) >= 2 && parts[0] == "api" && parts[1] == "columns":
		s.routeColumns(w, r, parts[2:])
	case len(parts) >= 2 && parts[0] == "api" && parts[1] == "cards":
		s.routeCards(w, r, parts[2:])
	case len(parts) >= 2 && parts[0] == "api" && parts[1] == "calendar":
		s.routeCalendar(w, r, parts[2:])
	case path == "/api/favorites" && r.Method == http.MethodGet:
		s.handleFavorites(w, r)
	case path == "/api/search" && r.Method == http.MethodGet:
		s.handleSearch(w, r)
	case path == "/api/upload" && r.Method == http.MethodPost:
		s.handleUpload(w, r)

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown route", nil)
	}
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}
	writeJSON(w, status, map[string]any{"status": statusWord(status), "deps": deps})
}

func statusWord(status int) string {
	if status == http.StatusOK {
		return "ok"
	}
	return "degraded"
}

func (s *HTTPServer) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name" validate:"required,max=100"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}
	if !s.decodeValid(w, r, &body) {
		return
	}

	user, verificationToken, err := s.service.SignUp(r.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	payload := map[string]any{
		"user":                 userPayload(user),
		"requiresVerification": true,
	}
	// Without a mail server the token is surfaced so development
	// sign-ups can complete.
	if !s.service.SMTPConfigured() {
		payload["verificationToken"] = verificationToken
	}
	writeJSON(w, http.StatusCreated, payload)
}

func (s *HTTPServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if !s.decodeValid(w, r, &body) {
		return
	}

	session, user, err := s.service.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(session, user))
}

func (s *HTTPServer) handleSignOut(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	// The body is optional on sign-out.
	_ = json.NewDecoder(r.Body).Decode(&body)

	if err := s.service.Logout(r.Context(), session, body.RefreshToken); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleSocialSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Provider          string `json:"provider" validate:"required"`
		ProviderAccountID string `json:"providerAccountId" validate:"required"`
		Email             string `json:"email" validate:"required,email"`
		Name              string `json:"name" validate:"max=100"`
		Image             string `json:"image" validate:"omitempty,url"`
	}
	if !s.decodeValid(w, r, &body) {
		return
	}

	session, user, err := s.service.SocialSignIn(r.Context(), authpw.SocialSignInRequest{
		Provider:          body.Provider,
		ProviderAccountID: body.ProviderAccountID,
		Email:             body.Email,
		Name:              body.Name,
		Image:             body.Image,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(session, user))
}

func (s *HTTPServer) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token" validate:"required"`
	}
	if !s.decodeValid(w, r, &body) {
		return
	}

	session, user, err := s.service.VerifyEmail(r.Context(), body.Token)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(session, user))
}

func (s *HTTPServer) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email" validate:"required,email"`
	}
	if !s.decodeValid(w, r, &body) {
		return
	}

	token, err := s.service.RequestPasswordReset(r.Context(), body.Email)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	payload := map[string]any{"ok": true}
	if token != "" && !s.service.SMTPConfigured() {
		payload["resetToken"] = token
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}
	if !s.decodeValid(w, r, &body) {
		return
	}

	if err := s.service.ResetPassword(r.Context(), body.Token, body.NewPassword); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	user := store.User{ID: session.UserID, Name: session.UserName, Email: session.Email, EmailVerified: true}
	writeJSON(w, http.StatusOK, sessionPayload(session, user))
}

func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	if !s.decodeValid(w, r, &body) {
		return
	}

	session, err := s.service.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	user := store.User{ID: session.UserID, Name: session.UserName, Email: session.Email, EmailVerified: true}
	writeJSON(w, http.StatusOK, sessionPayload(session, user))
}

func (s *HTTPServer) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	var body struct {
		Name  string `json:"name" validate:"required,max=100"`
		Image string `json:"image" validate:"omitempty,url"`
	}
	if !s.decodeValid(w, r, &body) {
		return
	}

	user, err := s.service.UpdateProfile(r.Context(), session.UserID, body.Name, body.Image)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userPayload(user))
}

func (s *HTTPServer) routeFolders(w http.ResponseWriter, r *http.Request, rest []string) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		folders, err := s.service.ListFolders(r.Context(), session.UserID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"folders": folderListPayload(folders)})

	case len(rest) == 0 && r.Method == http.MethodPost:
		var in FolderInput
		if !s.decodeValid(w, r, &in) {
			return
		}
		folder, err := s.service.CreateFolder(r.Context(), session.UserID, in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, folderPayload(folder))

	case len(rest) == 1 && r.Method == http.MethodGet:
		folder, err := s.service.GetFolder(r.Context(), session.UserID, rest[0])
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, folderPayload(folder))

	case len(rest) == 1 && r.Method == http.MethodPut:
		var in FolderInput
		if !s.decodeValid(w, r, &in) {
			return
		}
		folder, err := s.service.UpdateFolder(r.Context(), session.UserID, rest[0], in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, folderPayload(folder))

	case len(rest) == 1 && r.Method == http.MethodDelete:
		if err := s.service.DeleteFolder(r.Context(), session.UserID, rest[0]); err != nil {
			s.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case len(rest) == 2 && rest[1] == "pin" && toggleMethod(r):
		var body struct {
			Pinned bool `json:"pinned"`
		}
		if !s.decodeValid(w, r, &body) {
			return
		}
		folder, err := s.service.PinFolder(r.Context(), session.UserID, rest[0], body.Pinned)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, folderPayload(folder))

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown route", nil)
	}
}

func (s *HTTPServer) routeNotes(w http.ResponseWriter, r *http.Request, rest []string) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		var folderID *string
		if v := r.URL.Query().Get("folderId"); v != "" {
			folderID = &v
		}
		notes, err := s.service.ListNotes(r.Context(), session.UserID, folderID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"notes": noteListPayload(notes)})

	case len(rest) == 0 && r.Method == http.MethodPost:
		var in NoteInput
		if !s.decodeValid(w, r, &in) {
			return
		}
		note, err := s.service.CreateNote(r.Context(), session.UserID, in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, notePayload(note))

	case len(rest) == 1 && r.Method == http.MethodGet:
		note, err := s.service.GetNote(r.Context(), session.UserID, rest[0])
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, notePayload(note))

	case len(rest) == 1 && r.Method == http.MethodPut:
		var in NoteInput
		if !s.decodeValid(w, r, &in) {
			return
		}
		note, err := s.service.UpdateNote(r.Context(), session.UserID, rest[0], in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, notePayload(note))

	case len(rest) == 1 && r.Method == http.MethodDelete:
		if err := s.service.DeleteNote(r.Context(), session.UserID, rest[0]); err != nil {
			s.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case len(rest) == 2 && rest[1] == "pin" && toggleMethod(r):
		var body struct {
			Pinned bool `json:"pinned"`
		}
		if !s.decodeValid(w, r, &body) {
			return
		}
		note, err := s.service.PinNote(r.Context(), session.UserID, rest[0], body.Pinned)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, notePayload(note))

	case len(rest) == 2 && rest[1] == "favorite" && toggleMethod(r):
		var body struct {
			Favorited bool `json:"favorited"`
		}
		if !s.decodeValid(w, r, &body) {
			return
		}
		note, err := s.service.FavoriteNote(r.Context(), session.UserID, rest[0], body.Favorited)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, notePayload(note))

	case len(rest) == 2 && rest[1] == "export" && r.Method == http.MethodPost:
		s.handleExport(w, r, session, rest[0])

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown route", nil)
	}
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request, session Session, noteID string) {
	var body struct {
		Format string `json:"format"`
	}
	// The body is optional; the format defaults to PDF.
	_ = json.NewDecoder(r.Body).Decode(&body)
	format := export.Format(body.Format)
	if format == "" {
		format = export.FormatPDF
	}
	result, err := s.service.ExportNote(r.Context(), session.UserID, noteID, format)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	_, _ = w.Write(result.Data)
}

func (s *HTTPServer) routeBoards(w http.ResponseWriter, r *http.Request, rest []string) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		boards, err := s.service.ListBoards(r.Context(), session.UserID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"boards": boardListPayload(boards)})

	case len(rest) == 0 && r.Method == http.MethodPost:
		var in BoardInput
		if !s.decodeValid(w, r, &in) {
			return
		}
		board, err := s.service.CreateBoard(r.Context(), session.UserID, in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, boardPayload(board))

	case len(rest) == 1 && r.Method == http.MethodGet:
		s.handleBoardDetail(w, r, session, rest[0])

	case len(rest) == 1 && r.Method == http.MethodPut:
		var in BoardInput
		if !s.decodeValid(w, r, &in) {
			return
		}
		board, err := s.service.UpdateBoard(r.Context(), session.UserID, rest[0], in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, boardPayload(board))

	case len(rest) == 1 && r.Method == http.MethodDelete:
		if err := s.service.DeleteBoard(r.Context(), session.UserID, rest[0]); err != nil {
			s.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case len(rest) == 2 && rest[1] == "pin" && toggleMethod(r):
		var body struct {
			Pinned bool `json:"pinned"`
		}
		if !s.decodeValid(w, r, &body) {
			return
		}
		board, err := s.service.PinBoard(r.Context(), session.UserID, rest[0], body.Pinned)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, boardPayload(board))

	case len(rest) == 2 && rest[1] == "favorite" && toggleMethod(r):
		var body struct {
			Favorited bool `json:"favorited"`
		}
		if !s.decodeValid(w, r, &body) {
			return
		}
		board, err := s.service.FavoriteBoard(r.Context(), session.UserID, rest[0], body.Favorited)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, boardPayload(board))

	case len(rest) == 2 && rest[1] == "duplicate" && toggleMethod(r):
		board, err := s.service.DuplicateBoard(r.Context(), session.UserID, rest[0])
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, boardPayload(board))

	case len(rest) == 2 && rest[1] == "columns" && r.Method == http.MethodGet:
		columns, err := s.service.ListColumns(r.Context(), session.UserID, rest[0])
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"columns": columnListPayload(columns)})

	case len(rest) == 2 && rest[1] == "cards" && r.Method == http.MethodGet:
		cards, err := s.service.ListBoardCards(r.Context(), session.UserID, rest[0])
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cards": cardListPayload(cards)})

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown route", nil)
	}
}

// handleBoardDetail returns a board with its columns and cards in one
// response.
func (s *HTTPServer) handleBoardDetail(w http.ResponseWriter, r *http.Request, session Session, boardID string) {
	board, err := s.service.GetBoard(r.Context(), session.UserID, boardID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	columns, err := s.service.ListColumns(r.Context(), session.UserID, boardID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cards, err := s.service.ListBoardCards(r.Context(), session.UserID, boardID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	payload := boardPayload(board)
	payload["columns"] = columnListPayload(columns)
	payload["cards"] = cardListPayload(cards)
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) routeColumns(w http.ResponseWriter, r *http.Request, rest []string) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		boardID := r.URL.Query().Get("boardId")
		if boardID == "" {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "boardId query parameter is required", nil)
			return
		}
		columns, err := s.service.ListColumns(r.Context(), session.UserID, boardID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"columns": columnListPayload(columns)})

	case len(rest) == 0 && r.Method == http.MethodPost:
		var in ColumnInput
		if !s.decodeValid(w, r, &in) {
			return
		}
		column, err := s.service.CreateColumn(r.Context(), session.UserID, in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, columnPayload(column))

	case len(rest) == 1 && rest[0] == "reorder" && r.Method == http.MethodPut:
		var body struct {
			Items []store.ColumnReorderItem `json:"items" validate:"required,dive"`
		}
		if !s.decodeValid(w, r, &body) {
			return
		}
		if err := s.service.ReorderColumns(r.Context(), session.UserID, body.Items); err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case len(rest) == 1 && r.Method == http.MethodPut:
		var in ColumnInput
		if !s.decodeValid(w, r, &in) {
			return
		}
		column, err := s.service.UpdateColumn(r.Context(), session.UserID, rest[0], in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, columnPayload(column))

	case len(rest) == 1 && r.Method == http.MethodDelete:
		if err := s.service.DeleteColumn(r.Context(), session.UserID, rest[0]); err != nil {
			s.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case len(rest) == 2 && rest[1] == "cards" && r.Method == http.MethodGet:
		cards, err := s.service.ListCards(r.Context(), session.UserID, rest[0])
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cards": cardListPayload(cards)})

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown route", nil)
	}
}

func (s *HTTPServer) routeCards(w http.ResponseWriter, r *http.Request, rest []string) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		columnID := r.URL.Query().Get("columnId")
		if columnID == "" {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "columnId query parameter is required", nil)
			return
		}
		cards, err := s.service.ListCards(r.Context(), session.UserID, columnID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cards": cardListPayload(cards)})

	case len(rest) == 0 && r.Method == http.MethodPost:
		var in CardInput
		if !s.decodeValid(w, r, &in) {
			return
		}
		card, err := s.service.CreateCard(r.Context(), session.UserID, in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, cardPayload(card))

	case len(rest) == 1 && rest[0] == "reorder" && r.Method == http.MethodPut:
		var body struct {
			Items []store.CardReorderItem `json:"items" validate:"required,dive"`
		}
		if !s.decodeValid(w, r, &body) {
			return
		}
		if err := s.service.ReorderCards(r.Context(), session.UserID, body.Items); err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case len(rest) == 1 && r.Method == http.MethodPut:
		var in CardInput
		if !s.decodeValid(w, r, &in) {
			return
		}
		card, err := s.service.UpdateCard(r.Context(), session.UserID, rest[0], in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cardPayload(card))

	case len(rest) == 1 && r.Method == http.MethodDelete:
		if err := s.service.DeleteCard(r.Context(), session.UserID, rest[0]); err != nil {
			s.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown route", nil)
	}
}

func (s *HTTPServer) routeCalendar(w http.ResponseWriter, r *http.Request, rest []string) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		q := r.URL.Query()
		if q.Get("startDate") != "" || q.Get("endDate") != "" {
			from, err := time.Parse("2006-01-02", q.Get("startDate"))
			if err != nil {
				writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "startDate must be YYYY-MM-DD", nil)
				return
			}
			to, err := time.Parse("2006-01-02", q.Get("endDate"))
			if err != nil {
				writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "endDate must be YYYY-MM-DD", nil)
				return
			}
			data, err := s.service.CalendarRange(r.Context(), session.UserID, from, to)
			if err != nil {
				s.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, calendarPayload(data))
			return
		}
		month := q.Get("month")
		if month == "" {
			month = time.Now().UTC().Format("2006-01")
		}
		data, err := s.service.Calendar(r.Context(), session.UserID, month)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, calendarPayload(data))

	case len(rest) == 0 && r.Method == http.MethodPost:
		var in EventInput
		if !s.decodeValid(w, r, &in) {
			return
		}
		event, err := s.service.CreateEvent(r.Context(), session.UserID, in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, eventPayload(event))

	case len(rest) == 1 && r.Method == http.MethodGet:
		event, err := s.service.GetEvent(r.Context(), session.UserID, rest[0])
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, eventPayload(event))

	case len(rest) == 1 && r.Method == http.MethodPut:
		var in EventInput
		if !s.decodeValid(w, r, &in) {
			return
		}
		event, err := s.service.UpdateEvent(r.Context(), session.UserID, rest[0], in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, eventPayload(event))

	case len(rest) == 1 && r.Method == http.MethodDelete:
		if err := s.service.DeleteEvent(r.Context(), session.UserID, rest[0]); err != nil {
			s.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown route", nil)
	}
}

func (s *HTTPServer) handleFavorites(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	fav, err := s.service.ListFavorites(r.Context(), session.UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favoritesPayload(fav))
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := search.ResultType(q.Get("type"))
	if filter != "" && filter != search.ResultNote && filter != search.ResultBoard {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "type must be note or board", nil)
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	resp := s.service.Search(session.UserID, q.Get("q"), filter, limit, offset)
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	// The form parser caps memory use; files beyond the upload limit
	// are rejected by the service.
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "expected multipart form data", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "file field is required", nil)
		return
	}
	defer file.Close()

	url, err := s.service.UploadImage(r.Context(), session.UserID, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"url": url})
}

// requireSession resolves the bearer token into a session, writing a
// 401 when it cannot.
func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", nil)
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		s.fail(w, r, err)
		return Session{}, false
	}
	return session, true
}

// decodeValid decodes the JSON body into dst and validates it. It
// writes the error response itself and reports whether to continue.
func (s *HTTPServer) decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body", nil)
		return false
	}
	if err := s.validate.Validate(dst); err != nil {
		s.fail(w, r, err)
		return false
	}
	return true
}

func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message, details := mapError(err)
	if status >= 500 {
		s.log.Error().Err(err).Str("request_id", requestID(r.Context())).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, status, code, message, details)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	body := map[string]any{"code": code, "message": message}
	if details != nil {
		body["details"] = details
	}
	writeJSON(w, status, map[string]any{"error": body})
}

// toggleMethod accepts PATCH (and POST for older clients) on the
// pin/favorite/duplicate routes.
func toggleMethod(r *http.Request) bool {
	return r.Method == http.MethodPatch || r.Method == http.MethodPost
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

type contextKey string

const requestIDKey contextKey = "request_id"

func requestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

func randomRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(buf)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack keeps websocket upgrades working through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return h.Hijack()
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = randomRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		r = r.WithContext(ctx)

		s.setCORSHeaders(w)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.log.Info().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *HTTPServer) setCORSHeaders(w http.ResponseWriter) {
	origin := s.cors
	if origin == "" {
		origin = "*"
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
}
