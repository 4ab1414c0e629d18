package app

import (
	"context"
	"io"
	"time"

	"inkwell/api/internal/events"
	"inkwell/api/internal/export"
	"inkwell/api/internal/search"
	"inkwell/api/internal/store"
	"inkwell/api/internal/upload"
	"inkwell/api/internal/util"
)

// CalendarData is everything shown for a calendar window: events,
// cards with due dates, and note creation stamps.
type CalendarData struct {
	From   time.Time
	To     time.Time
	Events []store.CalendarEvent
	Cards  []store.CardWithBoard
	Notes  []store.NoteStamp
}

// monthWindow turns "YYYY-MM" into a three month window: the month
// before through the month after, so adjacent-month cells on the
// calendar grid are populated.
func monthWindow(month string) (time.Time, time.Time, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, domainError(400, "VALIDATION_ERROR", "month must be formatted YYYY-MM", nil)
	}
	from := t.AddDate(0, -1, 0)
	to := t.AddDate(0, 2, 0)
	return from, to, nil
}

// Calendar loads the merged calendar data for a month.
func (s *Service) Calendar(ctx context.Context, userID, month string) (CalendarData, error) {
	from, to, err := monthWindow(month)
	if err != nil {
		return CalendarData{}, err
	}
	return s.CalendarRange(ctx, userID, from, to)
}

// CalendarRange loads the merged calendar data for an explicit window.
func (s *Service) CalendarRange(ctx context.Context, userID string, from, to time.Time) (CalendarData, error) {
	if !to.After(from) {
		return CalendarData{}, domainError(400, "VALIDATION_ERROR", "end of range must be after its start", nil)
	}

	calEvents, err := s.store.EventsBetween(ctx, userID, from, to)
	if err != nil {
		return CalendarData{}, err
	}
	cards, err := s.store.CardsDueBetween(ctx, userID, from, to)
	if err != nil {
		return CalendarData{}, err
	}
	notes, err := s.store.NotesCreatedBetween(ctx, userID, from, to)
	if err != nil {
		return CalendarData{}, err
	}

	return CalendarData{From: from, To: to, Events: calEvents, Cards: cards, Notes: notes}, nil
}

// EventInput carries the caller-editable calendar event fields.
type EventInput struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	StartAt     time.Time  `json:"startAt" validate:"required"`
	EndAt       *time.Time `json:"endAt"`
	Color       string     `json:"color" validate:"max=50"`
	NoteID      *string    `json:"noteId" validate:"omitempty,uuid"`
}

func (in EventInput) checkRange() error {
	if in.EndAt != nil && in.EndAt.Before(in.StartAt) {
		return domainError(400, "VALIDATION_ERROR", "endAt must not be before startAt", nil)
	}
	return nil
}

func (s *Service) GetEvent(ctx context.Context, userID, eventID string) (store.CalendarEvent, error) {
	return s.store.GetEvent(ctx, userID, eventID)
}

func (s *Service) CreateEvent(ctx context.Context, userID string, in EventInput) (store.CalendarEvent, error) {
	if err := in.checkRange(); err != nil {
		return store.CalendarEvent{}, err
	}
	event, err := s.store.InsertEvent(ctx, store.CalendarEvent{
		ID:          util.NewID(),
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		StartAt:     in.StartAt,
		EndAt:       in.EndAt,
		Color:       in.Color,
		NoteID:      in.NoteID,
	})
	if err != nil {
		return store.CalendarEvent{}, err
	}
	s.publish(events.TypeCalendarChanged, userID, event.ID)
	return event, nil
}

func (s *Service) UpdateEvent(ctx context.Context, userID, eventID string, in EventInput) (store.CalendarEvent, error) {
	if err := in.checkRange(); err != nil {
		return store.CalendarEvent{}, err
	}
	event, err := s.store.UpdateEvent(ctx, store.CalendarEvent{
		ID:          eventID,
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		StartAt:     in.StartAt,
		EndAt:       in.EndAt,
		Color:       in.Color,
		NoteID:      in.NoteID,
	})
	if err != nil {
		return store.CalendarEvent{}, err
	}
	s.publish(events.TypeCalendarChanged, userID, event.ID)
	return event, nil
}

func (s *Service) DeleteEvent(ctx context.Context, userID, eventID string) error {
	if err := s.store.DeleteEvent(ctx, userID, eventID); err != nil {
		return err
	}
	s.publish(events.TypeCalendarChanged, userID, eventID)
	return nil
}

// Favorites groups the user's favorited notes and boards.
type Favorites struct {
	Notes  []store.Note
	Boards []store.Board
}

func (s *Service) ListFavorites(ctx context.Context, userID string) (Favorites, error) {
	notes, err := s.store.ListFavoriteNotes(ctx, userID)
	if err != nil {
		return Favorites{}, err
	}
	boards, err := s.store.ListFavoriteBoards(ctx, userID)
	if err != nil {
		return Favorites{}, err
	}
	return Favorites{Notes: notes, Boards: boards}, nil
}

// Search runs a full-text search scoped to the user.
func (s *Service) Search(userID, text string, filter search.ResultType, limit, offset int) search.Response {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: text}
	}
	return s.search.Search(search.Query{
		Text:       text,
		UserID:     userID,
		FilterType: filter,
		Limit:      limit,
		Offset:     offset,
	})
}

// ExportNote renders a note to the requested download format.
func (s *Service) ExportNote(ctx context.Context, userID, noteID string, format export.Format) (*export.Result, error) {
	if s.exports == nil {
		return nil, domainError(503, "EXPORT_UNAVAILABLE", "export is not available", nil)
	}
	return s.exports.Export(ctx, export.Request{NoteID: noteID, UserID: userID, Format: format})
}

// UploadImage stores an editor image and returns its public URL.
func (s *Service) UploadImage(ctx context.Context, userID, filename, contentType string, size int64, r io.Reader) (string, error) {
	if !s.UploadsConfigured() {
		return "", upload.ErrNotConfigured
	}
	return s.uploads.Upload(ctx, userID, filename, contentType, size, r)
}
