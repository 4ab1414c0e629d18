package app

import (
	"context"

	"inkwell/api/internal/events"
	"inkwell/api/internal/richtext"
	"inkwell/api/internal/search"
	"inkwell/api/internal/store"
	"inkwell/api/internal/util"
)

func (s *Service) ListFolders(ctx context.Context, userID string) ([]store.Folder, error) {
	return s.store.ListFolders(ctx, userID)
}

func (s *Service) GetFolder(ctx context.Context, userID, folderID string) (store.Folder, error) {
	return s.store.GetFolder(ctx, userID, folderID)
}

// FolderInput carries the caller-editable folder fields.
type FolderInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Color       string `json:"color" validate:"max=50"`
}

func (s *Service) CreateFolder(ctx context.Context, userID string, in FolderInput) (store.Folder, error) {
	folder, err := s.store.InsertFolder(ctx, store.Folder{
		ID:          util.NewID(),
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Color:       in.Color,
	})
	if err != nil {
		return store.Folder{}, err
	}
	s.publish(events.TypeFolderChanged, userID, folder.ID)
	return folder, nil
}

func (s *Service) UpdateFolder(ctx context.Context, userID, folderID string, in FolderInput) (store.Folder, error) {
	folder, err := s.store.UpdateFolder(ctx, userID, folderID, in.Name, in.Description, in.Color)
	if err != nil {
		return store.Folder{}, err
	}
	s.publish(events.TypeFolderChanged, userID, folder.ID)
	return folder, nil
}

func (s *Service) PinFolder(ctx context.Context, userID, folderID string, pinned bool) (store.Folder, error) {
	folder, err := s.store.SetFolderPinned(ctx, userID, folderID, pinned)
	if err != nil {
		return store.Folder{}, err
	}
	s.publish(events.TypeFolderChanged, userID, folder.ID)
	return folder, nil
}

// DeleteFolder removes a folder and, via cascade, every note inside
// it. The contained notes are dropped from the search index first.
func (s *Service) DeleteFolder(ctx context.Context, userID, folderID string) error {
	notes, err := s.store.ListNotes(ctx, userID, &folderID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteFolder(ctx, userID, folderID); err != nil {
		return err
	}
	if s.search != nil {
		for _, n := range notes {
			s.search.DeleteNote(n.ID)
		}
	}
	s.publish(events.TypeFolderChanged, userID, folderID)
	return nil
}

func (s *Service) ListNotes(ctx context.Context, userID string, folderID *string) ([]store.Note, error) {
	return s.store.ListNotes(ctx, userID, folderID)
}

func (s *Service) GetNote(ctx context.Context, userID, noteID string) (store.Note, error) {
	return s.store.GetNote(ctx, userID, noteID)
}

// NoteInput carries the caller-editable note fields. Content is an
// opaque rich text document and is stored exactly as submitted. Every
// note lives in a folder: FolderID is mandatory on create, while a nil
// FolderID on update leaves the note where it is, so partial payloads
// such as auto-saves cannot detach it.
type NoteInput struct {
	Title       string  `json:"title" validate:"max=200"`
	Description string  `json:"description" validate:"max=500"`
	Content     string  `json:"content"`
	FolderID    *string `json:"folderId" validate:"omitempty,uuid"`
}

func (s *Service) CreateNote(ctx context.Context, userID string, in NoteInput) (store.Note, error) {
	if in.FolderID == nil {
		return store.Note{}, domainError(400, "VALIDATION_ERROR", "folderId is required", nil)
	}
	title := in.Title
	if title == "" {
		title = "New Notes"
	}
	note, err := s.store.InsertNote(ctx, store.Note{
		ID:          util.NewID(),
		UserID:      userID,
		FolderID:    *in.FolderID,
		Title:       title,
		Description: in.Description,
		Content:     in.Content,
	})
	if err != nil {
		return store.Note{}, err
	}
	s.indexNote(note)
	s.publish(events.TypeNoteCreated, userID, note.ID)
	return note, nil
}

func (s *Service) UpdateNote(ctx context.Context, userID, noteID string, in NoteInput) (store.Note, error) {
	note, err := s.store.UpdateNote(ctx, userID, noteID, in.Title, in.Description, in.Content, in.FolderID)
	if err != nil {
		return store.Note{}, err
	}
	s.indexNote(note)
	s.publish(events.TypeNoteUpdated, userID, note.ID)
	return note, nil
}

func (s *Service) PinNote(ctx context.Context, userID, noteID string, pinned bool) (store.Note, error) {
	note, err := s.store.SetNotePinned(ctx, userID, noteID, pinned)
	if err != nil {
		return store.Note{}, err
	}
	s.publish(events.TypeNoteUpdated, userID, note.ID)
	return note, nil
}

func (s *Service) FavoriteNote(ctx context.Context, userID, noteID string, favorited bool) (store.Note, error) {
	note, err := s.store.SetNoteFavorited(ctx, userID, noteID, favorited)
	if err != nil {
		return store.Note{}, err
	}
	s.publish(events.TypeFavoriteChanged, userID, note.ID)
	return note, nil
}

func (s *Service) DeleteNote(ctx context.Context, userID, noteID string) error {
	if err := s.store.DeleteNote(ctx, userID, noteID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteNote(noteID)
	}
	s.publish(events.TypeNoteDeleted, userID, noteID)
	return nil
}

func (s *Service) indexNote(note store.Note) {
	if s.search == nil {
		return
	}
	body := note.Content
	if doc, err := richtext.Parse([]byte(note.Content)); err == nil {
		body = richtext.PlainText(doc)
	}
	s.search.IndexNote(search.NoteRecord{
		ID:          note.ID,
		UserID:      note.UserID,
		Title:       note.Title,
		Description: note.Description,
		Body:        body,
		FolderID:    note.FolderID,
	})
}
