package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"inkwell/api/internal/richtext"
	"inkwell/api/internal/store"
)

// NoteStore loads the note being exported.
type NoteStore interface {
	GetNote(ctx context.Context, userID, noteID string) (store.Note, error)
}

// Service provides note export functionality
type Service struct {
	store NoteStore
}

// NewService creates a new export service
func NewService(noteStore NoteStore) *Service {
	return &Service{store: noteStore}
}

// Export generates an export in the requested format
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	note, err := s.store.GetNote(ctx, req.UserID, req.NoteID)
	if err != nil {
		return nil, err
	}

	contentHTML := ""
	if note.Content != "" {
		doc, err := richtext.Parse([]byte(note.Content))
		if err == nil {
			contentHTML = richtext.ToHTML(doc)
		}
	}

	html, err := renderNoteHTML(noteTemplateData{
		Title:       note.Title,
		Description: note.Description,
		ContentHTML: template.HTML(contentHTML),
		UpdatedAt:   note.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch req.Format {
	case FormatPDF:
		return exportPDF(html, note.Title)
	case FormatDOCX:
		return exportDOCX(html, note.Title)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Format)
	}
}

type noteTemplateData struct {
	Title       string
	Description string
	ContentHTML template.HTML
	UpdatedAt   time.Time
}

var noteTemplate = template.Must(template.New("note").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    blockquote { border-left: 3px solid #ccc; margin-left: 0; padding-left: 1rem; color: #555; }
    pre { background: #f5f5f5; padding: 1rem; overflow-x: auto; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  {{if .Description}}<p>{{.Description}}</p>{{end}}
  <div class="meta">Last updated {{.UpdatedAt.Format "Jan 2, 2006"}}</div>
  <div>{{.ContentHTML}}</div>
</body>
</html>`))

func renderNoteHTML(data noteTemplateData) (string, error) {
	var buf bytes.Buffer
	if err := noteTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
