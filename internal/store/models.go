package store

import "time"

type User struct {
	ID                    string
	Name                  string
	Email                 string
	EmailVerified         bool
	Image                 string
	PasswordHash          string
	VerificationToken     string
	VerificationExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Account links a user to an external sign-in provider.
type Account struct {
	ID                string
	UserID            string
	ProviderID        string
	ProviderAccountID string
	CreatedAt         time.Time
}

type Folder struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Color       string
	SortOrder   int
	Pinned      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Note struct {
	ID          string
	UserID      string
	FolderID    string
	Title       string
	Description string
	Content     string
	Pinned      bool
	Favorited   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Board struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Pinned      bool
	Favorited   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type KanbanColumn struct {
	ID        string
	BoardID   string
	Name      string
	Color     string
	SortOrder int
	CreatedAt time.Time
}

type KanbanCard struct {
	ID          string
	ColumnID    string
	Name        string
	Description string
	DueDate     *time.Time
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CalendarEvent struct {
	ID          string
	UserID      string
	Title       string
	Description string
	StartAt     time.Time
	EndAt       *time.Time
	Color       string
	NoteID      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CardReorderItem is one row of a batch card reorder request.
type CardReorderItem struct {
	ID        string `json:"id"`
	ColumnID  string `json:"columnId"`
	SortOrder int    `json:"order"`
}

// ColumnReorderItem is one row of a batch column reorder request.
type ColumnReorderItem struct {
	ID        string `json:"id"`
	SortOrder int    `json:"order"`
}

// CardWithBoard carries the owning board alongside a card, used when
// merging card due dates into the calendar window.
type CardWithBoard struct {
	KanbanCard
	BoardID   string
	BoardName string
}

// NoteStamp is the minimal note projection merged into calendar results.
type NoteStamp struct {
	ID        string
	Title     string
	FolderID  string
	CreatedAt time.Time
}
