// Package draft implements debounced auto-save of editable fields.
package draft

import (
	"context"
	"sync"
	"time"
)

// DefaultQuietPeriod is the debounce window between the last edit and
// the save request.
const DefaultQuietPeriod = time.Second

// Fields are the editable fields an auto-saver tracks.
type Fields struct {
	Title       string
	Description string
	Content     string
}

// SaveFunc persists the full field set.
type SaveFunc func(ctx context.Context, fields Fields) error

// AutoSaver debounces edits into full-field saves. Every edit compares
// the draft against the last acknowledged save; a difference arms (or
// rearms) the quiet-period timer, so rapid edits defer the save
// indefinitely. A failed save is not retried on its own: the draft
// stays dirty and the next edit rearms the timer. Saves are
// last-write-wins; there is no conflict detection.
type AutoSaver struct {
	mu     sync.Mutex
	draft  Fields
	saved  Fields
	timer  *time.Timer
	quiet  time.Duration
	save   SaveFunc
	onSave func(Fields)
	closed bool
}

// New creates an auto-saver seeded with the current persisted fields.
// onSave, if not nil, runs after each acknowledged save.
func New(initial Fields, quiet time.Duration, save SaveFunc, onSave func(Fields)) *AutoSaver {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &AutoSaver{
		draft:  initial,
		saved:  initial,
		quiet:  quiet,
		save:   save,
		onSave: onSave,
	}
}

// Update records an edit. The timer is armed only while the draft
// differs from the last saved snapshot.
func (a *AutoSaver) Update(fields Fields) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.draft = fields
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	if a.draft == a.saved {
		return
	}
	a.timer = time.AfterFunc(a.quiet, a.fire)
}

func (a *AutoSaver) fire() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	a.mu.Unlock()
	a.Flush(context.Background())
}

// Flush saves the pending edit now, if any. Returns the save error;
// on failure the draft stays dirty.
func (a *AutoSaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	pending := a.draft
	if pending == a.saved {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	if err := a.save(ctx, pending); err != nil {
		return err
	}

	a.mu.Lock()
	a.saved = pending
	a.mu.Unlock()
	if a.onSave != nil {
		a.onSave(pending)
	}
	return nil
}

// Dirty reports whether an edit is waiting to be saved.
func (a *AutoSaver) Dirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.draft != a.saved
}

// Close stops the timer and flushes any pending edit synchronously, so
// tearing an editor down cannot drop the last keystrokes.
func (a *AutoSaver) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
	return a.Flush(context.Background())
}
