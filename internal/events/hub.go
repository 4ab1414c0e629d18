// Package events provides typed change notifications between the
// service layer and connected views.
package events

import (
	"sync"
	"time"
)

// Event types published after successful mutations.
const (
	TypeNoteCreated     = "note.created"
	TypeNoteUpdated     = "note.updated"
	TypeNoteDeleted     = "note.deleted"
	TypeFolderChanged   = "folder.changed"
	TypeBoardChanged    = "board.changed"
	TypeCardChanged     = "card.changed"
	TypeCalendarChanged = "calendar.changed"
	TypeFavoriteChanged = "favorite.changed"
)

// Event is one change notification scoped to a user.
type Event struct {
	Type     string    `json:"type"`
	UserID   string    `json:"-"`
	EntityID string    `json:"entityId,omitempty"`
	At       time.Time `json:"at"`
}

// Hub fans events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type Hub struct {
	mu   sync.RWMutex
	subs map[*Subscriber]struct{}
}

// Subscriber receives events for one user.
type Subscriber struct {
	userID string
	ch     chan Event
	hub    *Hub
	once   sync.Once
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscriber]struct{})}
}

// Subscribe registers a listener for the user's events.
func (h *Hub) Subscribe(userID string) *Subscriber {
	sub := &Subscriber{
		userID: userID,
		ch:     make(chan Event, 32),
		hub:    h,
	}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Publish delivers the event to every subscriber of its user.
func (h *Hub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if sub.userID != event.UserID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// C is the subscriber's event channel.
func (s *Subscriber) C() <-chan Event {
	return s.ch
}

// Close detaches the subscriber from the hub.
func (s *Subscriber) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		s.hub.mu.Unlock()
		close(s.ch)
	})
}
