// Package sessionstore holds the current working session for one view:
// metadata plus the event stream, with explicit set/reset operations.
// Each view owns its own Store instance; only the lifecycle controller
// mutates it.
package sessionstore

import (
	"sync"

	"github.com/Permanently/sessionbook/internal/domain"
)

// Store holds at most one current session. A snapshot is only observable
// once both metadata and events are present; the brief construction window
// between SetMetadata and SetEvents is invisible to readers.
type Store struct {
	mu     sync.RWMutex
	id     string
	source domain.Source
	meta   *domain.Metadata
	events []domain.Event
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// SetMetadata replaces the session identity and metadata. Events are left
// untouched.
func (s *Store) SetMetadata(id string, source domain.Source, meta domain.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = id
	s.source = source
	m := meta
	s.meta = &m
}

// SetEvents replaces the event sequence wholesale. The input is copied so
// later mutation by the caller cannot reach the store.
func (s *Store) SetEvents(events []domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = domain.CloneEvents(events)
}

// Reset clears the store back to the uninitialized state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = ""
	s.source = ""
	s.meta = nil
	s.events = nil
}

// Empty reports whether no session is held at all.
func (s *Store) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.meta == nil && s.events == nil
}

// Snapshot returns a copy of the current session. ok is false while the
// store is empty or only partially constructed.
func (s *Store) Snapshot() (*domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.meta == nil || s.events == nil {
		return nil, false
	}

	return &domain.Session{
		ID:       s.id,
		Metadata: *s.meta,
		Events:   domain.CloneEvents(s.events),
		Source:   s.source,
	}, true
}
