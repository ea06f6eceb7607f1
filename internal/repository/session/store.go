// Package session keeps a bounded window of recent chat turns per session id.
// State lives in process memory and is lost on restart.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// DefaultWindowSize is the number of turns kept when none is configured.
const DefaultWindowSize = 5

// window is the per-session state. mu serializes whole chat exchanges;
// turns is guarded by the store's map lock.
type window struct {
	mu    sync.Mutex
	turns []domain.Turn
}

// Store is a concurrency-safe map of session windows.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*window
	size     int
	now      func() time.Time
}

// NewStore creates a store keeping the last size turns per session.
func NewStore(size int) *Store {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Store{
		sessions: make(map[string]*window),
		size:     size,
		now:      time.Now,
	}
}

// WindowSize returns the per-session turn capacity.
func (s *Store) WindowSize() int { return s.size }

func (s *Store) getOrCreate(id string) *window {
	w, ok := s.sessions[id]
	if !ok {
		w = &window{}
		s.sessions[id] = w
	}
	return w
}

// Lock acquires the exclusive lock of session id and returns its release func.
// Callers hold it across read-history, generate, append so that turns of one
// session are applied one exchange at a time.
func (s *Store) Lock(id string) (unlock func()) {
	s.mu.Lock()
	w := s.getOrCreate(id)
	s.mu.Unlock()

	w.mu.Lock()
	return w.mu.Unlock
}

// Get returns a copy of the session's turns, oldest first, creating an empty session if needed.
func (s *Store) Get(id string) []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.getOrCreate(id)
	out := make([]domain.Turn, len(w.turns))
	copy(out, w.turns)
	return out
}

// Lookup is like Get but reports domain.ErrSessionNotFound for unknown ids.
func (s *Store) Lookup(id string) ([]domain.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := make([]domain.Turn, len(w.turns))
	copy(out, w.turns)
	return out, nil
}

// Append records a turn, evicting the oldest turns beyond the window size.
func (s *Store) Append(id, user, assistant string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.getOrCreate(id)
	w.turns = append(w.turns, domain.Turn{User: user, Assistant: assistant, At: s.now()})
	if over := len(w.turns) - s.size; over > 0 {
		w.turns = append(w.turns[:0:0], w.turns[over:]...)
	}
}

// Clear empties the session's window and keeps its id. It waits for an
// exchange holding the session lock to finish, so a cleared session never
// receives that exchange's turn. It reports whether the session existed.
func (s *Store) Clear(id string) bool {
	s.mu.Lock()
	w, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	s.mu.Lock()
	w.turns = nil
	s.mu.Unlock()
	return true
}

// List returns all session ids in lexical order.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
