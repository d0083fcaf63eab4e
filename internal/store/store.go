package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/hdnguyen/bandexam/internal/model"
)

// ErrNotFound is returned when a session id does not exist.
var ErrNotFound = errors.New("session not found")

// SessionStore owns session records in memory. It assigns monotonically
// increasing ids and serializes read-modify-write cycles per session while
// letting different sessions proceed independently.
type SessionStore struct {
	mu       sync.RWMutex // guards the map and id counter, never held during fn
	sessions map[int64]*entry
	nextID   int64
}

type entry struct {
	mu   sync.Mutex
	sess *model.Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*entry),
		nextID:   1,
	}
}

// Create allocates the next id and initializes a session at the start of
// the lifecycle. All optional fields begin unset.
func (s *SessionStore) Create(level model.Level) *model.Session {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	sess := &model.Session{
		ID:        id,
		Level:     level,
		Status:    model.StatusInitialized,
		CreatedAt: time.Now(),
	}
	s.sessions[id] = &entry{sess: sess}
	s.mu.Unlock()
	return sess.Clone()
}

// Get returns a copy of the session, or ErrNotFound.
func (s *SessionStore) Get(id int64) (*model.Session, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.Clone(), nil
}

// Apply runs fn against a private copy of the session under the per-id
// lock and commits the result if fn succeeds. The commit refreshes
// UpdatedAt and bumps Version. If fn returns an error nothing is mutated.
// Concurrent Apply calls on the same id are serialized; different ids do
// not contend.
func (s *SessionStore) Apply(id int64, fn func(*model.Session) error) (*model.Session, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	working := e.sess.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	now := time.Now()
	working.UpdatedAt = &now
	working.Version++
	e.sess = working
	return working.Clone(), nil
}

// List returns copies of all sessions ordered by id.
func (s *SessionStore) List() []*model.Session {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]*model.Session, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.sess.Clone())
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Delete removes a session. Returns false if the id does not exist.
func (s *SessionStore) Delete(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

func (s *SessionStore) entry(id int64) (*entry, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}
