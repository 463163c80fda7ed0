package web

import (
	"sort"
	"sync"

	"github.com/KaramelBytes/edascope/internal/session"
	"github.com/google/uuid"
)

// Store keeps live sessions by id. When full, adding a session evicts the
// oldest one.
type Store struct {
	mu       sync.RWMutex
	max      int
	sessions map[uuid.UUID]*session.Session
}

// NewStore returns a store holding at most max sessions.
func NewStore(max int) *Store {
	if max < 1 {
		max = 1
	}
	return &Store{max: max, sessions: make(map[uuid.UUID]*session.Session)}
}

// Add stores s and returns the id of the evicted session, if any.
func (st *Store) Add(s *session.Session) (uuid.UUID, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	var evicted uuid.UUID
	var ok bool
	if len(st.sessions) >= st.max {
		for id, cur := range st.sessions {
			if !ok || cur.Created.Before(st.sessions[evicted].Created) {
				evicted, ok = id, true
			}
		}
		delete(st.sessions, evicted)
	}
	st.sessions[s.ID] = s
	return evicted, ok
}

// Get returns the session with the given id.
func (st *Store) Get(id uuid.UUID) (*session.Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete removes a session and reports whether it existed.
func (st *Store) Delete(id uuid.UUID) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

// List returns the live sessions, oldest first.
func (st *Store) List() []*session.Session {
	st.mu.RLock()
	out := make([]*session.Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	st.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
