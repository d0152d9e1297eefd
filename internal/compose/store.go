package compose

import (
	"sync"

	"hospup-backend/internal/timeline"
)

// SessionStore keeps composition sessions in memory. Sessions are working
// state, not records: they live for the editing flow and vanish on restart,
// while submitted render jobs carry their own immutable payload snapshot.
type SessionStore struct {
	mu   sync.RWMutex
	byID map[string]*timeline.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{byID: make(map[string]*timeline.Session)}
}

func (s *SessionStore) Put(session *timeline.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[session.ID] = session
}

func (s *SessionStore) Get(sessionID string) (*timeline.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.byID[sessionID]
	return session, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, sessionID)
}
