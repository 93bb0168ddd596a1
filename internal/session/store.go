package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

// Store holds sessions in memory with a TTL measured from last
// access. Expired entries are swept on every lookup.
// Data is lost on service restart - for persistence, use a distributed cache.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

type entry struct {
	sess Session
	gate *sync.Mutex
}

// New creates a session store with the given TTL.
func New(ttl time.Duration) *Store {
	return NewWithClock(ttl, time.Now)
}

// NewWithClock creates a store with an explicit clock, for tests.
func NewWithClock(ttl time.Duration, now func() time.Time) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      now,
	}
}

// Create stores a new session with the given history and returns its
// id. The message count starts at zero.
func (s *Store) Create(kind Kind, history []*genai.Content) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	now := s.now()

	s.sessions[id] = &entry{
		sess: Session{
			ID:           id,
			Kind:         kind,
			History:      append([]*genai.Content(nil), history...),
			CreatedAt:    now,
			LastAccessed: now,
		},
		gate: &sync.Mutex{},
	}

	return id
}

// Get returns a session and refreshes its last access time. Expired
// sessions are swept first and report absent.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()

	e, exists := s.sessions[id]
	if !exists {
		return Session{}, false
	}

	e.sess.LastAccessed = s.now()

	// Return a copy so callers cannot grow the stored history in place
	sess := e.sess
	sess.History = append([]*genai.Content(nil), e.sess.History...)

	return sess, true
}

// Append adds turns to a session's history. History only ever grows;
// a session that should start over is deleted and recreated.
func (s *Store) Append(id string, turns ...*genai.Content) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.sessions[id]
	if !exists {
		return
	}

	e.sess.History = append(e.sess.History, turns...)
	e.sess.LastAccessed = s.now()
}

// TouchIncrement bumps a session's message count and refreshes its
// last access time. Missing sessions are a no-op.
func (s *Store) TouchIncrement(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.sessions[id]
	if !exists {
		return
	}

	e.sess.MessageCount++
	e.sess.LastAccessed = s.now()
}

// Delete removes a session, reporting whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.sessions[id]
	if exists {
		delete(s.sessions, id)
	}

	return exists
}

// Count returns the number of live sessions after sweeping expired ones.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()

	return len(s.sessions)
}

// InfoFor returns the client-facing view of a session. Like Get, it
// refreshes the last access time.
func (s *Store) InfoFor(id string) (Info, bool) {
	sess, ok := s.Get(id)
	if !ok {
		return Info{}, false
	}

	return Info{
		SessionID:    sess.ID,
		AgentType:    string(sess.Kind),
		CreatedAt:    sess.CreatedAt.Format(time.RFC3339),
		LastAccessed: sess.LastAccessed.Format(time.RFC3339),
		MessageCount: sess.MessageCount,
	}, true
}

// Acquire locks a session for a multi-step exchange so two requests
// on the same conversation cannot interleave their read and append.
// The returned release must be called. Reports false when the session
// does not exist, in which case there is nothing to serialize.
func (s *Store) Acquire(id string) (release func(), ok bool) {
	s.mu.Lock()

	s.sweepLocked()

	e, exists := s.sessions[id]
	if !exists {
		s.mu.Unlock()
		return nil, false
	}

	gate := e.gate
	s.mu.Unlock()

	gate.Lock()

	return gate.Unlock, true
}

// sweepLocked removes all expired sessions. Callers hold s.mu.
func (s *Store) sweepLocked() {
	now := s.now()

	for id, e := range s.sessions {
		if now.Sub(e.sess.LastAccessed) >= s.ttl {
			delete(s.sessions, id)
		}
	}
}
