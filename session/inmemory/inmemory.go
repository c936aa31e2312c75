package inmemory

import (
	"context"
	"sync"
	"time"

	"newsagent/models"
	"newsagent/session"
)

type entry struct {
	messages  []models.Message
	expiresAt time.Time
}

// Store keeps conversations in a TTL-bounded map. Expired entries are swept
// lazily on access.
type Store struct {
	sessions map[string]entry
	ttl      time.Duration
	mu       sync.RWMutex
	now      func() time.Time
}

// NewStore creates an in-memory conversation store with the given TTL.
func NewStore(ttl time.Duration) session.Store {
	return &Store{
		sessions: make(map[string]entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *Store) Get(_ context.Context, id string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	e, ok := s.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	// Callers append to the returned slice; hand out a copy so the stored
	// conversation never shares a backing array with them.
	out := make([]models.Message, len(e.messages))
	copy(out, e.messages)
	return out, nil
}

func (s *Store) Save(_ context.Context, id string, messages []models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.sessions[id] = entry{messages: messages, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *Store) sweepLocked() {
	now := s.now()
	for id, e := range s.sessions {
		if now.After(e.expiresAt) {
			delete(s.sessions, id)
		}
	}
}
