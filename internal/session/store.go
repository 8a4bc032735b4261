// Package session provides the in-memory, TTL-expiring registry of analysis
// sessions shared by all request handlers.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ifc-analysis/backend/internal/models"
)

// DefaultTTL is how long a session lives after creation.
const DefaultTTL = time.Hour

// entry pairs a session with its own lock so that field merges on one
// session never contend with reads or writes on another. The registry lock
// only guards the map itself.
type entry struct {
	mu      sync.Mutex
	session *models.Session
}

// Store is a concurrent session registry. Expired sessions are removed by a
// periodic sweep (see StartSweeper) and, lazily, when the expired session
// itself is requested.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
}

// NewStore creates a session store with the given TTL. A non-positive TTL
// falls back to DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
	}
}

// Create registers a new empty session and returns its id.
func (s *Store) Create() string {
	id := uuid.New().String()

	s.mu.Lock()
	s.sessions[id] = &entry{session: models.NewSession(id)}
	s.mu.Unlock()

	log.Debug().Str("session", id).Msg("session created")
	return id
}

// Get returns a snapshot of the session. The snapshot's pointer fields
// (model index, report) are shared with the live session; callers treat them
// as read-only. Requesting an expired session deletes it and reports not
// found.
func (s *Store) Get(id string) (models.Session, bool) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return models.Session{}, false
	}

	e.mu.Lock()
	snapshot := *e.session
	e.mu.Unlock()

	if time.Since(snapshot.CreatedAt) > s.ttl {
		s.Delete(id)
		return models.Session{}, false
	}
	return snapshot, true
}

// Update applies fn to the session under its entry lock. fn must not block
// on other store operations. Returns false if the session does not exist.
func (s *Store) Update(id string, fn func(*models.Session)) bool {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	fn(e.session)
	e.mu.Unlock()
	return true
}

// Delete removes a session. Returns true if it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// Len returns the number of live entries, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// sweep removes every session past the TTL and returns how many were removed.
func (s *Store) sweep() int {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.sessions {
		e.mu.Lock()
		createdAt := e.session.CreatedAt
		e.mu.Unlock()
		if createdAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs periodic expiry sweeps until ctx is cancelled, so expiry
// cost is never paid on the read path of unrelated sessions.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.sweep(); n > 0 {
					log.Info().Int("removed", n).Msg("swept expired sessions")
				}
			}
		}
	}()
}
