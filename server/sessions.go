package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chazu/intcode/vm"
)

// Session is one machine owned by the service. Machines are single-threaded;
// the session mutex serializes handler access to each one independently.
type Session struct {
	ID string

	mu       sync.Mutex
	machine  *vm.Machine
	lastUsed time.Time
}

// WithMachine runs fn while holding the session's machine exclusively.
func (s *Session) WithMachine(fn func(*vm.Machine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	fn(s.machine)
}

// SessionStore manages machine sessions.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates a new session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

// Create creates a session owning a fresh machine loaded with program.
func (s *SessionStore) Create(program []vm.Value) *Session {
	session := &Session{
		ID:       uuid.New().String(),
		machine:  vm.NewMachine(program),
		lastUsed: time.Now(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	return session, ok
}

// Destroy removes a session. Dropping the machine is all the cleanup there
// is.
func (s *SessionStore) Destroy(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than ttl. Session locks are never
// taken while the store lock is held: a session whose machine is mid-run
// would otherwise stall the whole store behind it. A busy session is not
// idle, so TryLock failing just means it survives this pass.
func (s *SessionStore) Sweep(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	s.mu.RLock()
	candidates := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		candidates = append(candidates, session)
	}
	s.mu.RUnlock()

	swept := 0
	for _, session := range candidates {
		if !session.mu.TryLock() {
			continue
		}
		idle := session.lastUsed.Before(cutoff)
		session.mu.Unlock()
		if !idle {
			continue
		}
		s.mu.Lock()
		delete(s.sessions, session.ID)
		s.mu.Unlock()
		swept++
	}
	return swept
}

// StartSweeper runs periodic TTL sweeps in the background.
// Returns a stop function.
func (s *SessionStore) StartSweeper(interval, ttl time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				s.Sweep(ttl)
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}
