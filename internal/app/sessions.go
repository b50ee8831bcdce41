package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"breakout-desk/models"
	"breakout-desk/observability"
	"breakout-desk/services"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionLimit    = errors.New("session limit reached")
)

// Session is one user's orchestrator behind the HTTP API
type Session struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	Orchestrator *Orchestrator
}

// SessionRegistry keeps the live sessions in memory. Nothing is persisted.
type SessionRegistry struct {
	gateway  services.StrategyGateway
	defaults models.FormParameters
	max      int

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewSessionRegistry creates a registry whose sessions start from defaults
func NewSessionRegistry(gateway services.StrategyGateway, defaults models.FormParameters, max int) *SessionRegistry {
	return &SessionRegistry{
		gateway:  gateway,
		defaults: defaults,
		max:      max,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create starts a new session in the Idle state
func (r *SessionRegistry) Create() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.max > 0 && len(r.sessions) >= r.max {
		return nil, ErrSessionLimit
	}

	s := &Session{
		ID:           uuid.New(),
		CreatedAt:    time.Now(),
		Orchestrator: NewOrchestrator(r.gateway, r.defaults),
	}
	r.sessions[s.ID] = s
	observability.GetMetrics().SetActiveSessions(len(r.sessions))
	observability.WithSession(s.ID.String()).Info("session created")

	return s, nil
}

// Get returns the session with the given id
func (r *SessionRegistry) Get(id string) (*Session, error) {
	parsed, err := ParseUUID(id)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[parsed]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete ends a session. Requests still in flight complete into the
// discarded orchestrator.
func (r *SessionRegistry) Delete(id string) error {
	parsed, err := ParseUUID(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[parsed]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, parsed)
	observability.GetMetrics().SetActiveSessions(len(r.sessions))
	observability.WithSession(id).Info("session ended")

	return nil
}

// Count returns the number of live sessions
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ParseUUID parses a session id
func ParseUUID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid UUID: %w", err)
	}
	return parsed, nil
}
