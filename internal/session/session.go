// Package session manages edit-session lifecycle: one in-progress record
// edit per operator, with idle and max-age eviction.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/overlay"
	"rollcall/internal/types"
)

// State is the edit-session state machine position.
type State string

const (
	// StateFieldSelection is the initial and recurring hub state.
	StateFieldSelection State = "field_selection"
	// StateAwaitingText means a free-text field is selected and the
	// session waits for raw input.
	StateAwaitingText State = "awaiting_text"
	// StateAwaitingChoice means an enum field is selected and the session
	// waits for a choice token.
	StateAwaitingChoice State = "awaiting_choice"
	// StateConfirmation means the operator reviewed the change summary and
	// may commit, retry a failed commit, or cancel.
	StateConfirmation State = "confirmation"
	// StateClosed is terminal.
	StateClosed State = "closed"
)

// Session holds the full mutable state of one operator's in-progress edit
// of one record. A session handles one operator turn at a time; it is
// only ever touched by the goroutine serving that operator's turn.
type Session struct {
	ID         string
	OperatorID string
	RecordID   string

	// Base is the snapshot loaded at session start. It may be nil if the
	// snapshot was lost mid-session; the engine then degrades to
	// overlay-only display, and commit still works: it needs only the
	// record id and the overlay.
	Base *types.Record

	Overlay  *overlay.Overlay
	State    State
	Selected types.FieldName // set iff State is an awaiting state

	// Rejections counts validation rejections, for observability only.
	Rejections int
	// CommitAttempts counts commit tries, successful or not.
	CommitAttempts int

	CreatedAt    time.Time
	LastActiveAt time.Time
}

// New creates a session in field selection with an empty overlay.
func New(operatorID, recordID string, base *types.Record) *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.New().String(),
		OperatorID:   operatorID,
		RecordID:     recordID,
		Base:         base,
		Overlay:      overlay.New(),
		State:        StateFieldSelection,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// Touch updates the last activity timestamp.
func (s *Session) Touch() {
	s.LastActiveAt = time.Now()
}

// IsExpired returns true if the session has exceeded the given max age.
func (s *Session) IsExpired(maxAge time.Duration) bool {
	return time.Since(s.CreatedAt) > maxAge
}

// IsIdle returns true if the session has been idle longer than the timeout.
func (s *Session) IsIdle(timeout time.Duration) bool {
	return time.Since(s.LastActiveAt) > timeout
}

// Manager handles session creation, lookup, and eviction, keyed by
// operator id: one active edit per operator.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxAge      time.Duration
	idleTimeout time.Duration
}

// NewManager creates a session manager with the given timeouts.
func NewManager(maxAge, idleTimeout time.Duration) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		maxAge:      maxAge,
		idleTimeout: idleTimeout,
	}
}

// Start creates a session for the operator, replacing any existing one.
// The replaced session's overlay is discarded, never persisted.
func (m *Manager) Start(operatorID, recordID string, base *types.Record) *Session {
	s := New(operatorID, recordID, base)
	m.mu.Lock()
	m.sessions[operatorID] = s
	m.mu.Unlock()
	return s
}

// Get retrieves the operator's session. Returns nil if there is none or it
// timed out; a timed-out session is removed on the spot, which is the
// ordinary CLOSED transition for the external watchdog case.
func (m *Manager) Get(operatorID string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[operatorID]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if s.IsExpired(m.maxAge) || s.IsIdle(m.idleTimeout) {
		m.Remove(operatorID)
		return nil
	}
	return s
}

// Remove deletes the operator's session.
func (m *Manager) Remove(operatorID string) {
	m.mu.Lock()
	delete(m.sessions, operatorID)
	m.mu.Unlock()
}

// Cleanup removes all expired and idle sessions and returns how many were
// evicted. Called periodically by the janitor.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, s := range m.sessions {
		if s.IsExpired(m.maxAge) || s.IsIdle(m.idleTimeout) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
