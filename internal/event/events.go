// Package event defines the domain events the edit engine publishes:
// session lifecycle and commit outcomes. Subscribers (the log consumer
// and the audit recorder wired in cmd/server) observe them without the
// engine knowing.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DomainEvent carries the canonical shape of every domain event.
type DomainEvent struct {
	ID         string
	EventType  string
	OccurredAt time.Time
	OperatorID string
	RecordID   string
	Summary    string
	Payload    json.RawMessage
}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// SessionStartedPayload carries event-specific data for SessionStarted.
type SessionStartedPayload struct {
	SessionID string `json:"session_id"`
	RecordID  string `json:"record_id"`
}

func NewSessionStarted(operatorID string, p SessionStartedPayload) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  "session_started",
		OccurredAt: time.Now(),
		OperatorID: operatorID,
		RecordID:   p.RecordID,
		Summary:    fmt.Sprintf("Edit session opened on record %s", p.RecordID),
		Payload:    mustJSON(p),
	}
}

// CommitSucceededPayload carries event-specific data for CommitSucceeded.
type CommitSucceededPayload struct {
	SessionID string   `json:"session_id"`
	RecordID  string   `json:"record_id"`
	Fields    []string `json:"fields"`
	Attempts  int      `json:"attempts"`
}

func NewCommitSucceeded(operatorID string, p CommitSucceededPayload) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  "commit_succeeded",
		OccurredAt: time.Now(),
		OperatorID: operatorID,
		RecordID:   p.RecordID,
		Summary:    fmt.Sprintf("Committed %d field(s) to record %s (attempt %d)", len(p.Fields), p.RecordID, p.Attempts),
		Payload:    mustJSON(p),
	}
}

// CommitFailedPayload carries event-specific data for CommitFailed.
type CommitFailedPayload struct {
	SessionID string `json:"session_id"`
	RecordID  string `json:"record_id"`
	Attempt   int    `json:"attempt"`
	Retryable bool   `json:"retryable"`
	Reason    string `json:"reason"`
}

func NewCommitFailed(operatorID string, p CommitFailedPayload) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  "commit_failed",
		OccurredAt: time.Now(),
		OperatorID: operatorID,
		RecordID:   p.RecordID,
		Summary:    fmt.Sprintf("Commit attempt %d on record %s failed: %s", p.Attempt, p.RecordID, p.Reason),
		Payload:    mustJSON(p),
	}
}

// SessionClosedPayload carries event-specific data for SessionClosed.
type SessionClosedPayload struct {
	SessionID string `json:"session_id"`
	RecordID  string `json:"record_id"`
	// Outcome is "committed", "cancelled", or "aborted" (fatal commit).
	Outcome        string `json:"outcome"`
	PendingChanges int    `json:"pending_changes"`
}

func NewSessionClosed(operatorID string, p SessionClosedPayload) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  "session_closed",
		OccurredAt: time.Now(),
		OperatorID: operatorID,
		RecordID:   p.RecordID,
		Summary:    fmt.Sprintf("Edit session on record %s closed (%s)", p.RecordID, p.Outcome),
		Payload:    mustJSON(p),
	}
}
