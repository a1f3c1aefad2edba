// Package worker contains background workers that maintain session state.
package worker

import (
	"context"
	"log/slog"
	"time"

	"rollcall/internal/session"
)

// Janitor periodically evicts idle and expired edit sessions. Eviction is
// the ordinary closed transition: the overlay is discarded, never
// persisted.
type Janitor struct {
	sessions *session.Manager
	interval time.Duration
	log      *slog.Logger
}

// NewJanitor creates a janitor. A non-positive interval falls back to five
// minutes.
func NewJanitor(sessions *session.Manager, interval time.Duration, log *slog.Logger) *Janitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Janitor{sessions: sessions, interval: interval, log: log}
}

// Run sweeps until the context is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := j.sessions.Cleanup(); n > 0 {
				j.log.Info("evicted idle sessions", "count", n)
			}
		}
	}
}
