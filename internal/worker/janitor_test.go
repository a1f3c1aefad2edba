package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/session"
)

func TestJanitor_EvictsIdleSessions(t *testing.T) {
	mgr := session.NewManager(time.Hour, 10*time.Millisecond)
	mgr.Start("op-1", "rec-1", nil)
	mgr.Start("op-2", "rec-2", nil)

	j := NewJanitor(mgr, 5*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return mgr.Len() == 0
	}, time.Second, 5*time.Millisecond, "idle sessions are swept")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop on context cancel")
	}
}

func TestNewJanitor_IntervalFallback(t *testing.T) {
	j := NewJanitor(session.NewManager(time.Hour, time.Hour), 0, nil)
	assert.Equal(t, 5*time.Minute, j.interval)
}
