package eventbus

import (
	"context"
	"log/slog"

	"rollcall/internal/event"
)

// LogConsumer logs all domain events for observability.
type LogConsumer struct {
	log *slog.Logger
}

func NewLogConsumer(log *slog.Logger) *LogConsumer {
	if log == nil {
		log = slog.Default()
	}
	return &LogConsumer{log: log}
}

func (c *LogConsumer) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	c.log.Info("domain event",
		"event_type", evt.EventType,
		"operator_id", evt.OperatorID,
		"record_id", evt.RecordID,
		"summary", evt.Summary)
	return nil
}
