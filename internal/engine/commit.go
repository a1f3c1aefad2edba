package engine

import (
	"context"
	"errors"
	"fmt"

	"rollcall/internal/event"
	"rollcall/internal/session"
	"rollcall/internal/store"
)

// Commit writes the overlay to the record store in one call. Only valid in
// confirmation. On a retryable failure the session stays in confirmation
// with the overlay untouched; on a fatal failure the session closes.
func (e *Engine) Commit(ctx context.Context, operatorID string) (*Reply, error) {
	sess := e.sessions.Get(operatorID)
	if sess == nil {
		return nil, ErrNoSession
	}
	if sess.State != session.StateConfirmation {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, sess.State)
	}
	return e.commit(ctx, sess), nil
}

// RetryCommit replays the commit with the same overlay. Only offered after
// a failed attempt; no input is re-collected or re-validated.
func (e *Engine) RetryCommit(ctx context.Context, operatorID string) (*Reply, error) {
	sess := e.sessions.Get(operatorID)
	if sess == nil {
		return nil, ErrNoSession
	}
	if sess.State != session.StateConfirmation || sess.CommitAttempts == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, sess.State)
	}
	return e.commit(ctx, sess), nil
}

func (e *Engine) commit(ctx context.Context, sess *session.Session) *Reply {
	sess.Touch()
	sess.CommitAttempts++

	// The commit needs only the record id and the overlay, so it works even
	// when the base snapshot is gone.
	changes := sess.Overlay.Changes()
	err := e.store.Update(ctx, sess.RecordID, changes)
	if err == nil {
		fields := make([]string, 0, len(changes))
		for _, entry := range sess.Overlay.Entries() {
			fields = append(fields, string(entry.Field))
		}
		e.log.Info("commit succeeded",
			"operator_id", sess.OperatorID, "record_id", sess.RecordID,
			"fields", len(fields), "attempt", sess.CommitAttempts)
		e.publish(ctx, event.NewCommitSucceeded(sess.OperatorID, event.CommitSucceededPayload{
			SessionID: sess.ID,
			RecordID:  sess.RecordID,
			Fields:    fields,
			Attempts:  sess.CommitAttempts,
		}))
		e.close(ctx, sess, "committed")
		return e.reply(sess, "Готово! Изменения сохранены.")
	}

	retryable := isRetryable(err)
	e.log.Warn("commit failed",
		"operator_id", sess.OperatorID, "record_id", sess.RecordID,
		"attempt", sess.CommitAttempts, "retryable", retryable, "error", err)
	e.publish(ctx, event.NewCommitFailed(sess.OperatorID, event.CommitFailedPayload{
		SessionID: sess.ID,
		RecordID:  sess.RecordID,
		Attempt:   sess.CommitAttempts,
		Retryable: retryable,
		Reason:    err.Error(),
	}))

	if retryable {
		// Overlay untouched; the operator decides whether to try again.
		return e.reply(sess, "Не удалось сохранить: "+failureText(err)+"\nПопробуйте ещё раз или отмените редактирование.")
	}

	// Fatal: retrying the same overlay cannot succeed. Surface the reason
	// and close without offering retry.
	e.close(ctx, sess, "aborted")
	return e.reply(sess, "Сохранить не удалось: "+failureText(err)+"\nСессия закрыта, изменения не сохранены.")
}

// isRetryable classifies a store failure. Rate limiting and transient
// unavailability are retryable; a missing record or a schema rejection is
// fatal for this overlay. Unknown failures count as retryable: the write
// is all-or-nothing, so replaying an intact overlay is always safe.
func isRetryable(err error) bool {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrSchemaRejected) {
		return false
	}
	return true
}

// failureText translates a store failure into the operator-facing reason.
func failureText(err error) string {
	switch {
	case errors.Is(err, store.ErrRateLimited):
		return "хранилище временно ограничивает запросы."
	case errors.Is(err, store.ErrNotFound):
		return "запись больше не существует в хранилище."
	case errors.Is(err, store.ErrSchemaRejected):
		return "хранилище отклонило одно из новых значений."
	case errors.Is(err, store.ErrUnavailable):
		return "хранилище временно недоступно."
	default:
		return "временная ошибка хранилища."
	}
}
