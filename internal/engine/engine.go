// Package engine implements the participant edit session state machine:
// field selection, input collection, validation folding into the diff
// overlay, preview rendering, confirmation, and atomic commit with
// operator-driven retry.
//
// Every operation returns a Reply carrying the new state, display text,
// and the affordances valid in that state. No outcome is silent: a state
// change without displayable text is a bug class this package is built to
// exclude.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rollcall/internal/event"
	"rollcall/internal/eventbus"
	"rollcall/internal/field"
	"rollcall/internal/preview"
	"rollcall/internal/session"
	"rollcall/internal/store"
	"rollcall/internal/types"
)

// Usage errors returned to the transport layer. They indicate a stale or
// out-of-order client, not an operator mistake.
var (
	// ErrNoSession means the operator has no live edit session.
	ErrNoSession = errors.New("engine: no active session")
	// ErrInvalidState means the operation is not valid in the session's
	// current state.
	ErrInvalidState = errors.New("engine: operation not valid in current state")
)

// Engine orchestrates edit sessions against the record store.
type Engine struct {
	registry *field.Registry
	sessions *session.Manager
	store    store.Client
	bus      *eventbus.Bus // optional
	log      *slog.Logger
}

// New creates an engine. bus may be nil when no subscribers are wired.
func New(registry *field.Registry, sessions *session.Manager, st store.Client, bus *eventbus.Bus, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		registry: registry,
		sessions: sessions,
		store:    st,
		bus:      bus,
		log:      log,
	}
}

// StartSession opens an edit session for the operator on the given record,
// replacing any session the operator already had. The base record comes
// from the caller (the lookup component owns how it was found).
func (e *Engine) StartSession(ctx context.Context, operatorID, recordID string, base *types.Record) *Reply {
	sess := e.sessions.Start(operatorID, recordID, base)
	e.log.Info("edit session started",
		"operator_id", operatorID, "record_id", recordID, "session_id", sess.ID)
	e.publish(ctx, event.NewSessionStarted(operatorID, event.SessionStartedPayload{
		SessionID: sess.ID,
		RecordID:  recordID,
	}))

	text := "Редактирование записи участника.\n\n" + e.previewText(sess) + "\n\nВыберите поле для редактирования."
	return e.reply(sess, text)
}

// SelectField moves the session from field selection to the input state
// matching the field's kind.
func (e *Engine) SelectField(operatorID string, name types.FieldName) (*Reply, error) {
	sess := e.sessions.Get(operatorID)
	if sess == nil {
		return nil, ErrNoSession
	}
	if sess.State != session.StateFieldSelection {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, sess.State)
	}
	d := e.registry.Get(name)
	if d == nil {
		return nil, fmt.Errorf("engine: unknown field %q", name)
	}

	sess.Touch()
	sess.Selected = name
	if d.Kind.Choice() {
		sess.State = session.StateAwaitingChoice
		return e.reply(sess, fmt.Sprintf("Выберите новое значение для поля «%s».", d.Label)), nil
	}
	sess.State = session.StateAwaitingText
	return e.reply(sess, e.textPrompt(sess, d)), nil
}

// textPrompt builds the input prompt for a free-text, numeric, or date
// field: current value plus format and clearing hints.
func (e *Engine) textPrompt(sess *session.Session, d *field.Descriptor) string {
	text := fmt.Sprintf("Введите новое значение для поля «%s».\nТекущее значение: %s.",
		d.Label, preview.FieldDisplay(e.registry, d.Name, sess.Base, sess.Overlay))
	switch d.Kind {
	case field.KindBoundedInt:
		text += fmt.Sprintf("\nЦелое число от %d до %d.", d.Min, d.Max)
	case field.KindDate:
		text += "\nФормат: YYYY-MM-DD."
	}
	if d.Clearable {
		text += "\nЧтобы очистить поле, отправьте пустое сообщение."
	}
	return text
}

// SubmitInput validates raw input for the selected field and folds the
// result into the overlay. A rejection keeps the same field selected and
// leaves the overlay untouched.
func (e *Engine) SubmitInput(operatorID, raw string) (*Reply, error) {
	sess := e.sessions.Get(operatorID)
	if sess == nil {
		return nil, ErrNoSession
	}
	if sess.State != session.StateAwaitingText && sess.State != session.StateAwaitingChoice {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, sess.State)
	}

	sess.Touch()
	d := e.registry.Get(sess.Selected)
	res, err := e.registry.Validate(sess.Selected, raw)
	if err != nil {
		// Unknown field or enum token: a presentation-layer bug, not an
		// operator mistake. Surfaced to the transport as an error.
		return nil, err
	}

	switch res.Status {
	case field.StatusRejected:
		sess.Rejections++
		e.log.Debug("input rejected",
			"operator_id", operatorID, "field", sess.Selected, "rejections", sess.Rejections)
		return e.reply(sess, res.Message+"\nПопробуйте ещё раз."), nil

	case field.StatusClear:
		sess.Overlay.Clear(sess.Selected)
		sess.Selected = ""
		sess.State = session.StateFieldSelection
		text := fmt.Sprintf("Поле «%s» будет очищено.\n\n%s", d.Label, e.previewText(sess))
		return e.reply(sess, text), nil

	default: // field.StatusValid
		sess.Overlay.Set(sess.Selected, res.Value)
		sess.Selected = ""
		sess.State = session.StateFieldSelection
		text := fmt.Sprintf("Поле «%s» обновлено.\n\n%s", d.Label, e.previewText(sess))
		return e.reply(sess, text), nil
	}
}

// RequestConfirmation shows the change summary and moves to confirmation.
// With an empty overlay nothing moves: the operator gets a notice and
// stays in field selection.
func (e *Engine) RequestConfirmation(operatorID string) (*Reply, error) {
	sess := e.sessions.Get(operatorID)
	if sess == nil {
		return nil, ErrNoSession
	}
	if sess.State != session.StateFieldSelection {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, sess.State)
	}

	sess.Touch()
	if sess.Overlay.Empty() {
		return e.reply(sess, "Нет изменений — нечего сохранять."), nil
	}

	sess.State = session.StateConfirmation
	return e.reply(sess, "Проверьте изменения:\n\n"+e.summaryText(sess)+"\n\nСохранить?"), nil
}

// Cancel closes the session from any state and discards the overlay.
// Abandoning an edit never partially persists.
func (e *Engine) Cancel(ctx context.Context, operatorID string) (*Reply, error) {
	sess := e.sessions.Get(operatorID)
	if sess == nil {
		return nil, ErrNoSession
	}
	e.close(ctx, sess, "cancelled")
	return e.reply(sess, "Редактирование отменено. Изменения не сохранены."), nil
}

// previewText renders the full record with pending changes applied, or the
// overlay-only reconstruction when the base snapshot is no longer
// available.
func (e *Engine) previewText(sess *session.Session) string {
	if sess.Base == nil {
		return degradedNote + "\n" + preview.Reconstruct(e.registry, sess.Overlay)
	}
	return preview.RenderFull(e.registry, sess.Base, sess.Overlay)
}

// summaryText renders the change summary, degrading to overlay-only
// reconstruction without a base snapshot.
func (e *Engine) summaryText(sess *session.Session) string {
	if sess.Base == nil {
		return degradedNote + "\n" + preview.Reconstruct(e.registry, sess.Overlay)
	}
	return preview.RenderChangeSummary(e.registry, sess.Base, sess.Overlay)
}

const degradedNote = "Исходная карточка недоступна, показаны только изменения:"

// close removes the session and publishes the closed event. The overlay
// dies with the session.
func (e *Engine) close(ctx context.Context, sess *session.Session, outcome string) {
	sess.State = session.StateClosed
	e.sessions.Remove(sess.OperatorID)
	e.log.Info("edit session closed",
		"operator_id", sess.OperatorID, "record_id", sess.RecordID,
		"session_id", sess.ID, "outcome", outcome)
	e.publish(ctx, event.NewSessionClosed(sess.OperatorID, event.SessionClosedPayload{
		SessionID:      sess.ID,
		RecordID:       sess.RecordID,
		Outcome:        outcome,
		PendingChanges: sess.Overlay.Len(),
	}))
}

func (e *Engine) publish(ctx context.Context, evt event.DomainEvent) {
	if e.bus != nil {
		e.bus.Publish(ctx, evt)
	}
}
