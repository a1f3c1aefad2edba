package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/field"
	"rollcall/internal/session"
	"rollcall/internal/store"
	"rollcall/internal/types"
)

// fakeStore records update calls and fails them with scripted errors.
type fakeStore struct {
	updates    []fakeUpdate
	updateErrs []error // popped per call; empty queue means success
}

type fakeUpdate struct {
	id      string
	changes map[types.FieldName]types.Change
}

func (f *fakeStore) Fetch(context.Context, string) (*types.Record, error) {
	return nil, store.ErrNotFound
}

func (f *fakeStore) Update(_ context.Context, id string, changes map[types.FieldName]types.Change) error {
	copied := make(map[types.FieldName]types.Change, len(changes))
	for k, v := range changes {
		copied[k] = v
	}
	f.updates = append(f.updates, fakeUpdate{id: id, changes: copied})
	if len(f.updateErrs) == 0 {
		return nil
	}
	err := f.updateErrs[0]
	f.updateErrs = f.updateErrs[1:]
	return err
}

func testEngine(st store.Client) *Engine {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(field.Default(), session.NewManager(time.Hour, time.Hour), st, nil, log)
}

func baseRecord() *types.Record {
	rec := types.NewRecord("rec-1")
	rec.Values[types.FieldFirstName] = types.TextValue("Анна")
	rec.Values[types.FieldChurch] = types.TextValue("St. Mark")
	return rec
}

const op = "op-1"

func TestStartSession(t *testing.T) {
	e := testEngine(&fakeStore{})
	rep := e.StartSession(context.Background(), op, "rec-1", baseRecord())

	assert.Equal(t, session.StateFieldSelection, rep.State)
	assert.Len(t, rep.Fields, 15)
	assert.Equal(t, []Action{ActionSave, ActionCancel}, rep.Actions)
	assert.Contains(t, rep.Text, "Имя: Анна")
}

func TestSelectField_TextAndChoice(t *testing.T) {
	e := testEngine(&fakeStore{})
	e.StartSession(context.Background(), op, "rec-1", baseRecord())

	rep, err := e.SelectField(op, types.FieldAge)
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingText, rep.State)
	assert.Contains(t, rep.Text, "Возраст")
	assert.Contains(t, rep.Text, "от 0 до 120")
	assert.Empty(t, rep.Choices)

	// Cancel back to selection and pick an enum field.
	_, err = e.Cancel(context.Background(), op)
	require.NoError(t, err)
	e.StartSession(context.Background(), op, "rec-1", baseRecord())

	rep, err = e.SelectField(op, types.FieldRole)
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingChoice, rep.State)
	require.Len(t, rep.Choices, 3)
	assert.Equal(t, "participant", rep.Choices[0].Token)
}

func TestSelectField_Guards(t *testing.T) {
	e := testEngine(&fakeStore{})

	_, err := e.SelectField(op, types.FieldAge)
	assert.ErrorIs(t, err, ErrNoSession)

	e.StartSession(context.Background(), op, "rec-1", baseRecord())
	_, err = e.SelectField(op, "no_such_field")
	assert.Error(t, err)

	_, err = e.SelectField(op, types.FieldAge)
	require.NoError(t, err)
	_, err = e.SelectField(op, types.FieldCity)
	assert.ErrorIs(t, err, ErrInvalidState, "selection is only valid from the hub state")
}

func TestSubmitInput_FoldsIntoOverlay(t *testing.T) {
	e := testEngine(&fakeStore{})
	e.StartSession(context.Background(), op, "rec-1", baseRecord())

	_, err := e.SelectField(op, types.FieldAge)
	require.NoError(t, err)
	rep, err := e.SubmitInput(op, "28")
	require.NoError(t, err)
	assert.Equal(t, session.StateFieldSelection, rep.State)
	assert.Contains(t, rep.Text, "Поле «Возраст» обновлено")
	assert.Contains(t, rep.Text, "Возраст: 28", "preview renders after each edit")

	// Whitespace clears an optional field.
	_, err = e.SelectField(op, types.FieldChurch)
	require.NoError(t, err)
	rep, err = e.SubmitInput(op, "   ")
	require.NoError(t, err)
	assert.Contains(t, rep.Text, "Поле «Церковь» будет очищено")
	assert.Contains(t, rep.Text, "Церковь: не указано")
}

func TestSubmitInput_RejectionKeepsFieldAndOverlay(t *testing.T) {
	e := testEngine(&fakeStore{})
	e.StartSession(context.Background(), op, "rec-1", baseRecord())

	_, err := e.SelectField(op, types.FieldAge)
	require.NoError(t, err)
	rep, err := e.SubmitInput(op, "150")
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingText, rep.State, "rejection keeps the same field selected")
	assert.Contains(t, rep.Text, "от 0 до 120")

	sess := e.sessions.Get(op)
	require.NotNil(t, sess)
	assert.True(t, sess.Overlay.Empty(), "a rejection never touches the overlay")
	assert.Equal(t, 1, sess.Rejections)

	// The operator can still correct the input in place.
	rep, err = e.SubmitInput(op, "28")
	require.NoError(t, err)
	assert.Equal(t, session.StateFieldSelection, rep.State)
}

func TestSubmitInput_MalformedDate(t *testing.T) {
	e := testEngine(&fakeStore{})
	e.StartSession(context.Background(), op, "rec-1", baseRecord())

	_, err := e.SelectField(op, types.FieldBirthDate)
	require.NoError(t, err)
	rep, err := e.SubmitInput(op, "1997/10/14")
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingText, rep.State)
	assert.Contains(t, rep.Text, "YYYY-MM-DD")

	sess := e.sessions.Get(op)
	assert.True(t, sess.Overlay.Empty())
}

func TestSubmitInput_ChoiceToken(t *testing.T) {
	e := testEngine(&fakeStore{})
	e.StartSession(context.Background(), op, "rec-1", baseRecord())

	_, err := e.SelectField(op, types.FieldRole)
	require.NoError(t, err)
	rep, err := e.SubmitInput(op, "volunteer")
	require.NoError(t, err)
	assert.Equal(t, session.StateFieldSelection, rep.State)
	assert.Contains(t, rep.Text, "Роль: Волонтёр")
}

func TestRequestConfirmation_EmptyOverlayNoOp(t *testing.T) {
	e := testEngine(&fakeStore{})
	e.StartSession(context.Background(), op, "rec-1", baseRecord())

	rep, err := e.RequestConfirmation(op)
	require.NoError(t, err)
	assert.Equal(t, session.StateFieldSelection, rep.State, "nothing to save keeps the hub state")
	assert.Contains(t, rep.Text, "нечего сохранять")
}

func TestEditFlow_CommitSuccess(t *testing.T) {
	st := &fakeStore{}
	e := testEngine(st)
	e.StartSession(context.Background(), op, "rec-1", baseRecord())

	_, err := e.SelectField(op, types.FieldAge)
	require.NoError(t, err)
	_, err = e.SubmitInput(op, "28")
	require.NoError(t, err)
	_, err = e.SelectField(op, types.FieldChurch)
	require.NoError(t, err)
	_, err = e.SubmitInput(op, "  ")
	require.NoError(t, err)

	rep, err := e.RequestConfirmation(op)
	require.NoError(t, err)
	assert.Equal(t, session.StateConfirmation, rep.State)
	assert.Contains(t, rep.Text, "Возраст: не указано → 28")
	assert.Contains(t, rep.Text, "Церковь: St. Mark → [очищено]")
	assert.Equal(t, []Action{ActionCommit, ActionCancel}, rep.Actions)

	rep, err = e.Commit(context.Background(), op)
	require.NoError(t, err)
	assert.Equal(t, session.StateClosed, rep.State)
	assert.Contains(t, rep.Text, "сохранены")
	assert.Nil(t, e.sessions.Get(op), "session is gone after a successful commit")

	require.Len(t, st.updates, 1)
	assert.Equal(t, "rec-1", st.updates[0].id)
	assert.Equal(t, map[types.FieldName]types.Change{
		types.FieldAge:    {Value: types.IntValue(28)},
		types.FieldChurch: {Cleared: true},
	}, st.updates[0].changes)
}

func TestCommit_RetryableThenSuccess(t *testing.T) {
	st := &fakeStore{updateErrs: []error{store.ErrUnavailable, store.ErrRateLimited}}
	e := testEngine(st)
	e.StartSession(context.Background(), op, "rec-1", baseRecord())

	_, err := e.SelectField(op, types.FieldAge)
	require.NoError(t, err)
	_, err = e.SubmitInput(op, "28")
	require.NoError(t, err)
	_, err = e.RequestConfirmation(op)
	require.NoError(t, err)

	// First attempt: transient failure, overlay preserved, retry offered.
	rep, err := e.Commit(context.Background(), op)
	require.NoError(t, err)
	assert.Equal(t, session.StateConfirmation, rep.State)
	assert.Equal(t, []Action{ActionRetry, ActionCancel}, rep.Actions)

	sess := e.sessions.Get(op)
	require.NotNil(t, sess)
	assert.Equal(t, 1, sess.Overlay.Len(), "failed commit leaves the overlay untouched")

	// Second attempt fails too; third succeeds.
	rep, err = e.RetryCommit(context.Background(), op)
	require.NoError(t, err)
	assert.Equal(t, session.StateConfirmation, rep.State)

	rep, err = e.RetryCommit(context.Background(), op)
	require.NoError(t, err)
	assert.Equal(t, session.StateClosed, rep.State)

	// Every attempt carried the identical change-set from the first one.
	require.Len(t, st.updates, 3)
	for _, u := range st.updates {
		assert.Equal(t, st.updates[0].changes, u.changes)
	}
}

func TestCommit_FatalClosesWithoutRetry(t *testing.T) {
	st := &fakeStore{updateErrs: []error{store.ErrNotFound}}
	e := testEngine(st)
	e.StartSession(context.Background(), op, "rec-1", baseRecord())

	_, err := e.SelectField(op, types.FieldAge)
	require.NoError(t, err)
	_, err = e.SubmitInput(op, "28")
	require.NoError(t, err)
	_, err = e.RequestConfirmation(op)
	require.NoError(t, err)

	rep, err := e.Commit(context.Background(), op)
	require.NoError(t, err)
	assert.Equal(t, session.StateClosed, rep.State)
	assert.NotContains(t, rep.Actions, ActionRetry, "fatal failures never offer retry")
	assert.Contains(t, rep.Text, "не существует")
	assert.Nil(t, e.sessions.Get(op))

	// A retry after a fatal close has no session to act on.
	_, err = e.RetryCommit(context.Background(), op)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRetryCommit_RequiresFailedAttempt(t *testing.T) {
	e := testEngine(&fakeStore{})
	e.StartSession(context.Background(), op, "rec-1", baseRecord())

	_, err := e.SelectField(op, types.FieldAge)
	require.NoError(t, err)
	_, err = e.SubmitInput(op, "28")
	require.NoError(t, err)
	_, err = e.RequestConfirmation(op)
	require.NoError(t, err)

	_, err = e.RetryCommit(context.Background(), op)
	assert.ErrorIs(t, err, ErrInvalidState, "retry is only offered after a failed commit")
}

func TestCancel_DiscardsOverlay(t *testing.T) {
	st := &fakeStore{}
	e := testEngine(st)
	e.StartSession(context.Background(), op, "rec-1", baseRecord())

	_, err := e.SelectField(op, types.FieldAge)
	require.NoError(t, err)
	_, err = e.SubmitInput(op, "28")
	require.NoError(t, err)

	rep, err := e.Cancel(context.Background(), op)
	require.NoError(t, err)
	assert.Equal(t, session.StateClosed, rep.State)
	assert.Empty(t, st.updates, "cancel never writes anything")

	// A restarted session for the same record starts clean.
	rep = e.StartSession(context.Background(), op, "rec-1", baseRecord())
	sess := e.sessions.Get(op)
	require.NotNil(t, sess)
	assert.True(t, sess.Overlay.Empty())
}

func TestCancel_FromConfirmation(t *testing.T) {
	st := &fakeStore{updateErrs: []error{store.ErrUnavailable}}
	e := testEngine(st)
	e.StartSession(context.Background(), op, "rec-1", baseRecord())

	_, err := e.SelectField(op, types.FieldAge)
	require.NoError(t, err)
	_, err = e.SubmitInput(op, "28")
	require.NoError(t, err)
	_, err = e.RequestConfirmation(op)
	require.NoError(t, err)
	_, err = e.Commit(context.Background(), op)
	require.NoError(t, err)

	rep, err := e.Cancel(context.Background(), op)
	require.NoError(t, err)
	assert.Equal(t, session.StateClosed, rep.State)
	assert.Len(t, st.updates, 1, "cancel after a failed commit writes nothing more")
}

func TestDegraded_BaseSnapshotLost(t *testing.T) {
	st := &fakeStore{}
	e := testEngine(st)
	e.StartSession(context.Background(), op, "rec-1", baseRecord())

	_, err := e.SelectField(op, types.FieldAge)
	require.NoError(t, err)
	_, err = e.SubmitInput(op, "28")
	require.NoError(t, err)

	// Simulate partial session-state loss: the base snapshot is gone but
	// the overlay survives.
	sess := e.sessions.Get(op)
	require.NotNil(t, sess)
	sess.Base = nil

	rep, err := e.RequestConfirmation(op)
	require.NoError(t, err)
	assert.Equal(t, session.StateConfirmation, rep.State)
	assert.Contains(t, rep.Text, "Исходная карточка недоступна")
	assert.Contains(t, rep.Text, "Возраст: 28", "pending values still display without the base record")

	// Commit still works: it needs only the record id and the overlay.
	rep, err = e.Commit(context.Background(), op)
	require.NoError(t, err)
	assert.Equal(t, session.StateClosed, rep.State)
	require.Len(t, st.updates, 1)
	assert.Equal(t, "rec-1", st.updates[0].id)
}

func TestOperationGuards_NoSession(t *testing.T) {
	e := testEngine(&fakeStore{})

	_, err := e.SubmitInput(op, "x")
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = e.RequestConfirmation(op)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = e.Commit(context.Background(), op)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = e.Cancel(context.Background(), op)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCommit_OnlyFromConfirmation(t *testing.T) {
	e := testEngine(&fakeStore{})
	e.StartSession(context.Background(), op, "rec-1", baseRecord())

	_, err := e.Commit(context.Background(), op)
	assert.ErrorIs(t, err, ErrInvalidState)
}
