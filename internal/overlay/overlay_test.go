package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/types"
)

func TestOverlay_SetAndClear(t *testing.T) {
	ov := New()
	assert.True(t, ov.Empty())

	ov.Set(types.FieldAge, types.IntValue(28))
	ov.Clear(types.FieldChurch)

	assert.Equal(t, 2, ov.Len())

	e, ok := ov.Get(types.FieldAge)
	require.True(t, ok)
	assert.Equal(t, OpSet, e.Op)
	assert.Equal(t, types.IntValue(28), e.Value)

	e, ok = ov.Get(types.FieldChurch)
	require.True(t, ok)
	assert.Equal(t, OpClear, e.Op)

	_, ok = ov.Get(types.FieldCity)
	assert.False(t, ok)
}

func TestOverlay_LastWriteWins(t *testing.T) {
	ov := New()
	ov.Set(types.FieldAge, types.IntValue(28))
	ov.Set(types.FieldCity, types.TextValue("Казань"))
	ov.Set(types.FieldAge, types.IntValue(29))

	require.Equal(t, 2, ov.Len(), "re-editing a field must not add an entry")

	entries := ov.Entries()
	assert.Equal(t, types.FieldAge, entries[0].Field, "re-edit keeps the first-edit position")
	assert.Equal(t, types.IntValue(29), entries[0].Value)
	assert.Equal(t, types.FieldCity, entries[1].Field)
}

func TestOverlay_SetThenClearSameField(t *testing.T) {
	ov := New()
	ov.Set(types.FieldChurch, types.TextValue("St. Mark"))
	ov.Clear(types.FieldChurch)

	require.Equal(t, 1, ov.Len())
	e, _ := ov.Get(types.FieldChurch)
	assert.Equal(t, OpClear, e.Op)
}

func TestOverlay_EntriesAreACopy(t *testing.T) {
	ov := New()
	ov.Set(types.FieldAge, types.IntValue(28))

	entries := ov.Entries()
	entries[0].Value = types.IntValue(99)

	e, _ := ov.Get(types.FieldAge)
	assert.Equal(t, types.IntValue(28), e.Value)
}

func TestOverlay_Changes(t *testing.T) {
	ov := New()
	ov.Set(types.FieldAge, types.IntValue(28))
	ov.Clear(types.FieldChurch)

	changes := ov.Changes()
	require.Len(t, changes, 2)
	assert.Equal(t, types.Change{Value: types.IntValue(28)}, changes[types.FieldAge])
	assert.Equal(t, types.Change{Cleared: true}, changes[types.FieldChurch])
}
