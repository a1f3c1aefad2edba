package preview

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/field"
	"rollcall/internal/overlay"
	"rollcall/internal/types"
)

func baseRecord() *types.Record {
	rec := types.NewRecord("rec-1")
	rec.Values[types.FieldFirstName] = types.TextValue("Анна")
	rec.Values[types.FieldChurch] = types.TextValue("St. Mark")
	rec.Values[types.FieldRole] = types.TextValue("participant")
	return rec
}

func TestRenderFull_StableFieldCount(t *testing.T) {
	reg := field.Default()
	out := RenderFull(reg, baseRecord(), overlay.New())

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 15, "every registered field renders, set or not")
	assert.Contains(t, out, "Имя: Анна")
	assert.Contains(t, out, "Церковь: St. Mark")
	assert.Contains(t, out, "Возраст: "+NotSet)
	assert.Contains(t, out, "Роль: Участник", "enum tokens render as labels")
}

func TestRenderFull_OverlayWins(t *testing.T) {
	reg := field.Default()
	ov := overlay.New()
	ov.Set(types.FieldAge, types.IntValue(28))
	ov.Clear(types.FieldChurch)

	out := RenderFull(reg, baseRecord(), ov)
	assert.Contains(t, out, "Возраст: 28")
	assert.Contains(t, out, "Церковь: "+NotSet, "cleared fields show the not-set marker")
}

func TestRenderChangeSummary_Scenario(t *testing.T) {
	// Base has age unset and church "St. Mark"; the operator sets age to
	// 28 and clears church.
	reg := field.Default()
	ov := overlay.New()
	ov.Set(types.FieldAge, types.IntValue(28))
	ov.Clear(types.FieldChurch)

	out := RenderChangeSummary(reg, baseRecord(), ov)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Возраст: не указано → 28", lines[0])
	assert.Equal(t, "Церковь: St. Mark → [очищено]", lines[1])
}

func TestRenderChangeSummary_EditOrderAndOriginalOld(t *testing.T) {
	reg := field.Default()
	ov := overlay.New()
	ov.Set(types.FieldChurch, types.TextValue("St. Luke"))
	ov.Set(types.FieldAge, types.IntValue(27))
	// Re-edit: summary must show one entry with the base value as "old".
	ov.Set(types.FieldChurch, types.TextValue("St. John"))

	out := RenderChangeSummary(reg, baseRecord(), ov)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Церковь: St. Mark → St. John", lines[0])
	assert.Equal(t, "Возраст: не указано → 27", lines[1])
}

func TestRenderChangeSummary_DateCanonicalForm(t *testing.T) {
	reg := field.Default()
	ov := overlay.New()
	ov.Set(types.FieldBirthDate, types.DateValue(time.Date(1997, 10, 14, 0, 0, 0, 0, time.UTC)))

	out := RenderChangeSummary(reg, baseRecord(), ov)
	assert.Equal(t, "Дата рождения: не указано → 1997-10-14", out)
}

func TestReconstruct_NoBaseRecordNeeded(t *testing.T) {
	reg := field.Default()
	ov := overlay.New()
	ov.Set(types.FieldAge, types.IntValue(28))
	ov.Set(types.FieldBirthDate, types.DateValue(time.Date(1997, 10, 14, 0, 0, 0, 0, time.UTC)))
	ov.Clear(types.FieldChurch)

	out := Reconstruct(reg, ov)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Возраст: 28", lines[0])
	assert.Equal(t, "Дата рождения: 1997-10-14", lines[1])
	assert.Equal(t, "Церковь: [очищено]", lines[2])
}

func TestFieldDisplay(t *testing.T) {
	reg := field.Default()
	ov := overlay.New()

	assert.Equal(t, "St. Mark", FieldDisplay(reg, types.FieldChurch, baseRecord(), ov))
	assert.Equal(t, NotSet, FieldDisplay(reg, types.FieldAge, baseRecord(), ov))

	ov.Set(types.FieldAge, types.IntValue(30))
	assert.Equal(t, "30", FieldDisplay(reg, types.FieldAge, baseRecord(), ov))

	assert.Equal(t, NotSet, FieldDisplay(reg, types.FieldChurch, nil, ov), "nil base degrades to not-set")
}
