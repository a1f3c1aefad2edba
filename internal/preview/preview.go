// Package preview renders operator-facing views of a record with its
// pending changes applied: the full record, the change summary shown at
// confirmation, and the degraded overlay-only reconstruction used when the
// base snapshot is gone.
package preview

import (
	"strings"

	"rollcall/internal/field"
	"rollcall/internal/overlay"
	"rollcall/internal/types"
)

// Display markers. NotSet keeps the field count stable: cleared and
// missing optional values are shown, not omitted.
const (
	NotSet       = "не указано"
	ClearedMark  = "[очищено]"
	ArrowDivider = " → "
)

// RenderFull produces the complete record view as it would look if the
// overlay were committed, one line per registered field in registry order.
func RenderFull(reg *field.Registry, base *types.Record, ov *overlay.Overlay) string {
	var b strings.Builder
	for _, d := range reg.Descriptors() {
		b.WriteString(d.Label)
		b.WriteString(": ")
		b.WriteString(effectiveDisplay(d, base, ov))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderChangeSummary lists only pending changes, one `label: old → new`
// line per overlay entry, in the order fields were edited. The old side is
// always the base record's value, never an intermediate edit.
func RenderChangeSummary(reg *field.Registry, base *types.Record, ov *overlay.Overlay) string {
	var b strings.Builder
	for _, e := range ov.Entries() {
		d := reg.Get(e.Field)
		if d == nil {
			continue
		}
		b.WriteString(d.Label)
		b.WriteString(": ")
		b.WriteString(baseDisplay(d, base))
		b.WriteString(ArrowDivider)
		if e.Op == overlay.OpClear {
			b.WriteString(ClearedMark)
		} else {
			b.WriteString(valueDisplay(d, e.Value))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// Reconstruct builds a best-effort display from the overlay alone, with no
// base record at all. It is the named degraded path for a session whose
// snapshot was lost: the operator still sees every pending change (dates
// in canonical YYYY-MM-DD form) and can still commit.
func Reconstruct(reg *field.Registry, ov *overlay.Overlay) string {
	var b strings.Builder
	for _, e := range ov.Entries() {
		d := reg.Get(e.Field)
		if d == nil {
			continue
		}
		b.WriteString(d.Label)
		b.WriteString(": ")
		if e.Op == overlay.OpClear {
			b.WriteString(ClearedMark)
		} else {
			b.WriteString(valueDisplay(d, e.Value))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// FieldDisplay renders one field's effective value (overlay applied on
// top of the base record) for input prompts.
func FieldDisplay(reg *field.Registry, name types.FieldName, base *types.Record, ov *overlay.Overlay) string {
	d := reg.Get(name)
	if d == nil {
		return NotSet
	}
	return effectiveDisplay(d, base, ov)
}

// effectiveDisplay shows the field as it would be after commit: overlay
// entry if present, base value otherwise.
func effectiveDisplay(d *field.Descriptor, base *types.Record, ov *overlay.Overlay) string {
	if e, ok := ov.Get(d.Name); ok {
		if e.Op == overlay.OpClear {
			return NotSet
		}
		return valueDisplay(d, e.Value)
	}
	return baseDisplay(d, base)
}

// baseDisplay shows the base record's value, or the not-set marker.
func baseDisplay(d *field.Descriptor, base *types.Record) string {
	if base == nil {
		return NotSet
	}
	v, ok := base.Value(d.Name)
	if !ok {
		return NotSet
	}
	return valueDisplay(d, v)
}

// valueDisplay renders a typed value for the operator. Enum tokens render
// as their declared labels.
func valueDisplay(d *field.Descriptor, v types.Value) string {
	if d.Kind == field.KindEnum {
		return d.OptionLabel(v.Text)
	}
	return v.String()
}
