// Package overlay implements the per-session diff overlay: the ordered set
// of pending field changes an operator has accumulated but not yet
// committed. The overlay is the only thing an edit session ever mutates;
// the base record stays untouched until commit.
package overlay

import (
	"rollcall/internal/types"
)

// Op discriminates a pending change.
type Op int

const (
	// OpSet replaces the field with a new value.
	OpSet Op = iota
	// OpClear removes the field's value.
	OpClear
)

// Entry is one pending change.
type Entry struct {
	Field types.FieldName
	Op    Op
	Value types.Value // meaningful only for OpSet
}

// Overlay holds pending changes in the order fields were first edited.
// Re-editing a field replaces its value in place (last write wins) without
// moving it, so the change summary keeps the operator's edit sequence.
// At most one entry exists per field.
//
// Overlay is not safe for concurrent use; a session handles one operator
// turn at a time.
type Overlay struct {
	entries []Entry
	index   map[types.FieldName]int
}

// New creates an empty overlay.
func New() *Overlay {
	return &Overlay{index: make(map[types.FieldName]int)}
}

// Set records a pending new value for a field.
func (o *Overlay) Set(name types.FieldName, v types.Value) {
	o.put(Entry{Field: name, Op: OpSet, Value: v})
}

// Clear records a pending removal of a field's value.
func (o *Overlay) Clear(name types.FieldName) {
	o.put(Entry{Field: name, Op: OpClear})
}

func (o *Overlay) put(e Entry) {
	if i, ok := o.index[e.Field]; ok {
		o.entries[i] = e
		return
	}
	o.index[e.Field] = len(o.entries)
	o.entries = append(o.entries, e)
}

// Get returns the pending entry for a field, if any.
func (o *Overlay) Get(name types.FieldName) (Entry, bool) {
	i, ok := o.index[name]
	if !ok {
		return Entry{}, false
	}
	return o.entries[i], true
}

// Entries returns a copy of all pending changes in first-edit order.
func (o *Overlay) Entries() []Entry {
	out := make([]Entry, len(o.entries))
	copy(out, o.entries)
	return out
}

// Len returns the number of pending changes.
func (o *Overlay) Len() int {
	return len(o.entries)
}

// Empty reports whether there is nothing to commit.
func (o *Overlay) Empty() bool {
	return len(o.entries) == 0
}

// Changes snapshots the overlay in the record store's update
// representation. The commit engine consumes this map in a single call.
func (o *Overlay) Changes() map[types.FieldName]types.Change {
	out := make(map[types.FieldName]types.Change, len(o.entries))
	for _, e := range o.entries {
		if e.Op == OpClear {
			out[e.Field] = types.Change{Cleared: true}
		} else {
			out[e.Field] = types.Change{Value: e.Value}
		}
	}
	return out
}
