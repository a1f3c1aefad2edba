// Package types holds the shared domain types for participant records:
// field names, typed field values, pending changes, and the record snapshot
// that an edit session works against.
package types

import (
	"strconv"
	"time"
)

// FieldName identifies one editable participant attribute.
type FieldName string

// The fifteen editable participant fields.
const (
	FieldFirstName     FieldName = "first_name"
	FieldLastName      FieldName = "last_name"
	FieldGender        FieldName = "gender"
	FieldBirthDate     FieldName = "birth_date"
	FieldAge           FieldName = "age"
	FieldRole          FieldName = "role"
	FieldDepartment    FieldName = "department"
	FieldSize          FieldName = "size"
	FieldChurch        FieldName = "church"
	FieldCity          FieldName = "city"
	FieldContact       FieldName = "contact"
	FieldSubmittedBy   FieldName = "submitted_by"
	FieldPaymentStatus FieldName = "payment_status"
	FieldPaymentAmount FieldName = "payment_amount"
	FieldPaymentDate   FieldName = "payment_date"
)

// DateLayout is the canonical wire and display format for calendar dates.
const DateLayout = "2006-01-02"

// ValueKind discriminates the payload of a Value.
type ValueKind int

const (
	KindText ValueKind = iota // free text or an enum token
	KindInt
	KindDate
)

// Value is a typed field value. Exactly one payload field is meaningful,
// selected by Kind. Absence of a field is modeled by map absence in Record,
// never by a sentinel Value.
type Value struct {
	Kind ValueKind
	Text string
	Int  int
	Date time.Time // date-only, UTC midnight
}

// TextValue wraps a trimmed text or enum token.
func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// IntValue wraps an integer.
func IntValue(n int) Value {
	return Value{Kind: KindInt, Int: n}
}

// DateValue wraps a calendar date, normalized to UTC midnight.
func DateValue(t time.Time) Value {
	return Value{Kind: KindDate, Date: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// String renders the value in its canonical display form. Dates always
// render as YYYY-MM-DD regardless of how they were entered.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.Itoa(v.Int)
	case KindDate:
		return v.Date.Format(DateLayout)
	default:
		return v.Text
	}
}

// Equal reports whether two values are the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.Int == o.Int
	case KindDate:
		return v.Date.Equal(o.Date)
	default:
		return v.Text == o.Text
	}
}

// Change is one pending mutation as submitted to the record store:
// either a new value or an explicit clear.
type Change struct {
	Cleared bool
	Value   Value // zero when Cleared
}

// Record is the last-known persisted snapshot of a participant. It is
// immutable once loaded into a session: edits accumulate in the session's
// overlay, never here. Absent map keys mean the field is not set.
type Record struct {
	ID     string
	Values map[FieldName]Value
}

// NewRecord creates an empty record with the given store-assigned id.
func NewRecord(id string) *Record {
	return &Record{ID: id, Values: make(map[FieldName]Value)}
}

// Value returns the stored value for a field and whether it is set.
func (r *Record) Value(name FieldName) (Value, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := NewRecord(r.ID)
	for k, v := range r.Values {
		c.Values[k] = v
	}
	return c
}
