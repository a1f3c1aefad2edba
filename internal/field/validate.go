package field

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"rollcall/internal/types"
)

// Status discriminates validation outcomes.
type Status int

const (
	// StatusValid means a typed value was produced.
	StatusValid Status = iota
	// StatusClear means the operator asked to clear an optional field.
	StatusClear
	// StatusRejected means the input was refused; Message explains why.
	StatusRejected
)

// Result is the outcome of validating one raw input against one field.
type Result struct {
	Status  Status
	Value   types.Value // meaningful only for StatusValid
	Message string      // user-facing reason, only for StatusRejected
}

func valid(v types.Value) Result { return Result{Status: StatusValid, Value: v} }
func clear() Result              { return Result{Status: StatusClear} }
func rejected(msg string) Result { return Result{Status: StatusRejected, Message: msg} }

// Validate turns raw operator input into a typed value, a clear request,
// or a rejection for the named field. A returned error means a programming
// fault (unknown field, or an enum token the presentation layer should
// never have offered), not an operator mistake.
func (r *Registry) Validate(name types.FieldName, raw string) (Result, error) {
	d := r.Get(name)
	if d == nil {
		return Result{}, fmt.Errorf("field: unknown field %q", name)
	}

	trimmed := strings.TrimSpace(raw)

	switch d.Kind {
	case KindEnum:
		if !d.hasOption(trimmed) {
			return Result{}, fmt.Errorf("field: unknown option %q for field %q", trimmed, name)
		}
		return valid(types.TextValue(trimmed)), nil

	case KindRequiredText:
		if trimmed == "" {
			return rejected(fmt.Sprintf("Поле «%s» обязательное, оно не может быть пустым.", d.Label)), nil
		}
		return valid(types.TextValue(trimmed)), nil

	case KindOptionalText:
		if trimmed == "" {
			return clear(), nil
		}
		return valid(types.TextValue(trimmed)), nil

	case KindBoundedInt:
		if trimmed == "" {
			if d.Clearable {
				return clear(), nil
			}
			return rejected(fmt.Sprintf("Поле «%s» не может быть пустым.", d.Label)), nil
		}
		n, err := strconv.Atoi(trimmed)
		if err != nil || n < d.Min || n > d.Max {
			return rejected(fmt.Sprintf("«%s» должно быть целым числом от %d до %d.", d.Label, d.Min, d.Max)), nil
		}
		return valid(types.IntValue(n)), nil

	case KindDate:
		if trimmed == "" {
			if d.Clearable {
				return clear(), nil
			}
			return rejected(fmt.Sprintf("Поле «%s» не может быть пустым.", d.Label)), nil
		}
		t, err := time.Parse(types.DateLayout, trimmed)
		if err != nil {
			return rejected("Дата должна быть в формате YYYY-MM-DD, например 1997-10-14."), nil
		}
		return valid(types.DateValue(t)), nil

	default:
		return Result{}, fmt.Errorf("field: unhandled kind %d for field %q", d.Kind, name)
	}
}
