package engine

import (
	"rollcall/internal/field"
	"rollcall/internal/session"
	"rollcall/internal/types"
)

// Action is a non-field affordance the presentation layer may render as a
// button in the session's current state.
type Action string

const (
	ActionSave   Action = "save"   // request confirmation
	ActionCommit Action = "commit" // first commit attempt
	ActionRetry  Action = "retry"  // replay a failed commit
	ActionCancel Action = "cancel"
)

// FieldOption is one selectable field in field-selection state.
type FieldOption struct {
	Name  types.FieldName `json:"name"`
	Label string          `json:"label"`
}

// Reply is what every engine operation hands back to the presentation
// layer: the session's new state, the text to display, and exactly the
// affordances that are valid next.
type Reply struct {
	State   session.State  `json:"state"`
	Text    string         `json:"text"`
	Fields  []FieldOption  `json:"fields,omitempty"`  // field-selection state
	Choices []field.Option `json:"choices,omitempty"` // awaiting-choice state
	Actions []Action       `json:"actions,omitempty"`
}

// reply builds the Reply for the session's current state. Affordances are
// derived from state alone so they can never drift from the machine.
func (e *Engine) reply(sess *session.Session, text string) *Reply {
	rep := &Reply{State: sess.State, Text: text}
	switch sess.State {
	case session.StateFieldSelection:
		for _, d := range e.registry.Descriptors() {
			rep.Fields = append(rep.Fields, FieldOption{Name: d.Name, Label: d.Label})
		}
		rep.Actions = []Action{ActionSave, ActionCancel}
	case session.StateAwaitingText:
		rep.Actions = []Action{ActionCancel}
	case session.StateAwaitingChoice:
		if d := e.registry.Get(sess.Selected); d != nil {
			rep.Choices = append(rep.Choices, d.Options...)
		}
		rep.Actions = []Action{ActionCancel}
	case session.StateConfirmation:
		if sess.CommitAttempts > 0 {
			rep.Actions = []Action{ActionRetry, ActionCancel}
		} else {
			rep.Actions = []Action{ActionCommit, ActionCancel}
		}
	}
	return rep
}
