// Package dialog models confirmation dialogs as an explicit state machine,
// independent of how the dialog is presented.
package dialog

import (
	"context"
	"errors"
	"fmt"
)

// State of a dialog
type State string

const (
	StateClosed     State = "closed"
	StateOpen       State = "open"
	StateConfirming State = "confirming"
)

// Event drives a transition
type Event string

const (
	EventOpen    Event = "open"
	EventEdit    Event = "edit"
	EventSubmit  Event = "submit"
	EventConfirm Event = "confirm"
	EventCancel  Event = "cancel"
)

var ErrInvalidTransition = errors.New("invalid dialog transition")

// TransitionError reports an event that is not allowed in the current state
type TransitionError struct {
	From  State
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s while %s", ErrInvalidTransition, e.Event, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Pending is the action a dialog asks the user to confirm
type Pending struct {
	Kind   string
	Target string
	Prompt string
	Run    func(ctx context.Context) error
}

// Machine is a single dialog. Transitions:
//
//	Closed     --Open-->    Open(form)
//	Open       --Edit-->    Open(form')
//	Open       --Submit-->  Confirming(pending)
//	Confirming --Confirm--> Closed (pending handed to the caller)
//	Open|Confirming --Cancel--> Closed
//
// A Machine is not safe for concurrent use.
type Machine struct {
	state   State
	form    map[string]string
	pending *Pending
}

func New() *Machine {
	return &Machine{state: StateClosed}
}

func (m *Machine) State() State {
	return m.state
}

// Form returns a copy of the form fields
func (m *Machine) Form() map[string]string {
	out := make(map[string]string, len(m.form))
	for k, v := range m.form {
		out[k] = v
	}
	return out
}

// Pending returns the action awaiting confirmation, or nil
func (m *Machine) Pending() *Pending {
	return m.pending
}

func (m *Machine) Open(form map[string]string) error {
	if m.state != StateClosed {
		return &TransitionError{From: m.state, Event: EventOpen}
	}
	m.state = StateOpen
	m.form = make(map[string]string, len(form))
	for k, v := range form {
		m.form[k] = v
	}
	return nil
}

func (m *Machine) Edit(field, value string) error {
	if m.state != StateOpen {
		return &TransitionError{From: m.state, Event: EventEdit}
	}
	m.form[field] = value
	return nil
}

func (m *Machine) Submit(p Pending) error {
	if m.state != StateOpen {
		return &TransitionError{From: m.state, Event: EventSubmit}
	}
	if p.Run == nil {
		return errors.New("pending action has no Run function")
	}
	m.state = StateConfirming
	m.pending = &p
	return nil
}

// Confirm closes the dialog and returns the action to execute
func (m *Machine) Confirm() (Pending, error) {
	if m.state != StateConfirming {
		return Pending{}, &TransitionError{From: m.state, Event: EventConfirm}
	}
	p := *m.pending
	m.reset()
	return p, nil
}

func (m *Machine) Cancel() error {
	if m.state == StateClosed {
		return &TransitionError{From: m.state, Event: EventCancel}
	}
	m.reset()
	return nil
}

func (m *Machine) reset() {
	m.state = StateClosed
	m.form = nil
	m.pending = nil
}
