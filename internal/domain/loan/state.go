package loan

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("loan not found")
	ErrIllegalTransition = errors.New("illegal loan state transition")
	ErrInvalidState      = errors.New("loan not in a state that allows this operation")
	ErrMissingFields     = errors.New("loan application is missing required fields")
	ErrPendingExists     = errors.New("member already has a pending loan application")
)

type State string

const (
	StateDraft         State = "draft"
	StateSubmitted     State = "submitted"
	StateUnderApproval State = "under_approval"
	StateApproved      State = "approved"
	StateDisbursed     State = "disbursed"
	StateActive        State = "active"
	StatePaid          State = "paid"
	StateDefaulted     State = "defaulted"
	StateWrittenOff    State = "written_off"
	StateRejected      State = "rejected"
)

// Event drives the loan state machine.
type Event string

const (
	EventSubmit   Event = "submit"
	EventReview   Event = "review"
	EventApprove  Event = "approve"
	EventReject   Event = "reject"
	EventDisburse Event = "disburse"
	EventActivate Event = "activate"
	EventSettle   Event = "settle"
	EventDefault  Event = "default"
	EventWriteOff Event = "write_off"
)

// transitions is the only place loan state changes are defined.
var transitions = map[State]map[Event]State{
	StateDraft:         {EventSubmit: StateSubmitted},
	StateSubmitted:     {EventReview: StateUnderApproval, EventApprove: StateApproved, EventReject: StateRejected},
	StateUnderApproval: {EventApprove: StateApproved, EventReject: StateRejected},
	StateApproved:      {EventDisburse: StateDisbursed},
	StateDisbursed:     {EventActivate: StateActive},
	StateActive:        {EventSettle: StatePaid, EventDefault: StateDefaulted},
	StateDefaulted:     {EventWriteOff: StateWrittenOff},
}

// Next returns the state reached from `from` on `ev`.
func Next(from State, ev Event) (State, error) {
	if to, ok := transitions[from][ev]; ok {
		return to, nil
	}
	return from, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, from, ev)
}

func (s State) Terminal() bool {
	switch s {
	case StatePaid, StateWrittenOff, StateRejected:
		return true
	}
	return false
}

// Pending reports whether the application is still awaiting a decision.
func (s State) Pending() bool { return s == StateSubmitted || s == StateUnderApproval }
