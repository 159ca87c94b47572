package loan

import (
	"errors"
	"testing"
)

func TestNext_TransitionTable(t *testing.T) {
	tests := []struct {
		from State
		ev   Event
		want State
	}{
		{StateDraft, EventSubmit, StateSubmitted},
		{StateSubmitted, EventReview, StateUnderApproval},
		{StateSubmitted, EventApprove, StateApproved},
		{StateUnderApproval, EventApprove, StateApproved},
		{StateSubmitted, EventReject, StateRejected},
		{StateUnderApproval, EventReject, StateRejected},
		{StateApproved, EventDisburse, StateDisbursed},
		{StateDisbursed, EventActivate, StateActive},
		{StateActive, EventSettle, StatePaid},
		{StateActive, EventDefault, StateDefaulted},
		{StateDefaulted, EventWriteOff, StateWrittenOff},
	}
	for _, tt := range tests {
		got, err := Next(tt.from, tt.ev)
		if err != nil {
			t.Fatalf("%s --%s--> unexpected err: %v", tt.from, tt.ev, err)
		}
		if got != tt.want {
			t.Fatalf("%s --%s--> %s, want %s", tt.from, tt.ev, got, tt.want)
		}
	}
}

func TestNext_RejectsEverythingElse(t *testing.T) {
	illegal := []struct {
		from State
		ev   Event
	}{
		{StateDraft, EventApprove},
		{StateDraft, EventDisburse},
		{StateSubmitted, EventDisburse},
		{StateApproved, EventReject},
		{StateApproved, EventSubmit},
		{StateActive, EventApprove},
		{StatePaid, EventSettle},
		{StatePaid, EventDefault},
		{StateRejected, EventApprove},
		{StateWrittenOff, EventSettle},
		{StateDefaulted, EventSettle},
		{StateUnderApproval, EventReview},
	}
	for _, tt := range illegal {
		got, err := Next(tt.from, tt.ev)
		if !errors.Is(err, ErrIllegalTransition) {
			t.Fatalf("%s --%s--> want ErrIllegalTransition, got %v", tt.from, tt.ev, err)
		}
		if got != tt.from {
			t.Fatalf("state changed on illegal transition: %s -> %s", tt.from, got)
		}
	}
}

func TestState_Flags(t *testing.T) {
	for _, s := range []State{StatePaid, StateWrittenOff, StateRejected} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	if StateActive.Terminal() || StateDefaulted.Terminal() {
		t.Fatal("active/defaulted are not terminal")
	}
	if !StateSubmitted.Pending() || !StateUnderApproval.Pending() || StateApproved.Pending() {
		t.Fatal("pending flag mismatch")
	}
}
