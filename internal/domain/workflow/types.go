package workflow

import (
	"context"
	"time"
)

// State is a named condition an entity occupies. The set of legal states
// is declared per table at build time; State values outside the declared
// set are rejected during Build.
type State string

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// Event is a named stimulus that may cause a state change.
type Event string

// String returns the string representation of the event.
func (e Event) String() string {
	return string(e)
}

// GuardFunc decides whether a matched transition is currently permitted.
// Guards must be pure: no side effects, no mutation of the supplied context.
// A missing or malformed context key reads as a zero value, so guards fail
// closed rather than open.
type GuardFunc func(tc Context) bool

// ActionFunc is the effectful step run once a transition is permitted,
// before the state advances. A non-nil error aborts the trigger with the
// state unchanged.
type ActionFunc func(ctx context.Context, tc Context) error

// Transition maps a (from, event) pair to a destination state, optionally
// gated by a guard and followed by an action.
type Transition struct {
	From   State
	To     State
	Event  Event
	Guard  GuardFunc
	Action ActionFunc
}

// AuditRecord describes one successfully completed transition. Ownership is
// handed to the caller; the engine retains no history.
type AuditRecord struct {
	From      State     `json:"from"`
	To        State     `json:"to"`
	Event     Event     `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}
