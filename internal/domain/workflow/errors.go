package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownStateOrEvent is returned at build time when a transition
	// references a state or event outside the declared sets.
	ErrUnknownStateOrEvent = errors.New("unknown state or event")

	// ErrDuplicateTransition is returned at build time when two transitions
	// share the same (from, event) pair.
	ErrDuplicateTransition = errors.New("duplicate transition")

	// ErrInvalidTransition is returned when no transition matches the
	// current (state, event) pair.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrGuardRejected is returned when a transition exists but its guard
	// evaluated false. Distinct from ErrInvalidTransition so callers can
	// report "not permitted" rather than "not a valid action here".
	ErrGuardRejected = errors.New("guard rejected transition")

	// ErrActionFailed is returned when a transition's action failed. The
	// machine's state and version are unchanged.
	ErrActionFailed = errors.New("transition action failed")

	// ErrConcurrentModification is returned by stores when a
	// compare-and-write on (state, version) detects a stale version. The
	// caller must reload and retry.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// ConfigError reports an invalid table definition. It names the offending
// transition so misconfiguration is diagnosable at startup, and unwraps to
// ErrUnknownStateOrEvent or ErrDuplicateTransition.
type ConfigError struct {
	Table string
	From  State
	Event Event
	Ref   string // the undeclared state or event name, when applicable
	cause error
}

func (e *ConfigError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("table %q: transition (%s, %s): %v: %q", e.Table, e.From, e.Event, e.cause, e.Ref)
	}
	return fmt.Sprintf("table %q: transition (%s, %s): %v", e.Table, e.From, e.Event, e.cause)
}

func (e *ConfigError) Unwrap() error {
	return e.cause
}
