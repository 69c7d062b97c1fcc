package workflow

import (
	"context"
	"fmt"
	"time"
)

// Machine binds a shared transition table to one entity's current state and
// version. It is reconstructed from the persisted (state, version) pair on
// load and discarded after use; Trigger is the sole state-changing
// operation.
//
// A Machine is not safe for concurrent mutating use. Serialization across
// callers is the store's job: persist (state, version) together and
// compare-and-write on the version read at load time, surfacing
// ErrConcurrentModification on mismatch.
type Machine struct {
	table   *TransitionTable
	current State
	version int64
}

// NewMachine creates a machine positioned at current with the given
// persisted version. Entities entering the workflow start at the
// definition's initial state with version 0.
func (t *TransitionTable) NewMachine(current State, version int64) (*Machine, error) {
	if !t.HasState(current) {
		return nil, &ConfigError{Table: t.name, From: current, Ref: string(current), cause: ErrUnknownStateOrEvent}
	}
	return &Machine{table: t, current: current, version: version}, nil
}

// State returns the current state.
func (m *Machine) State() State {
	return m.current
}

// Version returns the optimistic-concurrency version, incremented on every
// successful trigger.
func (m *Machine) Version() int64 {
	return m.version
}

// Table returns the shared transition table this machine is bound to.
func (m *Machine) Table() *TransitionTable {
	return m.table
}

// CanTrigger reports whether event would be accepted right now: a
// transition exists for (current, event) and its guard, if any, evaluates
// true against tc. Side-effect free; actions are not consulted.
func (m *Machine) CanTrigger(event Event, tc Context) bool {
	tr, ok := m.table.Lookup(m.current, event)
	if !ok {
		return false
	}
	return tr.Guard == nil || tr.Guard(tc)
}

// Trigger advances the machine in response to event. The lookup, guard,
// action, and mutation form one atomic unit: any failure leaves state and
// version untouched, and the action has resolved before the new state is
// observable.
func (m *Machine) Trigger(ctx context.Context, event Event, tc Context) (*AuditRecord, error) {
	tr, ok := m.table.Lookup(m.current, event)
	if !ok {
		return nil, fmt.Errorf("%w: event %s from state %s", ErrInvalidTransition, event, m.current)
	}

	if tr.Guard != nil && !tr.Guard(tc) {
		return nil, fmt.Errorf("%w: event %s from state %s", ErrGuardRejected, event, m.current)
	}

	if tr.Action != nil {
		if err := tr.Action(ctx, tc); err != nil {
			return nil, fmt.Errorf("%w: event %s from state %s: %v", ErrActionFailed, event, m.current, err)
		}
	}

	record := &AuditRecord{
		From:      m.current,
		To:        tr.To,
		Event:     event,
		Timestamp: time.Now(),
	}

	m.current = tr.To
	m.version++

	return record, nil
}

// AvailableEvents returns every event with a registered transition from the
// current state, in table declaration order, independent of guard outcome.
// Callers use this to show an affordance disabled-but-visible.
func (m *Machine) AvailableEvents() []Event {
	transitions := m.table.byState[m.current]
	events := make([]Event, 0, len(transitions))
	for _, tr := range transitions {
		events = append(events, tr.Event)
	}
	return events
}

// AvailableEventsSatisfying returns AvailableEvents further filtered to
// those whose guards pass against tc.
func (m *Machine) AvailableEventsSatisfying(tc Context) []Event {
	transitions := m.table.byState[m.current]
	events := make([]Event, 0, len(transitions))
	for _, tr := range transitions {
		if tr.Guard == nil || tr.Guard(tc) {
			events = append(events, tr.Event)
		}
	}
	return events
}
