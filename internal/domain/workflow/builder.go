package workflow

// TableBuilder accumulates a workflow definition: the closed state and
// event sets plus the transitions between them. Validation is deferred to
// Build so a misconfigured definition surfaces as a single ConfigError at
// startup instead of a panic mid-registration.
type TableBuilder struct {
	name        string
	states      map[State]struct{}
	events      map[Event]struct{}
	transitions []Transition
}

// NewBuilder creates a builder for a named workflow definition.
func NewBuilder(name string) *TableBuilder {
	return &TableBuilder{
		name:   name,
		states: make(map[State]struct{}),
		events: make(map[Event]struct{}),
	}
}

// States declares the legal state set. May be called multiple times;
// declarations accumulate.
func (b *TableBuilder) States(states ...State) *TableBuilder {
	for _, s := range states {
		b.states[s] = struct{}{}
	}
	return b
}

// Events declares the legal event set.
func (b *TableBuilder) Events(events ...Event) *TableBuilder {
	for _, e := range events {
		b.events[e] = struct{}{}
	}
	return b
}

// Configure returns a configuration scope for transitions leaving from.
func (b *TableBuilder) Configure(from State) *StateConfiguration {
	return &StateConfiguration{builder: b, from: from}
}

// StateConfiguration configures the transitions leaving a single state.
type StateConfiguration struct {
	builder *TableBuilder
	from    State
}

// Permit registers an unconditional transition to the target state.
func (c *StateConfiguration) Permit(event Event, to State) *StateConfiguration {
	return c.PermitDo(event, to, nil, nil)
}

// PermitIf registers a transition allowed only when guard evaluates true.
func (c *StateConfiguration) PermitIf(event Event, to State, guard GuardFunc) *StateConfiguration {
	return c.PermitDo(event, to, guard, nil)
}

// PermitDo registers a transition with an optional guard and an action run
// after the guard passes, before the state advances. Either may be nil.
func (c *StateConfiguration) PermitDo(event Event, to State, guard GuardFunc, action ActionFunc) *StateConfiguration {
	c.builder.transitions = append(c.builder.transitions, Transition{
		From:   c.from,
		To:     to,
		Event:  event,
		Guard:  guard,
		Action: action,
	})
	return c
}

// Build validates the accumulated definition and returns an immutable
// table. Every transition endpoint must belong to the declared state set,
// every event to the declared event set, and no two transitions may share a
// (from, event) pair.
func (b *TableBuilder) Build() (*TransitionTable, error) {
	index := make(map[transitionKey]*Transition, len(b.transitions))
	byState := make(map[State][]*Transition)

	for i := range b.transitions {
		tr := b.transitions[i]

		if _, ok := b.states[tr.From]; !ok {
			return nil, &ConfigError{Table: b.name, From: tr.From, Event: tr.Event, Ref: string(tr.From), cause: ErrUnknownStateOrEvent}
		}
		if _, ok := b.states[tr.To]; !ok {
			return nil, &ConfigError{Table: b.name, From: tr.From, Event: tr.Event, Ref: string(tr.To), cause: ErrUnknownStateOrEvent}
		}
		if _, ok := b.events[tr.Event]; !ok {
			return nil, &ConfigError{Table: b.name, From: tr.From, Event: tr.Event, Ref: string(tr.Event), cause: ErrUnknownStateOrEvent}
		}

		key := transitionKey{from: tr.From, event: tr.Event}
		if _, exists := index[key]; exists {
			return nil, &ConfigError{Table: b.name, From: tr.From, Event: tr.Event, cause: ErrDuplicateTransition}
		}

		// Copy into the table so later builder reuse cannot alias table state.
		stored := new(Transition)
		*stored = tr
		index[key] = stored
		byState[tr.From] = append(byState[tr.From], stored)
	}

	states := make(map[State]struct{}, len(b.states))
	for s := range b.states {
		states[s] = struct{}{}
	}
	events := make(map[Event]struct{}, len(b.events))
	for e := range b.events {
		events[e] = struct{}{}
	}

	return &TransitionTable{
		name:    b.name,
		states:  states,
		events:  events,
		index:   index,
		byState: byState,
	}, nil
}
