package workflow

// transitionKey identifies a transition by its (from, event) pair. The
// table holds at most one transition per key, which is what makes lookup
// deterministic.
type transitionKey struct {
	from  State
	event Event
}

// TransitionTable is the full, validated set of transitions for one
// workflow definition. It is immutable after Build and may be shared,
// without locking, across any number of machines and goroutines.
type TransitionTable struct {
	name    string
	states  map[State]struct{}
	events  map[Event]struct{}
	index   map[transitionKey]*Transition
	byState map[State][]*Transition // declaration order preserved
}

// Name returns the workflow definition name the table was built under.
func (t *TransitionTable) Name() string {
	return t.name
}

// HasState reports whether s belongs to the declared state set.
func (t *TransitionTable) HasState(s State) bool {
	_, ok := t.states[s]
	return ok
}

// HasEvent reports whether e belongs to the declared event set.
func (t *TransitionTable) HasEvent(e Event) bool {
	_, ok := t.events[e]
	return ok
}

// Lookup returns the transition registered for (from, event), if any.
func (t *TransitionTable) Lookup(from State, event Event) (*Transition, bool) {
	tr, ok := t.index[transitionKey{from: from, event: event}]
	return tr, ok
}

// TransitionsFrom returns the transitions leaving from, in declaration
// order. The returned slice is a copy and may be retained by the caller.
func (t *TransitionTable) TransitionsFrom(from State) []*Transition {
	src := t.byState[from]
	out := make([]*Transition, len(src))
	copy(out, src)
	return out
}

// IsTerminal reports whether s has no outgoing transitions. Terminal
// states are not declared specially; this is a direct consequence of no
// table entry matching them.
func (t *TransitionTable) IsTerminal(s State) bool {
	return len(t.byState[s]) == 0
}
