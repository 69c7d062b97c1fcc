package workflow

// Affordance is an (event, label) pair the presentation layer may render as
// an actionable control.
type Affordance struct {
	Event Event  `json:"event"`
	Label string `json:"label"`
}

// LabelFunc maps an event to its display label. Localization is the
// caller's concern.
type LabelFunc func(Event) string

// ExportAffordances derives the currently offerable controls for m under
// tc, built from AvailableEventsSatisfying. Ordering follows transition
// declaration order in the table, so affordance order is stable across
// calls. A nil labelFor, or an empty label, falls back to the event name.
func ExportAffordances(m *Machine, tc Context, labelFor LabelFunc) []Affordance {
	events := m.AvailableEventsSatisfying(tc)
	out := make([]Affordance, 0, len(events))
	for _, e := range events {
		label := string(e)
		if labelFor != nil {
			if l := labelFor(e); l != "" {
				label = l
			}
		}
		out = append(out, Affordance{Event: e, Label: label})
	}
	return out
}
