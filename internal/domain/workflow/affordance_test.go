package workflow

import "testing"

func taskLabels(e Event) string {
	switch e {
	case eventAssign:
		return "Assign executor"
	case eventAccept:
		return "Accept task"
	case eventReject:
		return "Reject task"
	case eventComplete:
		return "Mark completed"
	case eventCancel:
		return "Cancel task"
	}
	return ""
}

func TestExportAffordances(t *testing.T) {
	m := newMachineAt(t, stateAwaiting, 1)

	got := ExportAffordances(m, Context{"acting_user": "u1", "executor": "u1"}, taskLabels)
	want := []Affordance{
		{Event: eventAccept, Label: "Accept task"},
		{Event: eventReject, Label: "Reject task"},
		{Event: eventCancel, Label: "Cancel task"},
	}
	if len(got) != len(want) {
		t.Fatalf("ExportAffordances() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ExportAffordances()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExportAffordances_FiltersByGuard(t *testing.T) {
	m := newMachineAt(t, stateAwaiting, 1)

	got := ExportAffordances(m, Context{"acting_user": "u2", "executor": "u1"}, taskLabels)
	if len(got) != 2 {
		t.Fatalf("ExportAffordances() returned %d affordances, want 2", len(got))
	}
	for _, a := range got {
		if a.Event == eventAccept {
			t.Error("ACCEPT exported for a non-executor")
		}
	}
}

func TestExportAffordances_FallsBackToEventName(t *testing.T) {
	m := newMachineAt(t, stateDraft, 0)

	got := ExportAffordances(m, nil, nil)
	if len(got) != 1 {
		t.Fatalf("ExportAffordances() returned %d affordances, want 1", len(got))
	}
	if got[0].Label != "ASSIGN" {
		t.Errorf("label = %q, want event name fallback %q", got[0].Label, "ASSIGN")
	}
}

func TestExportAffordances_TerminalStateIsEmpty(t *testing.T) {
	m := newMachineAt(t, stateCompleted, 3)

	if got := ExportAffordances(m, nil, taskLabels); len(got) != 0 {
		t.Errorf("ExportAffordances() from COMPLETED = %v, want empty", got)
	}
}
