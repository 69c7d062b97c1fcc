package workflow

import (
	"context"
	"fmt"

	"github.com/kevinzhao/taskflow/internal/application/port"
	domainwf "github.com/kevinzhao/taskflow/internal/domain/workflow"
	"go.uber.org/zap"
)

// Task lifecycle states.
const (
	StateDraft     domainwf.State = "DRAFT"
	StateAwaiting  domainwf.State = "AWAITING"
	StateAccepted  domainwf.State = "ACCEPTED"
	StateRejected  domainwf.State = "REJECTED"
	StateCancelled domainwf.State = "CANCELLED"
	StateCompleted domainwf.State = "COMPLETED"
)

// Task lifecycle events.
const (
	EventAssign   domainwf.Event = "ASSIGN"
	EventAccept   domainwf.Event = "ACCEPT"
	EventReject   domainwf.Event = "REJECT"
	EventComplete domainwf.Event = "COMPLETE"
	EventCancel   domainwf.Event = "CANCEL"
)

// InitialState is where a task enters the workflow, at version 0.
const InitialState = StateDraft

// Context keys supplied by the caller at trigger time.
const (
	CtxActingUser = "acting_user"
	CtxExecutor   = "executor"
	CtxTaskTitle  = "task_title"
)

// BuildTaskLifecycle builds the shared transition table for the task
// workflow:
//
//	DRAFT    --ASSIGN-->   AWAITING   (notifies the executor)
//	AWAITING --ACCEPT-->   ACCEPTED   (only the assigned executor)
//	AWAITING --REJECT-->   REJECTED
//	AWAITING --CANCEL-->   CANCELLED
//	ACCEPTED --COMPLETE--> COMPLETED  (only the assigned executor)
//	ACCEPTED --CANCEL-->   CANCELLED
//
// REJECTED, CANCELLED and COMPLETED are terminal. The returned table is
// immutable and shared across all machines for this workflow.
func BuildTaskLifecycle(notifier port.Notifier, logger *zap.Logger) (*domainwf.TransitionTable, error) {
	b := domainwf.NewBuilder("task-lifecycle").
		States(StateDraft, StateAwaiting, StateAccepted, StateRejected, StateCancelled, StateCompleted).
		Events(EventAssign, EventAccept, EventReject, EventComplete, EventCancel)

	b.Configure(StateDraft).
		PermitDo(EventAssign, StateAwaiting, nil, notifyExecutor(notifier, logger))

	b.Configure(StateAwaiting).
		PermitIf(EventAccept, StateAccepted, actingUserIsExecutor).
		Permit(EventReject, StateRejected).
		Permit(EventCancel, StateCancelled)

	b.Configure(StateAccepted).
		PermitIf(EventComplete, StateCompleted, actingUserIsExecutor).
		Permit(EventCancel, StateCancelled)

	return b.Build()
}

// actingUserIsExecutor permits the transition only for the assigned
// executor. An absent or malformed context fails closed.
func actingUserIsExecutor(tc domainwf.Context) bool {
	acting := tc.String(CtxActingUser)
	return acting != "" && acting == tc.String(CtxExecutor)
}

// notifyExecutor tells the executor a task landed on their plate. A
// delivery failure aborts the transition; the task stays in DRAFT and the
// caller may retry the same trigger.
func notifyExecutor(notifier port.Notifier, logger *zap.Logger) domainwf.ActionFunc {
	return func(ctx context.Context, tc domainwf.Context) error {
		executor := tc.String(CtxExecutor)
		if executor == "" {
			return fmt.Errorf("no executor in trigger context")
		}

		message := fmt.Sprintf("You have been assigned the task %q", tc.String(CtxTaskTitle))
		if err := notifier.Notify(ctx, executor, message); err != nil {
			logger.Error("Failed to notify executor",
				zap.String("executor", executor),
				zap.Error(err))
			return err
		}
		return nil
	}
}

// EventLabel returns the display label for a lifecycle event, used by the
// affordance exporter.
func EventLabel(e domainwf.Event) string {
	switch e {
	case EventAssign:
		return "Assign executor"
	case EventAccept:
		return "Accept task"
	case EventReject:
		return "Reject task"
	case EventComplete:
		return "Mark completed"
	case EventCancel:
		return "Cancel task"
	}
	return ""
}
