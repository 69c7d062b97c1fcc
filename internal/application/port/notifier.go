package port

import "context"

// Notifier delivers workflow notifications to users, e.g. telling an
// executor a task was assigned to them. Implementations perform the
// external I/O; the workflow action treats a delivery error as a failed
// transition.
type Notifier interface {
	Notify(ctx context.Context, userID, message string) error
}
