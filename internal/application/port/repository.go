package port

import (
	"context"

	"github.com/kevinzhao/taskflow/internal/domain/entity"
)

// TaskRepository defines persistence operations for Task.
type TaskRepository interface {
	Create(ctx context.Context, task *entity.Task) error
	GetByID(ctx context.Context, id int64) (*entity.Task, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Task, error)

	// UpdateStatusVersion writes the new status and version only if the
	// stored version still equals expectedVersion. A stale version must
	// surface as workflow.ErrConcurrentModification; the caller reloads
	// and retries.
	UpdateStatusVersion(ctx context.Context, id int64, status string, newVersion, expectedVersion int64) error

	SetExecutor(ctx context.Context, id int64, executorID string) error
}

// HistoryRepository defines persistence operations for TaskHistory.
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.TaskHistory) error
	GetByTaskID(ctx context.Context, taskID int64) ([]*entity.TaskHistory, error)
	List(ctx context.Context, limit, offset int) ([]*entity.TaskHistory, error)
}

// TransactionManager handles database transactions.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
