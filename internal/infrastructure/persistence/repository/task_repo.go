package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kevinzhao/taskflow/internal/application/port"
	"github.com/kevinzhao/taskflow/internal/domain/entity"
	"github.com/kevinzhao/taskflow/internal/domain/workflow"
	"github.com/kevinzhao/taskflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// TaskRepository implements port.TaskRepository
type TaskRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sql.DB, logger *zap.Logger) port.TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new task
func (r *TaskRepository) Create(ctx context.Context, task *entity.Task) error {
	query := `
		INSERT INTO tasks (
			title, description, creator_id, executor_id, status, version
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	var executorID sql.NullString
	if task.ExecutorID != "" {
		executorID = sql.NullString{String: task.ExecutorID, Valid: true}
	}

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.CreatorID,
		executorID,
		task.Status,
		task.Version,
	)
	if err != nil {
		r.logger.Error("Failed to create task",
			zap.String("title", task.Title),
			zap.Error(err))
		return fmt.Errorf("failed to create task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	task.ID = id
	return nil
}

// GetByID retrieves a task by its ID. Returns (nil, nil) when no row
// matches.
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*entity.Task, error) {
	query := `
		SELECT id, title, description, creator_id, executor_id, status, version,
			created_at, updated_at
		FROM tasks
		WHERE id = ?
	`

	var task entity.Task
	var executorID sql.NullString
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.CreatorID,
		&executorID,
		&task.Status,
		&task.Version,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get task by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if executorID.Valid {
		task.ExecutorID = executorID.String
	}
	return &task, nil
}

// List retrieves tasks ordered by creation time, newest first
func (r *TaskRepository) List(ctx context.Context, limit, offset int) ([]*entity.Task, error) {
	query := `
		SELECT id, title, description, creator_id, executor_id, status, version,
			created_at, updated_at
		FROM tasks
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list tasks", zap.Error(err))
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*entity.Task
	for rows.Next() {
		var task entity.Task
		var executorID sql.NullString
		err := rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.CreatorID,
			&executorID,
			&task.Status,
			&task.Version,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if executorID.Valid {
			task.ExecutorID = executorID.String
		}
		tasks = append(tasks, &task)
	}

	return tasks, rows.Err()
}

// UpdateStatusVersion performs the optimistic compare-and-write: the row is
// touched only while its stored version still equals expectedVersion. Zero
// rows affected means another writer got there first.
func (r *TaskRepository) UpdateStatusVersion(ctx context.Context, id int64, status string, newVersion, expectedVersion int64) error {
	query := `
		UPDATE tasks
		SET status = ?, version = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, status, newVersion, id, expectedVersion)
	if err != nil {
		r.logger.Error("Failed to update task status",
			zap.Int64("id", id),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to update task status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		r.logger.Warn("Stale version on task status write",
			zap.Int64("id", id),
			zap.Int64("expected_version", expectedVersion))
		return fmt.Errorf("%w: task %d at version %d", workflow.ErrConcurrentModification, id, expectedVersion)
	}

	return nil
}

// SetExecutor assigns the task's executor
func (r *TaskRepository) SetExecutor(ctx context.Context, id int64, executorID string) error {
	query := `UPDATE tasks SET executor_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, executorID, id)
	if err != nil {
		r.logger.Error("Failed to set task executor",
			zap.Int64("id", id),
			zap.String("executor_id", executorID),
			zap.Error(err))
		return fmt.Errorf("failed to set executor: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.TaskRepository = (*TaskRepository)(nil)
