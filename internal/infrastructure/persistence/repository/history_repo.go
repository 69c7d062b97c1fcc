package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kevinzhao/taskflow/internal/application/port"
	"github.com/kevinzhao/taskflow/internal/domain/entity"
	"github.com/kevinzhao/taskflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a transition record to the task's audit trail
func (r *HistoryRepository) Create(ctx context.Context, history *entity.TaskHistory) error {
	query := `
		INSERT INTO task_history (
			task_id, actor_id, previous_status, new_status, event, timestamp
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		history.TaskID,
		history.ActorID,
		history.PreviousStatus,
		history.NewStatus,
		history.Event,
		history.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	history.ID = id
	return nil
}

// GetByTaskID retrieves all history records for a task, oldest first
func (r *HistoryRepository) GetByTaskID(ctx context.Context, taskID int64) ([]*entity.TaskHistory, error) {
	query := `
		SELECT id, task_id, actor_id, previous_status, new_status, event, timestamp
		FROM task_history
		WHERE task_id = ?
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, taskID)
	if err != nil {
		r.logger.Error("Failed to get history by task ID", zap.Int64("task_id", taskID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	return scanHistory(rows)
}

// List retrieves history records across all tasks, newest first
func (r *HistoryRepository) List(ctx context.Context, limit, offset int) ([]*entity.TaskHistory, error) {
	query := `
		SELECT id, task_id, actor_id, previous_status, new_status, event, timestamp
		FROM task_history
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list history", zap.Error(err))
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	return scanHistory(rows)
}

func scanHistory(rows *sql.Rows) ([]*entity.TaskHistory, error) {
	var records []*entity.TaskHistory
	for rows.Next() {
		var record entity.TaskHistory
		err := rows.Scan(
			&record.ID,
			&record.TaskID,
			&record.ActorID,
			&record.PreviousStatus,
			&record.NewStatus,
			&record.Event,
			&record.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
