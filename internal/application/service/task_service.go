package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kevinzhao/taskflow/internal/application/port"
	taskwf "github.com/kevinzhao/taskflow/internal/application/workflow"
	"github.com/kevinzhao/taskflow/internal/domain/entity"
	domainwf "github.com/kevinzhao/taskflow/internal/domain/workflow"
	"go.uber.org/zap"
)

// ErrTaskNotFound is returned when a task ID does not exist.
var ErrTaskNotFound = errors.New("task not found")

// TaskService drives tasks through the lifecycle workflow. It owns no
// workflow state itself: machines are reconstructed from the persisted
// (status, version) pair per call and discarded after use.
type TaskService interface {
	Create(ctx context.Context, title, description, creatorID string) (*entity.Task, error)
	Get(ctx context.Context, id int64) (*entity.Task, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Task, error)

	// Trigger fires event against the task on behalf of actingUser.
	// executorID is consulted only by events that (re)assign the task.
	// Engine errors pass through unchanged so callers can distinguish
	// ErrInvalidTransition, ErrGuardRejected, ErrActionFailed and
	// ErrConcurrentModification.
	Trigger(ctx context.Context, taskID int64, event domainwf.Event, actingUser, executorID string) (*entity.Task, *domainwf.AuditRecord, error)

	// Affordances exports the (event, label) pairs actingUser may fire
	// right now, in table declaration order. Side-effect free.
	Affordances(ctx context.Context, taskID int64, actingUser string) ([]domainwf.Affordance, error)

	History(ctx context.Context, taskID int64) ([]*entity.TaskHistory, error)
}

type taskServiceImpl struct {
	table       *domainwf.TransitionTable
	taskRepo    port.TaskRepository
	historyRepo port.HistoryRepository
	txManager   port.TransactionManager
	logger      *zap.Logger
}

// NewTaskService creates a TaskService bound to one workflow table. The
// table is an explicit dependency, not process-wide state; distinct
// workflows coexist as independent services.
func NewTaskService(
	table *domainwf.TransitionTable,
	taskRepo port.TaskRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	logger *zap.Logger,
) TaskService {
	return &taskServiceImpl{
		table:       table,
		taskRepo:    taskRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// Create registers a new task at the workflow's initial state, version 0.
func (s *taskServiceImpl) Create(ctx context.Context, title, description, creatorID string) (*entity.Task, error) {
	if title == "" {
		return nil, fmt.Errorf("task title is required")
	}

	now := time.Now()
	task := &entity.Task{
		Title:       title,
		Description: description,
		CreatorID:   creatorID,
		Status:      taskwf.InitialState.String(),
		Version:     0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.logger.Info("Task created",
		zap.Int64("task_id", task.ID),
		zap.String("creator", creatorID))
	return task, nil
}

func (s *taskServiceImpl) Get(ctx context.Context, id int64) (*entity.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: id %d", ErrTaskNotFound, id)
	}
	return task, nil
}

func (s *taskServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.Task, error) {
	return s.taskRepo.List(ctx, limit, offset)
}

func (s *taskServiceImpl) Trigger(ctx context.Context, taskID int64, event domainwf.Event, actingUser, executorID string) (*entity.Task, *domainwf.AuditRecord, error) {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}

	machine, err := s.table.NewMachine(domainwf.State(task.Status), task.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("task %d has unknown status %q: %w", taskID, task.Status, err)
	}

	// ASSIGN carries the new executor; every other event acts on the
	// one already stored.
	executor := task.ExecutorID
	if event == taskwf.EventAssign {
		executor = executorID
	}

	tc := domainwf.Context{
		taskwf.CtxActingUser: actingUser,
		taskwf.CtxExecutor:   executor,
		taskwf.CtxTaskTitle:  task.Title,
	}

	loadedVersion := task.Version
	record, err := machine.Trigger(ctx, event, tc)
	if err != nil {
		return nil, nil, err
	}

	// Persist status+version with a compare-and-write on the version we
	// loaded, plus the audit row, in one transaction. A concurrent writer
	// surfaces as ErrConcurrentModification and nothing is committed.
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if event == taskwf.EventAssign {
			if err := s.taskRepo.SetExecutor(txCtx, taskID, executor); err != nil {
				return fmt.Errorf("set executor: %w", err)
			}
		}

		if err := s.taskRepo.UpdateStatusVersion(txCtx, taskID, record.To.String(), machine.Version(), loadedVersion); err != nil {
			return err
		}

		history := &entity.TaskHistory{
			TaskID:         taskID,
			ActorID:        actingUser,
			PreviousStatus: record.From.String(),
			NewStatus:      record.To.String(),
			Event:          record.Event.String(),
			Timestamp:      record.Timestamp,
		}
		if err := s.historyRepo.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	task.Status = record.To.String()
	task.Version = machine.Version()
	task.ExecutorID = executor
	task.UpdatedAt = time.Now()

	s.logger.Info("Task transitioned",
		zap.Int64("task_id", taskID),
		zap.String("event", event.String()),
		zap.String("from", record.From.String()),
		zap.String("to", record.To.String()),
		zap.Int64("version", task.Version),
		zap.String("actor", actingUser))

	return task, record, nil
}

func (s *taskServiceImpl) Affordances(ctx context.Context, taskID int64, actingUser string) ([]domainwf.Affordance, error) {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	machine, err := s.table.NewMachine(domainwf.State(task.Status), task.Version)
	if err != nil {
		return nil, fmt.Errorf("task %d has unknown status %q: %w", taskID, task.Status, err)
	}

	tc := domainwf.Context{
		taskwf.CtxActingUser: actingUser,
		taskwf.CtxExecutor:   task.ExecutorID,
		taskwf.CtxTaskTitle:  task.Title,
	}
	return domainwf.ExportAffordances(machine, tc, taskwf.EventLabel), nil
}

func (s *taskServiceImpl) History(ctx context.Context, taskID int64) ([]*entity.TaskHistory, error) {
	if _, err := s.Get(ctx, taskID); err != nil {
		return nil, err
	}
	return s.historyRepo.GetByTaskID(ctx, taskID)
}
