package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kevinzhao/taskflow/internal/application/port"
	"github.com/kevinzhao/taskflow/internal/application/service"
	domainwf "github.com/kevinzhao/taskflow/internal/domain/workflow"
	"github.com/kevinzhao/taskflow/internal/report"
)

// Handler exposes the task workflow over HTTP. It is one of the external
// collaborators of the engine: it forwards events, renders affordances,
// and never moves a task except through TaskService.Trigger.
type Handler struct {
	tasks       service.TaskService
	historyRepo port.HistoryRepository
	exporter    *report.HistoryExporter
	logger      *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(tasks service.TaskService, historyRepo port.HistoryRepository, exporter *report.HistoryExporter, logger *zap.Logger) *Handler {
	return &Handler{
		tasks:       tasks,
		historyRepo: historyRepo,
		exporter:    exporter,
		logger:      logger,
	}
}

// CreateTaskRequest is the payload for POST /api/tasks
type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	CreatorID   string `json:"creator_id" binding:"required"`
}

// TriggerRequest is the payload for POST /api/tasks/:id/trigger
type TriggerRequest struct {
	Event      string `json:"event" binding:"required"`
	ActingUser string `json:"acting_user" binding:"required"`
	ExecutorID string `json:"executor_id"`
}

// CreateTask handles POST /api/tasks
func (h *Handler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), req.Title, req.Description, req.CreatorID)
	if err != nil {
		h.logger.Error("Failed to create task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, task)
}

// GetTask handles GET /api/tasks/:id
func (h *Handler) GetTask(c *gin.Context) {
	id, ok := h.taskID(c)
	if !ok {
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// ListTasks handles GET /api/tasks
func (h *Handler) ListTasks(c *gin.Context) {
	limit, offset := paging(c)

	tasks, err := h.tasks.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list tasks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// Trigger handles POST /api/tasks/:id/trigger
func (h *Handler) Trigger(c *gin.Context) {
	id, ok := h.taskID(c)
	if !ok {
		return
	}

	var req TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, record, err := h.tasks.Trigger(c.Request.Context(), id, domainwf.Event(req.Event), req.ActingUser, req.ExecutorID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": task, "transition": record})
}

// Affordances handles GET /api/tasks/:id/affordances
func (h *Handler) Affordances(c *gin.Context) {
	id, ok := h.taskID(c)
	if !ok {
		return
	}

	actingUser := c.Query("acting_user")
	if actingUser == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "acting_user query parameter is required"})
		return
	}

	affordances, err := h.tasks.Affordances(c.Request.Context(), id, actingUser)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"affordances": affordances})
}

// History handles GET /api/tasks/:id/history
func (h *Handler) History(c *gin.Context) {
	id, ok := h.taskID(c)
	if !ok {
		return
	}

	records, err := h.tasks.History(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": records})
}

// HistoryReport handles GET /api/reports/history.xlsx
func (h *Handler) HistoryReport(c *gin.Context) {
	limit, offset := paging(c)

	records, err := h.historyRepo.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to load history for report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	filename := fmt.Sprintf("task-history-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := h.exporter.WriteTo(c.Writer, records); err != nil {
		h.logger.Error("Failed to write history report", zap.Error(err))
	}
}

func (h *Handler) taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return 0, false
	}
	return id, true
}

// writeError maps workflow and service errors onto HTTP responses. The
// distinct codes matter: "not a valid action here" and "not permitted"
// warrant different user-facing messages.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "task_not_found", "error": "task not found"})
	case errors.Is(err, domainwf.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"code": "invalid_transition", "error": "not a valid action for the current task state"})
	case errors.Is(err, domainwf.ErrGuardRejected):
		c.JSON(http.StatusForbidden, gin.H{"code": "guard_rejected", "error": "action not permitted for this user"})
	case errors.Is(err, domainwf.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"code": "concurrent_modification", "error": "task was modified concurrently, reload and retry"})
	case errors.Is(err, domainwf.ErrActionFailed):
		c.JSON(http.StatusBadGateway, gin.H{"code": "action_failed", "error": "transition action failed, task state unchanged"})
	default:
		h.logger.Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal", "error": "internal error"})
	}
}

func paging(c *gin.Context) (limit, offset int) {
	limit = 50
	offset = 0
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
