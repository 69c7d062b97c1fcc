package httpapi

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/kevinzhao/taskflow/internal/application/service"
	taskwf "github.com/kevinzhao/taskflow/internal/application/workflow"
	"github.com/kevinzhao/taskflow/internal/infrastructure/notify"
	"github.com/kevinzhao/taskflow/internal/infrastructure/persistence/repository"
	"github.com/kevinzhao/taskflow/internal/infrastructure/persistence/sqlite"
	"github.com/kevinzhao/taskflow/internal/report"
)

const testSchema = `
CREATE TABLE tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	creator_id TEXT NOT NULL,
	executor_id TEXT,
	status TEXT NOT NULL,
	version INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE task_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id INTEGER NOT NULL REFERENCES tasks(id),
	actor_id TEXT NOT NULL,
	previous_status TEXT NOT NULL,
	new_status TEXT NOT NULL,
	event TEXT NOT NULL,
	timestamp DATETIME NOT NULL
);
`

// newTestRouter wires the full stack against an in-memory database.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	table, err := taskwf.BuildTaskLifecycle(notify.NewLogNotifier(logger), logger)
	require.NoError(t, err)

	taskRepo := repository.NewTaskRepository(db, logger)
	historyRepo := repository.NewHistoryRepository(db, logger)
	txManager := sqlite.NewDB(db, logger)
	tasks := service.NewTaskService(table, taskRepo, historyRepo, txManager, logger)

	handler := NewHandler(tasks, historyRepo, report.NewHistoryExporter(logger), logger)
	return NewRouter(handler, logger)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createTask(t *testing.T, router *gin.Engine) int64 {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/tasks", gin.H{
		"title":      "Prepare quarterly report",
		"creator_id": "manager",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var task struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	require.NotZero(t, task.ID)
	return task.ID
}

func trigger(t *testing.T, router *gin.Engine, id int64, event, actingUser, executor string) *httptest.ResponseRecorder {
	t.Helper()
	return doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/tasks/%d/trigger", id), gin.H{
		"event":       event,
		"acting_user": actingUser,
		"executor_id": executor,
	})
}

func TestCreateAndGetTask(t *testing.T) {
	router := newTestRouter(t)
	id := createTask(t, router)

	w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/tasks/%d", id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var task struct {
		Status  string `json:"status"`
		Version int64  `json:"version"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	assert.Equal(t, "DRAFT", task.Status)
	assert.EqualValues(t, 0, task.Version)
}

func TestGetMissingTask(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/tasks/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTriggerLifecycle(t *testing.T) {
	router := newTestRouter(t)
	id := createTask(t, router)

	w := trigger(t, router, id, "ASSIGN", "manager", "u1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Task struct {
			Status     string `json:"status"`
			Version    int64  `json:"version"`
			ExecutorID string `json:"executor_id"`
		} `json:"task"`
		Transition struct {
			From  string `json:"from"`
			To    string `json:"to"`
			Event string `json:"event"`
		} `json:"transition"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "AWAITING", resp.Task.Status)
	assert.EqualValues(t, 1, resp.Task.Version)
	assert.Equal(t, "u1", resp.Task.ExecutorID)
	assert.Equal(t, "DRAFT", resp.Transition.From)
	assert.Equal(t, "ASSIGN", resp.Transition.Event)

	w = trigger(t, router, id, "ACCEPT", "u1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = trigger(t, router, id, "COMPLETE", "u1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// COMPLETED is terminal.
	w = trigger(t, router, id, "CANCEL", "manager", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_transition")
}

func TestTriggerGuardRejected(t *testing.T) {
	router := newTestRouter(t)
	id := createTask(t, router)

	require.Equal(t, http.StatusOK, trigger(t, router, id, "ASSIGN", "manager", "u1").Code)

	w := trigger(t, router, id, "ACCEPT", "u2", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "guard_rejected")

	// The task did not move.
	got := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/tasks/%d", id), nil)
	assert.Contains(t, got.Body.String(), "AWAITING")
}

func TestAffordances(t *testing.T) {
	router := newTestRouter(t)
	id := createTask(t, router)
	require.Equal(t, http.StatusOK, trigger(t, router, id, "ASSIGN", "manager", "u1").Code)

	w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/tasks/%d/affordances?acting_user=u1", id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Affordances []struct {
			Event string `json:"event"`
			Label string `json:"label"`
		} `json:"affordances"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Affordances, 3)
	assert.Equal(t, "ACCEPT", resp.Affordances[0].Event)
	assert.Equal(t, "Accept task", resp.Affordances[0].Label)

	// A different user does not see ACCEPT.
	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/tasks/%d/affordances?acting_user=u2", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Affordances, 2)
	for _, a := range resp.Affordances {
		assert.NotEqual(t, "ACCEPT", a.Event)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	router := newTestRouter(t)
	id := createTask(t, router)
	require.Equal(t, http.StatusOK, trigger(t, router, id, "ASSIGN", "manager", "u1").Code)
	require.Equal(t, http.StatusOK, trigger(t, router, id, "ACCEPT", "u1", "").Code)

	w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/tasks/%d/history", id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		History []struct {
			Event string `json:"event"`
		} `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.History, 2)
	assert.Equal(t, "ASSIGN", resp.History[0].Event)
	assert.Equal(t, "ACCEPT", resp.History[1].Event)
}

func TestHistoryReportDownload(t *testing.T) {
	router := newTestRouter(t)
	id := createTask(t, router)
	require.Equal(t, http.StatusOK, trigger(t, router, id, "ASSIGN", "manager", "u1").Code)

	w := doJSON(t, router, http.MethodGet, "/api/reports/history.xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "task-history-")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	event, err := f.GetCellValue("Transitions", "C2")
	require.NoError(t, err)
	assert.Equal(t, "ASSIGN", event)
}
