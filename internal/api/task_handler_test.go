package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/events"
)

// taskRequest builds an authenticated request with an optional chi path
// parameter.
func taskRequest(method, path, body string, userID uuid.UUID, taskID *uuid.UUID) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req = withUserID(req, userID)

	if taskID != nil {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", taskID.String())
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}
	return req
}

func TestTaskCreate(t *testing.T) {
	t.Parallel()

	taskStore := newFakeTaskStore()
	publisher := &fakePublisher{}
	handler := NewTaskHandler(taskStore, publisher)

	userID := uuid.New()
	w := httptest.NewRecorder()
	handler.Create(w, taskRequest(http.MethodPost, "/tasks",
		`{"title":"Write report","priority":"high","tags":["work"]}`, userID, nil))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var task domain.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	assert.Equal(t, userID, task.UserID, "owner comes from the token, not the body")
	assert.Equal(t, domain.TaskStatusPending, task.Status)
	assert.Equal(t, domain.TaskPriorityHigh, task.Priority)

	published := publisher.events()
	require.Len(t, published, 1)
	assert.Equal(t, events.TypeTaskCreated, published[0].EventType)

	var payload events.TaskCreatedPayload
	require.NoError(t, published[0].UnmarshalPayload(&payload))
	assert.Equal(t, task.ID, payload.TaskID)
	assert.Equal(t, userID, payload.UserID)
}

func TestTaskCreateRollsBackWhenBrokerDown(t *testing.T) {
	t.Parallel()

	taskStore := newFakeTaskStore()
	publisher := &fakePublisher{err: events.ErrBrokerUnavailable}
	handler := NewTaskHandler(taskStore, publisher)

	userID := uuid.New()
	w := httptest.NewRecorder()
	handler.Create(w, taskRequest(http.MethodPost, "/tasks",
		`{"title":"Write report"}`, userID, nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, taskStore.tasks, "unannounced task must not survive")
}

func TestTaskCreateRequiresAuth(t *testing.T) {
	t.Parallel()

	handler := NewTaskHandler(newFakeTaskStore(), &fakePublisher{})

	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(`{"title":"x"}`))
	w := httptest.NewRecorder()
	handler.Create(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTaskCreateValidation(t *testing.T) {
	t.Parallel()

	handler := NewTaskHandler(newFakeTaskStore(), &fakePublisher{})
	userID := uuid.New()

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"priority":"high"}`},
		{"unknown priority", `{"title":"x","priority":"asap"}`},
		{"negative estimate", `{"title":"x","estimated_hours":-1}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.Create(w, taskRequest(http.MethodPost, "/tasks", tc.body, userID, nil))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestTaskGet(t *testing.T) {
	t.Parallel()

	taskStore := newFakeTaskStore()
	handler := NewTaskHandler(taskStore, &fakePublisher{})

	userID := uuid.New()
	task, err := domain.NewTask(userID, "Mine", "", domain.TaskPriorityLow)
	require.NoError(t, err)
	require.NoError(t, taskStore.Create(context.Background(), task))

	w := httptest.NewRecorder()
	handler.Get(w, taskRequest(http.MethodGet, "/tasks/"+task.ID.String(), "", userID, &task.ID))
	assert.Equal(t, http.StatusOK, w.Code)

	// Another user's token cannot see the task; the response is the same
	// 404 as for a task that does not exist.
	w = httptest.NewRecorder()
	handler.Get(w, taskRequest(http.MethodGet, "/tasks/"+task.ID.String(), "", uuid.New(), &task.ID))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskList(t *testing.T) {
	t.Parallel()

	taskStore := newFakeTaskStore()
	handler := NewTaskHandler(taskStore, &fakePublisher{})

	userID := uuid.New()
	for _, title := range []string{"one", "two"} {
		task, err := domain.NewTask(userID, title, "", domain.TaskPriorityMedium)
		require.NoError(t, err)
		require.NoError(t, taskStore.Create(context.Background(), task))
	}

	w := httptest.NewRecorder()
	handler.List(w, taskRequest(http.MethodGet, "/tasks", "", userID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp TaskListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Len(t, resp.Tasks, 2)
}

func TestTaskListRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	handler := NewTaskHandler(newFakeTaskStore(), &fakePublisher{})

	w := httptest.NewRecorder()
	handler.List(w, taskRequest(http.MethodGet, "/tasks?status=bogus", "", uuid.New(), nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskUpdateStatusTransition(t *testing.T) {
	t.Parallel()

	taskStore := newFakeTaskStore()
	publisher := &fakePublisher{}
	handler := NewTaskHandler(taskStore, publisher)

	userID := uuid.New()
	task, err := domain.NewTask(userID, "Finish", "", domain.TaskPriorityMedium)
	require.NoError(t, err)
	require.NoError(t, taskStore.Create(context.Background(), task))

	w := httptest.NewRecorder()
	handler.Update(w, taskRequest(http.MethodPatch, "/tasks/"+task.ID.String(),
		`{"status":"completed","actual_hours":3.5}`, userID, &task.ID))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated domain.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, domain.TaskStatusCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)
	require.NotNil(t, updated.ActualHours)
	assert.Equal(t, 3.5, *updated.ActualHours)

	published := publisher.events()
	require.Len(t, published, 1)
	assert.Equal(t, events.TypeTaskUpdated, published[0].EventType)
}

func TestTaskDelete(t *testing.T) {
	t.Parallel()

	taskStore := newFakeTaskStore()
	publisher := &fakePublisher{}
	handler := NewTaskHandler(taskStore, publisher)

	userID := uuid.New()
	task, err := domain.NewTask(userID, "Old", "", domain.TaskPriorityLow)
	require.NoError(t, err)
	require.NoError(t, taskStore.Create(context.Background(), task))

	w := httptest.NewRecorder()
	handler.Delete(w, taskRequest(http.MethodDelete, "/tasks/"+task.ID.String(), "", userID, &task.ID))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, taskStore.tasks)

	published := publisher.events()
	require.Len(t, published, 1)
	assert.Equal(t, events.TypeTaskDeleted, published[0].EventType)
}

func TestTaskSummary(t *testing.T) {
	t.Parallel()

	taskStore := newFakeTaskStore()
	handler := NewTaskHandler(taskStore, &fakePublisher{})

	userID := uuid.New()
	task, err := domain.NewTask(userID, "Only", "", domain.TaskPriorityLow)
	require.NoError(t, err)
	require.NoError(t, taskStore.Create(context.Background(), task))

	w := httptest.NewRecorder()
	handler.Summary(w, taskRequest(http.MethodGet, "/tasks/summary", "", userID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp SummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Summary.Total)
	assert.Equal(t, 1, resp.Summary.Pending)
}
