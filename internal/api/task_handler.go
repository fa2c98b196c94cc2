package api

import (
	"net/http"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/api/shared"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/events"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// TaskHandler handles task management API requests. Every route requires
// authentication; the owning user comes from the verified token subject,
// never from the request body.
type TaskHandler struct {
	taskStore store.TaskStore
	publisher events.Publisher
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(taskStore store.TaskStore, publisher events.Publisher) *TaskHandler {
	return &TaskHandler{
		taskStore: taskStore,
		publisher: publisher,
	}
}

// Create handles POST /tasks.
//
// Creating a task and announcing it are one operation: if the broker does
// not confirm the task_created event, the creation is rolled back and the
// client gets a 503. A task that exists but was never announced would
// silently break every downstream consumer.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	priority := domain.TaskPriorityMedium
	if req.Priority != "" {
		priority = domain.TaskPriority(req.Priority)
	}

	task, err := domain.NewTask(userID, req.Title, req.Description, priority)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task data")
		return
	}
	task.DueDate = req.DueDate
	task.Tags = req.Tags
	task.EstimatedHours = req.EstimatedHours

	if err := h.taskStore.Create(r.Context(), task); err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	if err := h.publishTaskEvent(r, events.TypeTaskCreated, events.TaskCreatedPayload{
		TaskID:   task.ID,
		UserID:   task.UserID,
		Title:    task.Title,
		Priority: string(task.Priority),
	}); err != nil {
		// Undo the write so the store and the event stream stay consistent.
		if delErr := h.taskStore.Delete(r.Context(), userID, task.ID); delErr != nil {
			logger.FromContext(r.Context()).Error("failed to roll back unannounced task",
				"error", delErr,
				"task_id", task.ID)
		}
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// Get handles GET /tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := requireUserAndTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.taskStore.GetByID(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// List handles GET /tasks with optional status, priority, search,
// pagination, and sort query parameters.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	filter, err := taskFilterFromQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	tasks, total, err := h.taskStore.List(r.Context(), userID, filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	if tasks == nil {
		tasks = []*domain.Task{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{
		Tasks:    tasks,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
}

// Update handles PATCH /tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := requireUserAndTaskID(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := h.taskStore.GetByID(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := applyTaskUpdate(task, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task data")
		return
	}

	if err := h.taskStore.Update(r.Context(), task); err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}

	if err := h.publishTaskEvent(r, events.TypeTaskUpdated, events.TaskUpdatedPayload{
		TaskID: task.ID,
		UserID: task.UserID,
		Title:  task.Title,
		Status: string(task.Status),
	}); err != nil {
		// The update is already durable; surface the lost announcement in
		// the logs but not to the client.
		logger.FromContext(r.Context()).Warn("task updated but event not published",
			"error", err,
			"task_id", task.ID)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// Delete handles DELETE /tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := requireUserAndTaskID(w, r)
	if !ok {
		return
	}

	if err := h.taskStore.Delete(r.Context(), userID, taskID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.publishTaskEvent(r, events.TypeTaskDeleted, events.TaskDeletedPayload{
		TaskID: taskID,
		UserID: userID,
	}); err != nil {
		logger.FromContext(r.Context()).Warn("task deleted but event not published",
			"error", err,
			"task_id", taskID)
	}

	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /tasks/summary.
func (h *TaskHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	summary, err := h.taskStore.Summary(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute summary")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SummaryResponse{Summary: summary})
}

func (h *TaskHandler) publishTaskEvent(r *http.Request, eventType string, payload interface{}) error {
	event, err := events.New(eventType, payload)
	if err != nil {
		return err
	}
	return h.publisher.Publish(r.Context(), event)
}

// taskFilterFromQuery builds a store.TaskFilter from the request query
// parameters, rejecting unknown status or priority values.
func taskFilterFromQuery(r *http.Request) (store.TaskFilter, error) {
	filter := store.TaskFilter{
		Search:   r.URL.Query().Get("search"),
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "page_size", 20),
		SortBy:   r.URL.Query().Get("sort_by"),
		SortDesc: r.URL.Query().Get("order") == "desc",
	}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.TaskStatus(raw)
		if !status.IsValid() {
			return filter, domain.NewValidationError("status", "has invalid value", domain.ErrValidation)
		}
		filter.Status = &status
	}

	if raw := r.URL.Query().Get("priority"); raw != "" {
		priority := domain.TaskPriority(raw)
		if !priority.IsValid() {
			return filter, domain.NewValidationError("priority", "has invalid value", domain.ErrValidation)
		}
		filter.Priority = &priority
	}

	return filter, nil
}

// applyTaskUpdate copies the present request fields onto the task.
func applyTaskUpdate(task *domain.Task, req *UpdateTaskRequest) error {
	now := time.Now().UTC()

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		task.Priority = domain.TaskPriority(*req.Priority)
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Tags != nil {
		task.Tags = req.Tags
	}
	if req.EstimatedHours != nil {
		task.EstimatedHours = req.EstimatedHours
	}
	if req.ActualHours != nil {
		task.ActualHours = req.ActualHours
	}

	if req.Status != nil {
		if err := task.SetStatus(domain.TaskStatus(*req.Status), now); err != nil {
			return err
		}
	} else {
		task.UpdatedAt = now
	}

	return task.Validate()
}
