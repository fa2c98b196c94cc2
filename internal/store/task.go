package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
)

// TaskFilter describes the optional filtering, pagination, and sorting
// applied to task list queries. The user ID is always required: every list
// is scoped to the authenticated owner.
type TaskFilter struct {
	Status   *domain.TaskStatus
	Priority *domain.TaskPriority
	// Search matches case-insensitively against title and description.
	Search string

	Page     int
	PageSize int

	// SortBy is a column name from the allowed set; unknown values fall
	// back to created_at. SortDesc selects descending order.
	SortBy   string
	SortDesc bool
}

// TaskSummary aggregates a user's tasks by status.
type TaskSummary struct {
	Total      int `json:"total_tasks"`
	Pending    int `json:"pending_tasks"`
	InProgress int `json:"in_progress_tasks"`
	Completed  int `json:"completed_tasks"`
	Cancelled  int `json:"cancelled_tasks"`
	Overdue    int `json:"overdue_tasks"`
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns validation errors from the domain Task if data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task owned by the given user.
	// Returns ErrTaskNotFound if the task does not exist or belongs to a
	// different user; callers cannot distinguish the two cases.
	GetByID(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

	// List retrieves the user's tasks matching the filter, plus the total
	// match count before pagination.
	List(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]*domain.Task, int, error)

	// Update persists changes to an existing task owned by the given user.
	// Returns ErrTaskNotFound if the task does not exist or belongs to a
	// different user.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task owned by the given user.
	// Returns ErrTaskNotFound if the task does not exist or belongs to a
	// different user.
	Delete(ctx context.Context, userID, taskID uuid.UUID) error

	// Summary returns per-status counts and the overdue count for the
	// user's tasks.
	Summary(ctx context.Context, userID uuid.UUID) (*TaskSummary, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller.
	WithTx(tx *sql.Tx) TaskStore
}
