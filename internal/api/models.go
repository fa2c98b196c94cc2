package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// VerifyResponse defines the response for the token verification endpoint.
type VerifyResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title          string     `json:"title"           validate:"required,min=1,max=200"`
	Description    string     `json:"description"     validate:"max=2000"`
	Priority       string     `json:"priority"        validate:"omitempty,oneof=low medium high urgent"`
	DueDate        *time.Time `json:"due_date"`
	Tags           []string   `json:"tags"            validate:"max=20,dive,min=1,max=50"`
	EstimatedHours *float64   `json:"estimated_hours" validate:"omitempty,gt=0"`
}

// UpdateTaskRequest defines the payload for updating a task. All fields
// are optional; absent fields leave the current value unchanged.
type UpdateTaskRequest struct {
	Title          *string    `json:"title"           validate:"omitempty,min=1,max=200"`
	Description    *string    `json:"description"     validate:"omitempty,max=2000"`
	Status         *string    `json:"status"          validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority       *string    `json:"priority"        validate:"omitempty,oneof=low medium high urgent"`
	DueDate        *time.Time `json:"due_date"`
	Tags           []string   `json:"tags"            validate:"omitempty,max=20,dive,min=1,max=50"`
	EstimatedHours *float64   `json:"estimated_hours" validate:"omitempty,gt=0"`
	ActualHours    *float64   `json:"actual_hours"    validate:"omitempty,gt=0"`
}

// TaskListResponse defines the paginated response for task list queries.
type TaskListResponse struct {
	Tasks    []*domain.Task `json:"tasks"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// NotificationListResponse defines the response for the notification log
// endpoint.
type NotificationListResponse struct {
	Notifications []*domain.Notification `json:"notifications"`
	Count         int                    `json:"count"`
}

// NotificationStatsResponse defines the response for the notification
// statistics endpoint.
type NotificationStatsResponse struct {
	CountsByType map[string]int `json:"counts_by_type"`
	Total        int            `json:"total"`
}

// SummaryResponse wraps the per-status task counts.
type SummaryResponse struct {
	Summary *store.TaskSummary `json:"summary"`
}
