package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// sortColumns is the allowed set of task list sort columns. Sorting is
// interpolated into the query text, so only values from this set are used.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"due_date":   "due_date",
	"priority":   "priority",
	"title":      "title",
	"status":     "status",
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	tags, err := marshalTags(task.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (
			id, user_id, title, description, status, priority,
			due_date, tags, estimated_hours, actual_hours,
			created_at, updated_at, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = s.db.ExecContext(ctx, query,
		task.ID, task.UserID, task.Title, task.Description,
		task.Status, task.Priority, task.DueDate, tags,
		task.EstimatedHours, task.ActualHours,
		task.CreatedAt, task.UpdatedAt, task.CompletedAt)
	if err != nil {
		return MapError(err)
	}

	s.logger.Debug("task created", "task_id", task.ID, "user_id", task.UserID)
	return nil
}

// GetByID implements store.TaskStore.GetByID
// The query is scoped to the owning user, so a task belonging to another
// user is indistinguishable from a missing one.
func (s *PostgresTaskStore) GetByID(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	query := taskSelectColumns + `
		FROM tasks
		WHERE id = $1 AND user_id = $2`

	row := s.db.QueryRowContext(ctx, query, taskID, userID)
	task, err := scanTask(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrTaskNotFound
		}
		return nil, MapError(err)
	}
	return task, nil
}

// List implements store.TaskStore.List
func (s *PostgresTaskStore) List(ctx context.Context, userID uuid.UUID, filter store.TaskFilter) ([]*domain.Task, int, error) {
	where, args := buildTaskFilter(userID, filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM tasks " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, MapError(err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}

	query := fmt.Sprintf("%s FROM tasks %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		taskSelectColumns, where, column, direction, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows.Scan)
		if err != nil {
			return nil, 0, MapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, MapError(err)
	}

	return tasks, total, nil
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	tags, err := marshalTags(task.Tags)
	if err != nil {
		return err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4,
			due_date = $5, tags = $6, estimated_hours = $7, actual_hours = $8,
			updated_at = $9, completed_at = $10
		WHERE id = $11 AND user_id = $12`

	result, err := s.db.ExecContext(ctx, query,
		task.Title, task.Description, task.Status, task.Priority,
		task.DueDate, tags, task.EstimatedHours, task.ActualHours,
		task.UpdatedAt, task.CompletedAt,
		task.ID, task.UserID)
	if err != nil {
		return MapError(err)
	}

	return requireRowAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	result, err := s.db.ExecContext(ctx, query, taskID, userID)
	if err != nil {
		return MapError(err)
	}

	return requireRowAffected(result, store.ErrTaskNotFound)
}

// Summary implements store.TaskStore.Summary
func (s *PostgresTaskStore) Summary(ctx context.Context, userID uuid.UUID) (*store.TaskSummary, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'in_progress'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COUNT(*) FILTER (
				WHERE due_date < $2
				AND status NOT IN ('completed', 'cancelled')
			)
		FROM tasks
		WHERE user_id = $1`

	var summary store.TaskSummary
	err := s.db.QueryRowContext(ctx, query, userID, time.Now().UTC()).Scan(
		&summary.Total,
		&summary.Pending,
		&summary.InProgress,
		&summary.Completed,
		&summary.Cancelled,
		&summary.Overdue,
	)
	if err != nil {
		return nil, MapError(err)
	}

	return &summary, nil
}

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

const taskSelectColumns = `
	SELECT id, user_id, title, description, status, priority,
		due_date, tags, estimated_hours, actual_hours,
		created_at, updated_at, completed_at`

// buildTaskFilter assembles the WHERE clause for list and count queries.
// The user ID is always the first condition; optional filters append
// numbered placeholders in order.
func buildTaskFilter(userID uuid.UUID, filter store.TaskFilter) (string, []any) {
	conditions := []string{"user_id = $1"}
	args := []any{userID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions,
			fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// scanTask reads one task row. The scan parameter abstracts over
// sql.Row.Scan and sql.Rows.Scan.
func scanTask(scan func(dest ...any) error) (*domain.Task, error) {
	var task domain.Task
	var description sql.NullString
	var tags []byte
	var createdAt, updatedAt time.Time

	err := scan(
		&task.ID, &task.UserID, &task.Title, &description,
		&task.Status, &task.Priority, &task.DueDate, &tags,
		&task.EstimatedHours, &task.ActualHours,
		&createdAt, &updatedAt, &task.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Description = description.String
	task.CreatedAt = createdAt.UTC()
	task.UpdatedAt = updatedAt.UTC()

	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &task.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode task tags: %w", err)
		}
	}

	return &task, nil
}

// marshalTags encodes the tag list for the jsonb column. A nil slice is
// stored as an empty array so reads never produce SQL NULL.
func marshalTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task tags: %w", err)
	}
	return encoded, nil
}

// requireRowAffected converts a zero-row write into the given not-found
// error.
func requireRowAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
