package api

import (
	"context"
	"database/sql"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/tasktrack-api/internal/api/shared"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/events"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// withUserID places an authenticated user ID on the request context, the
// way the auth middleware does for protected routes.
func withUserID(r *http.Request, userID uuid.UUID) *http.Request {
	ctx := context.WithValue(r.Context(), shared.UserIDContextKey, userID)
	return r.WithContext(ctx)
}

// fakePublisher records published events and optionally fails.
type fakePublisher struct {
	mu        sync.Mutex
	published []*events.Event
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, event *events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, event)
	return nil
}

func (p *fakePublisher) events() []*events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*events.Event(nil), p.published...)
}

// fakeUserStore is an in-memory store.UserStore.
type fakeUserStore struct {
	mu      sync.Mutex
	byEmail map[string]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]*domain.User)}
}

func (s *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[user.Email]; exists {
		return store.ErrEmailExists
	}
	if user.Password != "" {
		user.HashedPassword = "hashed:" + user.Password
		user.Password = ""
	}
	s.byEmail[user.Email] = user
	return nil
}

func (s *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byEmail[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (s *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore { return s }

// fakePasswordVerifier matches against the fakeUserStore hashing scheme.
type fakePasswordVerifier struct{}

func (fakePasswordVerifier) Compare(hashedPassword, password string) error {
	if hashedPassword == "hashed:"+password {
		return nil
	}
	return domain.ErrUnauthorized
}

// fakeTaskStore is an in-memory store.TaskStore.
type fakeTaskStore struct {
	mu      sync.Mutex
	tasks   map[uuid.UUID]*domain.Task
	deletes []uuid.UUID
	err     error
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (s *fakeTaskStore) Create(ctx context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.tasks[task.ID] = task
	return nil
}

func (s *fakeTaskStore) GetByID(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok || task.UserID != userID {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

func (s *fakeTaskStore) List(ctx context.Context, userID uuid.UUID, filter store.TaskFilter) ([]*domain.Task, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tasks []*domain.Task
	for _, task := range s.tasks {
		if task.UserID != userID {
			continue
		}
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, len(tasks), nil
}

func (s *fakeTaskStore) Update(ctx context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return store.ErrTaskNotFound
	}
	s.tasks[task.ID] = task
	return nil
}

func (s *fakeTaskStore) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok || task.UserID != userID {
		return store.ErrTaskNotFound
	}
	delete(s.tasks, taskID)
	s.deletes = append(s.deletes, taskID)
	return nil
}

func (s *fakeTaskStore) Summary(ctx context.Context, userID uuid.UUID) (*store.TaskSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary := &store.TaskSummary{}
	for _, task := range s.tasks {
		if task.UserID != userID {
			continue
		}
		summary.Total++
		switch task.Status {
		case domain.TaskStatusPending:
			summary.Pending++
		case domain.TaskStatusInProgress:
			summary.InProgress++
		case domain.TaskStatusCompleted:
			summary.Completed++
		case domain.TaskStatusCancelled:
			summary.Cancelled++
		}
	}
	return summary, nil
}

func (s *fakeTaskStore) WithTx(tx *sql.Tx) store.TaskStore { return s }
