package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// fakeHasher avoids bcrypt cost in unit tests.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestUserStoreCreate(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	userStore := NewPostgresUserStore(db, fakeHasher{}, nil)

	user, err := domain.NewUser("alice@example.com", "correct-horse-battery")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO users").
		WithArgs(user.ID, user.Email, "hashed:correct-horse-battery",
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = userStore.Create(context.Background(), user)
	require.NoError(t, err)

	assert.Empty(t, user.Password, "plaintext password must be cleared after hashing")
	assert.Equal(t, "hashed:correct-horse-battery", user.HashedPassword)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStoreCreateRejectsInvalidUser(t *testing.T) {
	t.Parallel()

	db, _ := newMockDB(t)
	userStore := NewPostgresUserStore(db, fakeHasher{}, nil)

	user := &domain.User{
		ID:       uuid.New(),
		Email:    "bob@example.com",
		Password: "short",
	}

	err := userStore.Create(context.Background(), user)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestUserStoreCreateDuplicateEmail(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	userStore := NewPostgresUserStore(db, fakeHasher{}, nil)

	user, err := domain.NewUser("alice@example.com", "correct-horse-battery")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

	err = userStore.Create(context.Background(), user)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrEmailExists)
	assert.True(t, store.IsDuplicateError(err))
}

func TestUserStoreGetByEmail(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	userStore := NewPostgresUserStore(db, fakeHasher{}, nil)

	id := uuid.New()
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "email", "hashed_password", "created_at", "updated_at"}).
		AddRow(id, "alice@example.com", "hashed-pw", now, now)
	mock.ExpectQuery("SELECT id, email, hashed_password").
		WithArgs("alice@example.com").
		WillReturnRows(rows)

	user, err := userStore.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, id, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "hashed-pw", user.HashedPassword)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStoreGetByIDNotFound(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	userStore := NewPostgresUserStore(db, fakeHasher{}, nil)

	mock.ExpectQuery("SELECT id, email, hashed_password").
		WillReturnError(sql.ErrNoRows)

	_, err := userStore.GetByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
	assert.True(t, store.IsNotFoundError(err))
}
