package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

func testNotification(eventID string) *domain.Notification {
	return &domain.Notification{
		EventID:     eventID,
		EventType:   "task_created",
		Payload:     json.RawMessage(`{"task_id":"abc"}`),
		EmittedAt:   time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		ProcessedAt: time.Date(2025, 6, 1, 9, 0, 1, 0, time.UTC),
	}
}

func TestNotificationStoreUpsertInserts(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	notificationStore := NewPostgresNotificationStore(db, nil)

	n := testNotification("e1")
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(n.EventID, n.EventType, []byte(n.Payload), n.EmittedAt, n.ProcessedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, notificationStore.Upsert(context.Background(), n))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStoreUpsertIgnoresDuplicate(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	notificationStore := NewPostgresNotificationStore(db, nil)

	// ON CONFLICT DO NOTHING: zero rows affected, no error.
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, notificationStore.Upsert(context.Background(), testNotification("e1")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStoreUpsertRejectsInvalid(t *testing.T) {
	t.Parallel()

	db, _ := newMockDB(t)
	notificationStore := NewPostgresNotificationStore(db, nil)

	err := notificationStore.Upsert(context.Background(), &domain.Notification{})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestNotificationStoreRecent(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	notificationStore := NewPostgresNotificationStore(db, nil)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"event_id", "event_type", "payload", "emitted_at", "processed_at"}).
		AddRow("e2", "task_updated", []byte(`{}`), now, now).
		AddRow("e1", "task_created", []byte(`{}`), now.Add(-time.Minute), now.Add(-time.Minute))

	mock.ExpectQuery("SELECT event_id, event_type, payload").
		WithArgs(10).
		WillReturnRows(rows)

	notifications, err := notificationStore.Recent(context.Background(), 10)
	require.NoError(t, err)

	require.Len(t, notifications, 2)
	assert.Equal(t, "e2", notifications[0].EventID, "newest first")
	assert.Equal(t, "e1", notifications[1].EventID)
}

func TestNotificationStoreCountByType(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	notificationStore := NewPostgresNotificationStore(db, nil)

	rows := sqlmock.NewRows([]string{"event_type", "count"}).
		AddRow("task_created", 5).
		AddRow("user_registered", 2)

	mock.ExpectQuery("SELECT event_type, COUNT").
		WillReturnRows(rows)

	counts, err := notificationStore.CountByType(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"task_created": 5, "user_registered": 2}, counts)
}

func TestNotificationStoreRecordDeadLetter(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	notificationStore := NewPostgresNotificationStore(db, nil)

	letter := &domain.DeadLetter{
		EventID:        "e1",
		EventType:      "task_created",
		Payload:        json.RawMessage(`{}`),
		Reason:         "side effect failed",
		Attempts:       4,
		DeadLetteredAt: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO dead_letter_events").
		WithArgs(letter.EventID, letter.EventType, []byte(letter.Payload),
			letter.Reason, letter.Attempts, letter.DeadLetteredAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, notificationStore.RecordDeadLetter(context.Background(), letter))
	assert.NoError(t, mock.ExpectationsWereMet())
}
