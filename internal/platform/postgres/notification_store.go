package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// PostgresNotificationStore implements the store.NotificationStore
// interface using a PostgreSQL database as the storage backend.
type PostgresNotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNotificationStore creates a new PostgreSQL implementation of
// the NotificationStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresNotificationStore(db store.DBTX, logger *slog.Logger) *PostgresNotificationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresNotificationStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_store")),
	}
}

// Ensure PostgresNotificationStore implements store.NotificationStore interface
var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

// Upsert implements store.NotificationStore.Upsert
// The event ID is the primary key and the conflict target: redelivered
// events insert exactly once, and a second write leaves the original row
// untouched. This is what makes the consumer's side effect idempotent
// under at-least-once delivery.
func (s *PostgresNotificationStore) Upsert(ctx context.Context, notification *domain.Notification) error {
	if err := notification.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO notifications (event_id, event_type, payload, emitted_at, processed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING`

	result, err := s.db.ExecContext(ctx, query,
		notification.EventID, notification.EventType,
		[]byte(notification.Payload), notification.EmittedAt, notification.ProcessedAt)
	if err != nil {
		return MapError(err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		s.logger.Debug("duplicate event ignored", "event_id", notification.EventID)
	}

	return nil
}

// Recent implements store.NotificationStore.Recent
func (s *PostgresNotificationStore) Recent(ctx context.Context, limit int) ([]*domain.Notification, error) {
	if limit < 1 {
		limit = 50
	}

	query := `
		SELECT event_id, event_type, payload, emitted_at, processed_at
		FROM notifications
		ORDER BY processed_at DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var notifications []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		var payload []byte
		if err := rows.Scan(&n.EventID, &n.EventType, &payload, &n.EmittedAt, &n.ProcessedAt); err != nil {
			return nil, MapError(err)
		}
		n.Payload = payload
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return notifications, nil
}

// CountByType implements store.NotificationStore.CountByType
func (s *PostgresNotificationStore) CountByType(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT event_type, COUNT(*)
		FROM notifications
		GROUP BY event_type`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var eventType string
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, MapError(err)
		}
		counts[eventType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return counts, nil
}

// RecordDeadLetter implements store.NotificationStore.RecordDeadLetter
// Keyed by event ID so a repeated dead-lettering of the same event (e.g.
// after a broker replay of the dead-letter queue) stays a single record.
func (s *PostgresNotificationStore) RecordDeadLetter(ctx context.Context, letter *domain.DeadLetter) error {
	query := `
		INSERT INTO dead_letter_events (event_id, event_type, payload, reason, attempts, dead_lettered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query,
		letter.EventID, letter.EventType, []byte(letter.Payload),
		letter.Reason, letter.Attempts, letter.DeadLetteredAt)
	if err != nil {
		return MapError(err)
	}

	s.logger.Warn("dead letter recorded",
		"event_id", letter.EventID,
		"event_type", letter.EventType,
		"attempts", letter.Attempts)
	return nil
}
