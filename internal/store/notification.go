package store

import (
	"context"

	"github.com/phrazzld/tasktrack-api/internal/domain"
)

// NotificationStore defines the interface for the notification log.
//
// Upsert is the idempotent side effect at the heart of the event pipeline:
// the broker delivers at least once, so writing the same event ID twice must
// leave exactly one log entry. Implementations key on the event ID and treat
// a second write as a no-op rather than an error.
type NotificationStore interface {
	// Upsert records that an event was processed. Writing an event ID that
	// already exists leaves the existing entry untouched and returns nil.
	Upsert(ctx context.Context, notification *domain.Notification) error

	// Recent returns up to limit notification log entries, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.Notification, error)

	// CountByType returns the number of processed notifications per event type.
	CountByType(ctx context.Context) (map[string]int, error)

	// RecordDeadLetter stores an event that exhausted its redeliveries.
	// Keyed by event ID with the same upsert semantics as the log itself.
	RecordDeadLetter(ctx context.Context, letter *domain.DeadLetter) error
}
