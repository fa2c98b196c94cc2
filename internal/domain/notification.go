package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// Notification-specific validation errors
var (
	// ErrNotificationEventIDEmpty is returned when a notification's event ID is empty.
	ErrNotificationEventIDEmpty = errors.New("notification event ID cannot be empty")

	// ErrNotificationEventTypeEmpty is returned when a notification's event type is empty.
	ErrNotificationEventTypeEmpty = errors.New("notification event type cannot be empty")
)

// Notification is one entry in the notification log, recording that a domain
// event was processed by the notification pipeline. Entries are keyed by the
// event ID: writing the same event twice must leave exactly one entry, which
// is what makes at-least-once delivery safe for this side effect.
type Notification struct {
	EventID     string          `json:"event_id"`
	EventType   string          `json:"event_type"`
	Payload     json.RawMessage `json:"payload"`
	EmittedAt   time.Time       `json:"emitted_at"`
	ProcessedAt time.Time       `json:"processed_at"`
}

// Validate checks if the Notification has valid data.
func (n *Notification) Validate() error {
	if n.EventID == "" {
		return ErrNotificationEventIDEmpty
	}
	if n.EventType == "" {
		return ErrNotificationEventTypeEmpty
	}
	return nil
}

// DeadLetter records an event that exhausted its redeliveries and was
// removed from the active queue. Kept for manual inspection; never retried
// automatically.
type DeadLetter struct {
	EventID        string          `json:"event_id"`
	EventType      string          `json:"event_type"`
	Payload        json.RawMessage `json:"payload"`
	Reason         string          `json:"reason"`
	Attempts       int             `json:"attempts"`
	DeadLetteredAt time.Time       `json:"dead_lettered_at"`
}
