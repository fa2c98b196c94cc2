package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event type identifiers published by the services.
const (
	TypeTaskCreated    = "task_created"
	TypeTaskUpdated    = "task_updated"
	TypeTaskDeleted    = "task_deleted"
	TypeUserRegistered = "user_registered"
)

// Event is the wire format shared by the publisher and the consumer.
// The field names and types here are the de facto schema contract between
// otherwise-decoupled services; both sides serialize and deserialize this
// exact shape.
//
// EventID is unique per logical occurrence and is the key consumers use to
// make their side effects idempotent under at-least-once delivery. Events
// are never mutated after creation.
type Event struct {
	// EventType identifies the kind of domain event, e.g. "task_created".
	EventType string `json:"event_type"`

	// Payload contains the event-specific data serialized as JSON.
	Payload json.RawMessage `json:"payload"`

	// EventID uniquely identifies this logical occurrence.
	EventID string `json:"event_id"`

	// EmittedAt is the timestamp when the event was created by the publisher.
	EmittedAt time.Time `json:"emitted_at"`
}

// New creates an Event of the given type with the payload serialized to
// JSON, a fresh unique event ID, and the emission timestamp set to now.
func New(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		EventType: eventType,
		Payload:   payloadBytes,
		EventID:   uuid.New().String(),
		EmittedAt: time.Now().UTC(),
	}, nil
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// TaskCreatedPayload is the payload for task_created events.
type TaskCreatedPayload struct {
	TaskID   uuid.UUID `json:"task_id"`
	UserID   uuid.UUID `json:"user_id"`
	Title    string    `json:"title"`
	Priority string    `json:"priority"`
}

// TaskUpdatedPayload is the payload for task_updated events.
type TaskUpdatedPayload struct {
	TaskID uuid.UUID `json:"task_id"`
	UserID uuid.UUID `json:"user_id"`
	Title  string    `json:"title"`
	Status string    `json:"status"`
}

// TaskDeletedPayload is the payload for task_deleted events.
type TaskDeletedPayload struct {
	TaskID uuid.UUID `json:"task_id"`
	UserID uuid.UUID `json:"user_id"`
}

// UserRegisteredPayload is the payload for user_registered events.
type UserRegisteredPayload struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}
