package rabbit

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/tasktrack-api/internal/events"
)

func TestRoutingKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		eventType string
		expected  string
	}{
		{events.TypeTaskCreated, "task.created"},
		{events.TypeTaskUpdated, "task.updated"},
		{events.TypeTaskDeleted, "task.deleted"},
		{events.TypeUserRegistered, "user.registered"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, routingKey(tc.eventType))
	}
}

func TestAttemptsFrom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		headers  amqp.Table
		expected int
	}{
		{
			name:     "no headers",
			headers:  nil,
			expected: 0,
		},
		{
			name:     "header absent",
			headers:  amqp.Table{"other": "value"},
			expected: 0,
		},
		{
			name:     "int32 as written on requeue",
			headers:  amqp.Table{attemptsHeader: int32(2)},
			expected: 2,
		},
		{
			name:     "int64 from another client",
			headers:  amqp.Table{attemptsHeader: int64(3)},
			expected: 3,
		},
		{
			name:     "non-numeric value ignored",
			headers:  amqp.Table{attemptsHeader: "oops"},
			expected: 0,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, attemptsFrom(tc.headers))
		})
	}
}

func TestBindingKeysCoverAllEventTypes(t *testing.T) {
	t.Parallel()

	// Every published event type must match one of the queue's topic
	// bindings, or the consumer would silently never see it.
	prefixes := map[string]bool{}
	for _, key := range bindingKeys {
		prefixes[key[:len(key)-1]] = true // "task.*" -> "task."
	}

	for _, eventType := range []string{
		events.TypeTaskCreated,
		events.TypeTaskUpdated,
		events.TypeTaskDeleted,
		events.TypeUserRegistered,
	} {
		key := routingKey(eventType)
		matched := false
		for prefix := range prefixes {
			if len(key) > len(prefix) && key[:len(prefix)] == prefix {
				matched = true
			}
		}
		assert.True(t, matched, "event type %q (key %q) has no queue binding", eventType, key)
	}
}
