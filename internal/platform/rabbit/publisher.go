package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/phrazzld/tasktrack-api/internal/events"
	"github.com/phrazzld/tasktrack-api/internal/platform/metrics"
)

// Publisher publishes events to the topic exchange in confirm mode.
// It implements events.Publisher.
type Publisher struct {
	conn    *Connection
	channel *amqp.Channel
	timeout time.Duration
	logger  *slog.Logger
}

var _ events.Publisher = (*Publisher)(nil)

// NewPublisher opens a channel in confirm mode and declares the broker
// topology.
func NewPublisher(conn *Connection) (*Publisher, error) {
	ch, err := conn.channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open publisher channel: %w", err)
	}

	if err := conn.declareTopology(ch); err != nil {
		ch.Close()
		return nil, err
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to put channel into confirm mode: %w", err)
	}

	return &Publisher{
		conn:    conn,
		channel: ch,
		timeout: conn.cfg.PublishTimeout(),
		logger:  conn.logger,
	}, nil
}

// Publish serializes the event and sends it with a persistent delivery
// mode, then waits for the broker's confirmation. The wait is bounded by
// the configured publish timeout; exceeding it, or a broker nack, surfaces
// as events.ErrBrokerUnavailable. A confirmed publish means the event is
// in the durable queue and survives a broker restart.
func (p *Publisher) Publish(ctx context.Context, event *events.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize event %s: %w", event.EventID, err)
	}

	key := routingKey(event.EventType)

	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	confirm, err := p.channel.PublishWithDeferredConfirmWithContext(
		pubCtx,
		p.conn.cfg.Exchange,
		key,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: event.EventID,
			Body:          body,
			DeliveryMode:  amqp.Persistent,
			Timestamp:     event.EmittedAt,
		},
	)
	if err != nil {
		metrics.PublishFailures.Inc()
		return fmt.Errorf("%w: publish failed: %v", events.ErrBrokerUnavailable, err)
	}

	acked, err := confirm.WaitContext(pubCtx)
	if err != nil {
		metrics.PublishFailures.Inc()
		return fmt.Errorf("%w: no confirmation within %s: %v", events.ErrBrokerUnavailable, p.timeout, err)
	}
	if !acked {
		metrics.PublishFailures.Inc()
		return fmt.Errorf("%w: broker rejected event %s", events.ErrBrokerUnavailable, event.EventID)
	}

	metrics.EventsPublished.WithLabelValues(event.EventType).Inc()
	p.logger.Debug("event published",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"routing_key", key)

	return nil
}

// Close closes the publisher channel. The shared connection stays open.
func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}

// routingKey maps an event type to its topic routing key: the entity and
// action segments are dot-separated, e.g. "task_created" publishes under
// "task.created".
func routingKey(eventType string) string {
	return strings.Replace(eventType, "_", ".", 1)
}
