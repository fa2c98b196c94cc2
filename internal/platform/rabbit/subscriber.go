package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/phrazzld/tasktrack-api/internal/events"
)

// bindingKeys are the topic patterns the consumer queue subscribes to.
var bindingKeys = []string{"task.*", "user.*"}

// attemptsHeader carries the delivery attempt count across redeliveries.
// Requeueing republishes the message with this header incremented, because
// a broker-side requeue would reset nothing and carry no count.
const attemptsHeader = "x-attempts"

// Subscriber consumes events from the durable queue with manual
// acknowledgement. It implements events.Subscriber.
type Subscriber struct {
	conn   *Connection
	logger *slog.Logger
}

var _ events.Subscriber = (*Subscriber)(nil)

// NewSubscriber creates a Subscriber over the shared connection.
func NewSubscriber(conn *Connection) *Subscriber {
	return &Subscriber{conn: conn, logger: conn.logger}
}

// Subscribe opens a channel, declares the topology, and starts consuming
// with a prefetch of one so concurrent consumer instances share the queue
// fairly. The returned channel closes when the context is cancelled or the
// AMQP channel is lost; unacknowledged messages are then redelivered by
// the broker.
func (s *Subscriber) Subscribe(ctx context.Context) (<-chan events.Delivery, error) {
	ch, err := s.conn.channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open consumer channel: %w", err)
	}

	if err := s.conn.declareTopology(ch); err != nil {
		ch.Close()
		return nil, err
	}

	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to set prefetch: %w", err)
	}

	msgs, err := ch.Consume(
		s.conn.cfg.Queue,
		"",    // consumer tag, broker-generated
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to start consuming from %q: %w", s.conn.cfg.Queue, err)
	}

	out := make(chan events.Delivery)
	go s.pump(ctx, ch, msgs, out)

	return out, nil
}

// pump decodes raw AMQP messages into event deliveries. Messages whose
// body is not a valid event are rejected without requeue so they go to
// the dead-letter queue instead of poisoning the consumer loop.
func (s *Subscriber) pump(ctx context.Context, ch *amqp.Channel, msgs <-chan amqp.Delivery, out chan<- events.Delivery) {
	defer close(out)
	defer ch.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			var event events.Event
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				s.logger.Error("discarding malformed event",
					"error", err,
					"routing_key", msg.RoutingKey,
					"correlation_id", msg.CorrelationId)
				_ = msg.Nack(false, false)
				continue
			}

			delivery := events.Delivery{
				Event:    event,
				Attempts: attemptsFrom(msg.Headers),
				Acker: &acker{
					channel: ch,
					msg:     msg,
					queue:   s.conn.cfg.Queue,
				},
			}

			select {
			case <-ctx.Done():
				// Leave the message unacknowledged; the broker redelivers it.
				return
			case out <- delivery:
			}
		}
	}
}

// attemptsFrom reads the delivery attempt count from message headers.
// AMQP tables carry integers in several widths depending on the client
// that wrote them.
func attemptsFrom(headers amqp.Table) int {
	v, ok := headers[attemptsHeader]
	if !ok {
		return 0
	}

	switch n := v.(type) {
	case int:
		return n
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// acker settles a single AMQP delivery. Requeueing is implemented as a
// republish with an incremented attempt header followed by an ack of the
// original, since a plain broker requeue cannot track attempt counts.
type acker struct {
	channel *amqp.Channel
	msg     amqp.Delivery
	queue   string
}

func (a *acker) Ack() error {
	return a.msg.Ack(false)
}

func (a *acker) Reject(requeue bool) error {
	if !requeue {
		// Routed to the dead-letter queue by the queue's x-dead-letter
		// arguments.
		return a.msg.Nack(false, false)
	}

	headers := amqp.Table{}
	for k, v := range a.msg.Headers {
		headers[k] = v
	}
	headers[attemptsHeader] = int32(attemptsFrom(a.msg.Headers) + 1)

	// Publish the copy through the default exchange directly back onto
	// the queue, then remove the original.
	err := a.channel.PublishWithContext(
		context.Background(),
		"",
		a.queue,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:   a.msg.ContentType,
			CorrelationId: a.msg.CorrelationId,
			Body:          a.msg.Body,
			DeliveryMode:  amqp.Persistent,
			Timestamp:     a.msg.Timestamp,
			Headers:       headers,
		},
	)
	if err != nil {
		// Fall back to a broker requeue; the attempt count is lost but the
		// message is not.
		return a.msg.Nack(false, true)
	}

	return a.msg.Ack(false)
}
