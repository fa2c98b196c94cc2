// Package rabbit implements the events.Publisher and events.Subscriber
// interfaces on top of RabbitMQ using the amqp091-go client.
//
// The topology is a durable topic exchange with a durable queue bound to
// it. The queue declares a dead-letter routing so that rejected messages
// land in a separate dead-letter queue for manual inspection. Publishing
// uses confirm mode: a publish does not succeed until the broker has
// acknowledged that the message entered the queue.
package rabbit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/phrazzld/tasktrack-api/internal/config"
)

const (
	dialAttempts  = 30
	dialRetryWait = 2 * time.Second
)

// Connection wraps an AMQP connection together with the broker topology
// settings. A single Connection is shared by publisher and subscriber
// channels within a process.
type Connection struct {
	cfg    config.BrokerConfig
	conn   *amqp.Connection
	logger *slog.Logger
}

// Connect dials the broker, retrying for up to a minute so that services
// starting alongside the broker (compose, rolling restarts) do not crash
// before it is ready.
func Connect(ctx context.Context, cfg config.BrokerConfig, logger *slog.Logger) (*Connection, error) {
	var conn *amqp.Connection
	var err error

	for i := 0; i < dialAttempts; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		conn, err = amqp.Dial(cfg.URL)
		if err == nil {
			logger.Info("connected to message broker")
			return &Connection{cfg: cfg, conn: conn, logger: logger}, nil
		}

		logger.Warn("failed to connect to message broker, retrying",
			"error", err,
			"retry_in", dialRetryWait)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialRetryWait):
		}
	}

	return nil, fmt.Errorf("could not connect to message broker after %d attempts: %w", dialAttempts, err)
}

// channel opens a new AMQP channel on the shared connection.
func (c *Connection) channel() (*amqp.Channel, error) {
	return c.conn.Channel()
}

// declareTopology declares the exchange, the dead-letter queue, and the
// main queue with its dead-letter routing, then binds the main queue to
// the exchange. All declarations are idempotent, so publisher and
// consumer can each run this on startup in any order.
func (c *Connection) declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(
		c.cfg.Exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare exchange %q: %w", c.cfg.Exchange, err)
	}

	if _, err := ch.QueueDeclare(
		c.cfg.DeadLetterQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare dead-letter queue %q: %w", c.cfg.DeadLetterQueue, err)
	}

	// Rejected messages route through the default exchange straight into
	// the dead-letter queue.
	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": c.cfg.DeadLetterQueue,
	}

	if _, err := ch.QueueDeclare(
		c.cfg.Queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		args,
	); err != nil {
		return fmt.Errorf("failed to declare queue %q: %w", c.cfg.Queue, err)
	}

	for _, key := range bindingKeys {
		if err := ch.QueueBind(c.cfg.Queue, key, c.cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %q to %q: %w", c.cfg.Queue, key, err)
		}
	}

	return nil
}

// Close closes the underlying AMQP connection and all its channels.
func (c *Connection) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
