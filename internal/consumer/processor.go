package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/events"
	"github.com/phrazzld/tasktrack-api/internal/platform/metrics"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// resubscribeDelay is the wait before re-subscribing after the delivery
// stream closes unexpectedly (broker restart, connection loss).
const resubscribeDelay = 2 * time.Second

// Processor is the event consumer's processing loop. It pulls deliveries
// from the subscriber, applies the notification side effect, and settles
// each delivery: ack after a successful side effect, requeue on failure,
// dead-letter once the retry policy is exhausted.
//
// The side effect is an upsert keyed by event ID, so applying it twice for
// the same event leaves one log entry. That idempotency is what makes
// at-least-once delivery and multiple concurrent worker instances safe.
type Processor struct {
	subscriber        events.Subscriber
	notifications     store.NotificationStore
	policy            RetryPolicy
	processingTimeout time.Duration
	logger            *slog.Logger

	// sleep is injectable for tests; defaults to a context-aware wait.
	sleep func(ctx context.Context, d time.Duration)
}

// NewProcessor creates a Processor with the given dependencies.
func NewProcessor(
	subscriber events.Subscriber,
	notifications store.NotificationStore,
	policy RetryPolicy,
	processingTimeout time.Duration,
	logger *slog.Logger,
) *Processor {
	return &Processor{
		subscriber:        subscriber,
		notifications:     notifications,
		policy:            policy,
		processingTimeout: processingTimeout,
		logger:            logger.With("component", "event_processor"),
		sleep:             sleepCtx,
	}
}

// Run consumes deliveries until the context is cancelled. When the delivery
// stream closes (broker hiccup), it re-subscribes after a short delay;
// unacknowledged messages are redelivered by the broker.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		deliveries, err := p.subscriber.Subscribe(ctx)
		if err != nil {
			p.logger.Warn("subscribe failed, retrying",
				"error", err,
				"retry_in", resubscribeDelay)
			p.sleep(ctx, resubscribeDelay)
			continue
		}

		p.logger.Info("consuming events")
		for delivery := range deliveries {
			p.Handle(ctx, delivery)
		}

		if ctx.Err() == nil {
			p.logger.Warn("delivery stream closed, re-subscribing",
				"retry_in", resubscribeDelay)
			p.sleep(ctx, resubscribeDelay)
		}
	}
}

// Handle processes a single delivery through the state machine and settles
// it with the broker. It never returns an error: every outcome is either an
// ack, a requeue, or a dead-letter.
func (p *Processor) Handle(ctx context.Context, delivery events.Delivery) {
	log := p.logger.With(
		"event_id", delivery.Event.EventID,
		"event_type", delivery.Event.EventType,
		"attempts", delivery.Attempts)

	log.Debug("delivery state change", "state", StateProcessing)

	procCtx, cancel := context.WithTimeout(ctx, p.processingTimeout)
	err := p.process(procCtx, delivery.Event)
	cancel()

	if err == nil {
		if ackErr := delivery.Acker.Ack(); ackErr != nil {
			// The side effect is recorded but the broker will redeliver;
			// the idempotent upsert absorbs the duplicate.
			log.Warn("failed to acknowledge delivery", "error", ackErr)
			return
		}
		metrics.EventsAcknowledged.WithLabelValues(delivery.Event.EventType).Inc()
		log.Info("event processed", "state", StateAcknowledged)
		return
	}

	if p.policy.Exhausted(delivery.Attempts) {
		p.deadLetter(ctx, delivery, err, log)
		return
	}

	// Redeliver: wait out the backoff before handing the message back so
	// the delay between attempts holds even though the broker requeues
	// immediately.
	delay := p.policy.DelayFor(delivery.Attempts)
	log.Warn("event processing failed, scheduling redelivery",
		"error", err,
		"state", StateRedelivered,
		"delay", delay)
	p.sleep(ctx, delay)

	if rejErr := delivery.Acker.Reject(true); rejErr != nil {
		log.Warn("failed to requeue delivery", "error", rejErr)
		return
	}
	metrics.EventsRedelivered.Inc()
}

// process applies the notification side effect for the event.
func (p *Processor) process(ctx context.Context, event events.Event) error {
	notification := &domain.Notification{
		EventID:     event.EventID,
		EventType:   event.EventType,
		Payload:     event.Payload,
		EmittedAt:   event.EmittedAt,
		ProcessedAt: time.Now().UTC(),
	}

	if err := notification.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	if err := p.notifications.Upsert(ctx, notification); err != nil {
		return fmt.Errorf("failed to write notification log: %w", err)
	}

	return nil
}

// deadLetter records the event for manual inspection and removes it from
// the active queue. Dead-lettered events are never automatically retried.
func (p *Processor) deadLetter(ctx context.Context, delivery events.Delivery, cause error, log *slog.Logger) {
	letter := &domain.DeadLetter{
		EventID:        delivery.Event.EventID,
		EventType:      delivery.Event.EventType,
		Payload:        delivery.Event.Payload,
		Reason:         cause.Error(),
		Attempts:       delivery.Attempts + 1,
		DeadLetteredAt: time.Now().UTC(),
	}

	if err := p.notifications.RecordDeadLetter(ctx, letter); err != nil {
		// The broker-side dead-letter queue still holds the message, so
		// the event remains inspectable even without the database record.
		log.Error("failed to record dead letter", "error", err)
	}

	if rejErr := delivery.Acker.Reject(false); rejErr != nil {
		log.Error("failed to dead-letter delivery", "error", rejErr)
		return
	}

	metrics.EventsDeadLettered.Inc()
	log.Error("event dead-lettered after exhausting redeliveries",
		"state", StateDeadLettered,
		"cause", cause,
		"attempts", letter.Attempts)
}

// sleepCtx waits for the duration or until the context is cancelled,
// whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
