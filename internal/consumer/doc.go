// Package consumer implements the notification worker's event processing
// loop: dequeue, apply the idempotent notification side effect, and settle
// with the broker (acknowledge, requeue for retry, or dead-letter).
//
// Delivery is at-least-once, so the loop is written to tolerate duplicates
// and concurrent worker instances; the broker delivers each message to one
// instance, and the upsert-by-event-ID side effect absorbs redeliveries.
package consumer
