package events

import "context"

// Acker is the explicit settlement handle paired with each delivery.
// Exactly one of Ack or Reject should be called per delivery.
type Acker interface {
	// Ack confirms successful processing; the broker removes the message
	// from the queue.
	Ack() error

	// Reject signals failed processing. With requeue true the broker
	// redelivers the message after its redelivery delay; with requeue
	// false the message is routed to the dead-letter queue.
	Reject(requeue bool) error
}

// Delivery is one inbound message from the queue: the decoded event, how
// many times it was delivered before, and the handle used to settle it.
type Delivery struct {
	Event Event

	// Attempts counts prior deliveries of this message: 0 for a first
	// delivery, 1 after one redelivery, and so on.
	Attempts int

	Acker Acker
}

// Subscriber provides a restartable stream of deliveries from the durable
// queue. The channel blocks when no messages are pending and is closed when
// the context is cancelled or the broker connection is lost; callers
// re-subscribe to resume, and unacknowledged messages are redelivered
// (at-least-once).
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan Delivery, error)
}
