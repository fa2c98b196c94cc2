package consumer

// DeliveryState tracks where a dequeued event is in its lifecycle. The
// state is consumer-internal bookkeeping: the broker owns the queue, and
// these values only name the transitions for logging and tests.
type DeliveryState string

// Delivery lifecycle: Pending -> Processing -> one of the terminal
// settlements. Redelivered events come back around as Pending.
const (
	StatePending      DeliveryState = "pending"
	StateProcessing   DeliveryState = "processing"
	StateAcknowledged DeliveryState = "acknowledged"
	StateRedelivered  DeliveryState = "redelivered"
	StateDeadLettered DeliveryState = "dead_lettered"
)
