package events

import (
	"context"
	"errors"
)

// ErrBrokerUnavailable indicates the broker did not confirm receipt of a
// published event within the configured bound, or could not be reached at
// all. The event may or may not have entered the durable queue; the caller
// decides whether to fail its own operation or proceed and accept a lost
// notification. That decision belongs at the call site, never inside the
// publisher.
var ErrBrokerUnavailable = errors.New("message broker unavailable")

// Publisher hands domain events to the broker with delivery-confirmation
// semantics: Publish returns nil only once the broker has acknowledged that
// the event entered the durable queue. There is no fire-and-forget path.
type Publisher interface {
	// Publish serializes the event and waits, bounded by the configured
	// timeout, for broker confirmation. Returns ErrBrokerUnavailable
	// (possibly wrapped) when confirmation does not arrive.
	Publish(ctx context.Context, event *Event) error
}
