package consumer

import (
	"time"

	"github.com/phrazzld/tasktrack-api/internal/config"
)

// RetryPolicy governs what happens when processing an event fails: how many
// redeliveries are attempted, and how long to wait before each one. The
// delay is monotonic — it never shrinks between retries — so a struggling
// downstream dependency is not hammered harder as failures accumulate.
type RetryPolicy struct {
	// MaxRedeliveries is the number of redeliveries after the first
	// attempt. Once exceeded, the event is dead-lettered.
	MaxRedeliveries int

	// Delay is the wait before the first redelivery.
	Delay time.Duration

	// BackoffMultiplier scales the delay for each successive redelivery.
	// 1.0 gives a fixed delay; values above 1.0 give exponential backoff.
	// Values below 1.0 are treated as 1.0.
	BackoffMultiplier float64
}

// DefaultRetryPolicy returns a conservative policy: three redeliveries with
// a fixed five-second delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRedeliveries:   3,
		Delay:             5 * time.Second,
		BackoffMultiplier: 1.0,
	}
}

// RetryPolicyFromConfig builds a RetryPolicy from the consumer configuration.
func RetryPolicyFromConfig(cfg config.ConsumerConfig) RetryPolicy {
	return RetryPolicy{
		MaxRedeliveries:   cfg.MaxRedeliveries,
		Delay:             cfg.RedeliveryDelay(),
		BackoffMultiplier: cfg.BackoffMultiplier,
	}
}

// Exhausted reports whether an event delivered attempts times before has no
// redeliveries left.
func (p RetryPolicy) Exhausted(attempts int) bool {
	return attempts >= p.MaxRedeliveries
}

// DelayFor returns the wait before the redelivery following the given
// number of prior attempts. The result never decreases as attempts grow.
func (p RetryPolicy) DelayFor(attempts int) time.Duration {
	multiplier := p.BackoffMultiplier
	if multiplier < 1.0 {
		multiplier = 1.0
	}

	delay := p.Delay
	for i := 0; i < attempts; i++ {
		delay = time.Duration(float64(delay) * multiplier)
	}
	return delay
}
