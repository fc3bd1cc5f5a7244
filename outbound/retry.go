package outbound

import (
	"fmt"
	"time"
)

type RetryPolicy interface {
	NextDelay(attempt int) time.Duration
}

type ExponentialRetryPolicy struct {
	Initial time.Duration
	Max     time.Duration
}

func (p ExponentialRetryPolicy) NextDelay(attempt int) time.Duration {
	initial := p.Initial
	if initial <= 0 {
		initial = 10 * time.Second
	}
	maximum := p.Max
	if maximum <= 0 {
		maximum = 10 * time.Minute
	}
	delay := initial
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maximum {
			return maximum
		}
	}
	if delay > maximum {
		return maximum
	}
	return delay
}

// RetryableError signals the queue that the delivery should be
// redelivered after the embedded delay.
type RetryableError struct {
	After time.Duration
	Cause error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("outbound: delivery failed, retry in %s: %v", e.After, e.Cause)
}

func (e *RetryableError) Unwrap() error {
	return e.Cause
}
