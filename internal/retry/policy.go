// Package retry defines the reconnection policy for failed transfers.
package retry

import (
	"context"
	"time"
)

// Policy bounds reconnection attempts and fixes the delay between them.
// It is a value passed into the connection manager, so tests inject a
// zero-delay policy and stay deterministic.
type Policy struct {
	// MaxAttempts is the total number of connect-and-send attempts per
	// file, including the first.
	MaxAttempts int

	// Delay is the fixed interval observed between attempts.
	Delay time.Duration
}

// Default mirrors the reference behavior: three attempts, five seconds apart.
func Default() Policy {
	return Policy{MaxAttempts: 3, Delay: 5 * time.Second}
}

// Normalized clamps a policy to at least one attempt.
func (p Policy) Normalized() Policy {
	out := p
	if out.MaxAttempts < 1 {
		out.MaxAttempts = 1
	}
	if out.Delay < 0 {
		out.Delay = 0
	}
	return out
}

// Wait blocks for the inter-attempt delay or until ctx is cancelled.
func (p Policy) Wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
