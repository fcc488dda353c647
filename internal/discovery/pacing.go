package discovery

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out upstream search calls. Wait blocks until the next call may start.
type Pacer interface {
	Wait(ctx context.Context) error
}

// NewRatePacer returns a Pacer that lets one call start per interval. The first
// call starts immediately. A non-positive interval disables pacing.
func NewRatePacer(interval time.Duration) Pacer {
	if interval <= 0 {
		return NoDelay{}
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// NoDelay is a Pacer that never waits. It still honours cancellation.
type NoDelay struct{}

// Wait returns ctx.Err() without blocking.
func (NoDelay) Wait(ctx context.Context) error {
	return ctx.Err()
}
