package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pwnpy/sharesentry/internal/core/domain"
)

// Throttle enforces a minimum spacing between outbound requests.
// It is a token bucket with a burst of one, refilled once per interval, so
// consecutive Wait returns are at least one interval apart and a caller that
// is already late never waits.
type Throttle struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	interval time.Duration
	clock    Clock
}

// NewThrottle creates a throttle with a fixed interval.
// A non-positive interval disables throttling. A nil clock uses the wall clock.
func NewThrottle(interval time.Duration, clock Clock) *Throttle {
	if clock == nil {
		clock = SystemClock{}
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Throttle{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
		clock:    clock,
	}
}

// NewThrottleForClass picks the interval for an identity class from policy.
func NewThrottleForClass(policy domain.ThrottlePolicy, class domain.IdentityClass, clock Clock) *Throttle {
	return NewThrottle(policy.Interval(class), clock)
}

// Interval returns the configured spacing.
func (t *Throttle) Interval() time.Duration {
	if t == nil {
		return 0
	}
	return t.interval
}

// Wait blocks until the next request may start. A nil throttle never blocks.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Serialise reservations so two callers cannot both observe a full bucket.
	t.mu.Lock()
	now := t.clock.Now()
	r := t.limiter.ReserveN(now, 1)
	t.mu.Unlock()

	if !r.OK() {
		return fmt.Errorf("throttle: cannot reserve request slot")
	}

	delay := ceilMicro(r.DelayFrom(now))
	if delay <= 0 {
		return nil
	}
	if err := t.clock.Sleep(ctx, delay); err != nil {
		r.CancelAt(t.clock.Now())
		return err
	}
	return nil
}

// ceilMicro rounds d up to whole microseconds. The limiter works in float
// tokens and can undershoot the exact remaining interval by a few nanoseconds.
func ceilMicro(d time.Duration) time.Duration {
	if rem := d % time.Microsecond; rem > 0 {
		d += time.Microsecond - rem
	}
	return d
}
