package pipeline

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	minRetryDelay = 200 * time.Millisecond
	maxRetryDelay = 5 * time.Second
)

// retryDelay is a doubling delay between failed extract or load attempts.
// A successful extract resets it to the floor.
type retryDelay struct {
	clock    clockwork.Clock
	floor    time.Duration
	ceiling  time.Duration
	current  time.Duration
	attempts int
}

func newRetryDelay(clock clockwork.Clock) *retryDelay {
	return &retryDelay{clock: clock, floor: minRetryDelay, ceiling: maxRetryDelay, current: minRetryDelay}
}

func (r *retryDelay) reset() {
	r.current = r.floor
	r.attempts = 0
}

// wait sleeps for the current delay and then doubles it, up to the ceiling.
// It reports false if ctx ends first.
func (r *retryDelay) wait(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	timer := r.clock.NewTimer(r.current)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
	}

	r.attempts++
	r.current = min(r.current*2, r.ceiling)
	return true
}
