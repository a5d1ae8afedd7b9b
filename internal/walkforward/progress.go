package walkforward

import (
	"sync"

	"golang.org/x/time/rate"
)

// ProgressFunc receives a monotonically increasing percentage plus a
// short human-readable step label, suitable for UI progress indicators.
type ProgressFunc func(percent float64, step string)

// progressTracker throttles progress callbacks so large grids do not
// flood the consumer, and drops out-of-order percentages from parallel
// window completions so the reported value stays monotonic. One tracker
// is created per run; the Runner itself holds no per-run state.
type progressTracker struct {
	fn      ProgressFunc
	limiter *rate.Limiter
	mu      sync.Mutex
	last    float64
}

func newProgressTracker(fn ProgressFunc, limit rate.Limit) *progressTracker {
	if fn == nil {
		return nil
	}
	return &progressTracker{fn: fn, limiter: rate.NewLimiter(limit, 1)}
}

// report emits a progress update. Forced updates (start, completion)
// bypass the rate limiter but still respect monotonicity.
func (p *progressTracker) report(percent float64, step string, force bool) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if percent < p.last {
		return
	}
	if !force && !p.limiter.Allow() {
		return
	}
	p.last = percent
	p.fn(percent, step)
}
