package tmdb

import (
	"context"
	"sync"
	"time"
)

// pacer implements a simple sliding window limit on outbound calls
type pacer struct {
	mu          sync.Mutex
	requests    []time.Time
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

// newPacer returns nil, which never waits, when pacing is disabled
func newPacer(maxRequests int, window time.Duration) *pacer {
	if maxRequests <= 0 || window <= 0 {
		return nil
	}
	return &pacer{
		maxRequests: maxRequests,
		window:      window,
		requests:    make([]time.Time, 0, maxRequests),
		now:         time.Now,
	}
}

// wait blocks until a call fits in the window or ctx is done
func (p *pacer) wait(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}

	for {
		p.mu.Lock()
		now := p.now()
		p.dropExpired(now)

		if len(p.requests) < p.maxRequests {
			p.requests = append(p.requests, now)
			p.mu.Unlock()
			return nil
		}

		// Small buffer so the oldest call has really left the window
		waitTime := p.window - now.Sub(p.requests[0]) + 10*time.Millisecond
		p.mu.Unlock()

		timer := time.NewTimer(waitTime)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (p *pacer) dropExpired(now time.Time) {
	cutoff := now.Add(-p.window)
	kept := p.requests[:0]
	for _, req := range p.requests {
		if req.After(cutoff) {
			kept = append(kept, req)
		}
	}
	p.requests = kept
}
