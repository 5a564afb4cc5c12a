package ratelimit

import (
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	csmap "github.com/mhmtszr/concurrent-swiss-map"
	"go.uber.org/zap"

	"github.com/BenWassa/hearth/internal/config"
	"github.com/BenWassa/hearth/internal/log"
)

// UnknownClient is the identifier shared by requests that carry no
// forwarded-for address.
const UnknownClient = "unknown"

// Decision captures the result of a rate limit check.
type Decision struct {
	Allowed      bool   `json:"allowed"`
	Remaining    int    `json:"remaining"`
	RetryAfterMs *int64 `json:"retryAfterMs,omitempty"` // set only when denied
	Mode         Mode   `json:"-"`
	Key          string `json:"-"`
}

// RetryAfter returns the advised wait as a duration, zero when allowed.
func (d Decision) RetryAfter() time.Duration {
	if d.RetryAfterMs == nil {
		return 0
	}
	return time.Duration(*d.RetryAfterMs) * time.Millisecond
}

type bucketState struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	evicted    bool
}

type windowState struct {
	mu          sync.Mutex
	count       int
	windowStart time.Time
	evicted     bool
}

// Limiter is an in-memory admission controller keyed by scope and client.
//
// Token-bucket and fixed-window state live in separate maps and never
// consult each other. Each key's state is guarded by its own mutex, so
// decisions for one key are linearizable and different keys never contend
// on a shared lock.
type Limiter struct {
	env    config.Env
	clock  Clock
	logger *zap.Logger

	buckets *csmap.CsMap[string, *bucketState]
	windows *csmap.CsMap[string, *windowState]
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock sets the time source.
func WithClock(c Clock) Option {
	return func(l *Limiter) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithLogger sets the logger used for denial diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Limiter) {
		l.logger = log.OrNop(logger)
	}
}

// New creates a limiter whose settings are read from env on every check.
func New(env config.Env, opts ...Option) *Limiter {
	l := &Limiter{
		env:     env,
		clock:   RealClock{},
		logger:  zap.NewNop(),
		buckets: csmap.Create[string, *bucketState](),
		windows: csmap.Create[string, *windowState](),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check admits or denies one request in scope for the client behind r.
func (l *Limiter) Check(r *http.Request, scope string) Decision {
	return l.CheckClient(ClientIdentifier(r), scope)
}

// CheckClient admits or denies one call in scope for clientID.
func (l *Limiter) CheckClient(clientID, scope string) Decision {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		clientID = UnknownClient
	}
	key := scope + ":" + clientID

	s := LoadSettings(l.env)
	now := l.clock.Now()

	var d Decision
	if s.Mode == ModeTokenBucket {
		d = l.takeToken(key, s, s.Weight(scope), now)
	} else {
		d = l.countWindow(key, s, now)
	}
	d.Key = key
	d.Mode = s.Mode

	if !d.Allowed {
		l.logger.Debug("rate limit denied",
			zap.String("key", key),
			zap.String("mode", string(s.Mode)),
			zap.Duration("retry_after", d.RetryAfter()))
	}
	return d
}

func (l *Limiter) takeToken(key string, s Settings, cost int, now time.Time) Decision {
	for {
		b, ok := l.buckets.Load(key)
		if !ok {
			l.buckets.SetIfAbsent(key, &bucketState{tokens: s.BurstCapacity, lastRefill: now})
			continue
		}

		b.mu.Lock()
		if b.evicted {
			// A concurrent Prune removed this entry; pick up the fresh one.
			b.mu.Unlock()
			continue
		}
		d := b.take(s, float64(cost), now)
		b.mu.Unlock()
		return d
	}
}

func (b *bucketState) take(s Settings, cost float64, now time.Time) Decision {
	if elapsed := now.Sub(b.lastRefill); elapsed > 0 {
		b.tokens += s.RatePerSecond * elapsed.Seconds()
		b.lastRefill = now
	}
	b.tokens = math.Min(s.BurstCapacity, b.tokens)

	if b.tokens >= cost {
		b.tokens -= cost
		return Decision{Allowed: true, Remaining: int(math.Floor(b.tokens))}
	}

	retry := int64(math.Ceil((cost - b.tokens) * 1000 / s.RatePerSecond))
	if retry < 1 {
		retry = 1
	}
	return Decision{Allowed: false, Remaining: 0, RetryAfterMs: &retry}
}

func (l *Limiter) countWindow(key string, s Settings, now time.Time) Decision {
	for {
		w, ok := l.windows.Load(key)
		if !ok {
			// The zero windowStart reads as expired, so the first call opens a window.
			l.windows.SetIfAbsent(key, &windowState{})
			continue
		}

		w.mu.Lock()
		if w.evicted {
			w.mu.Unlock()
			continue
		}
		d := w.count1(s, now)
		w.mu.Unlock()
		return d
	}
}

func (w *windowState) count1(s Settings, now time.Time) Decision {
	if w.windowStart.IsZero() || now.Sub(w.windowStart) > s.Window {
		w.windowStart = now
		w.count = 1
		return Decision{Allowed: true, Remaining: s.MaxRequests - 1}
	}

	if w.count < s.MaxRequests {
		w.count++
		return Decision{Allowed: true, Remaining: s.MaxRequests - w.count}
	}

	retry := (s.Window - now.Sub(w.windowStart)).Milliseconds()
	if retry < 1 {
		retry = 1
	}
	return Decision{Allowed: false, Remaining: 0, RetryAfterMs: &retry}
}

// Prune drops state that is indistinguishable from a fresh key: buckets
// that have refilled to capacity and have been idle for at least idle, and
// windows that have expired. It returns the number of entries removed.
func (l *Limiter) Prune(idle time.Duration) int {
	s := LoadSettings(l.env)
	now := l.clock.Now()
	removed := 0

	var bucketKeys []string
	l.buckets.Range(func(key string, _ *bucketState) bool {
		bucketKeys = append(bucketKeys, key)
		return false
	})
	for _, key := range bucketKeys {
		b, ok := l.buckets.Load(key)
		if !ok {
			continue
		}
		b.mu.Lock()
		elapsed := now.Sub(b.lastRefill)
		full := s.Mode != ModeTokenBucket ||
			b.tokens+s.RatePerSecond*elapsed.Seconds() >= s.BurstCapacity
		if !b.evicted && elapsed >= idle && full {
			b.evicted = true
			l.buckets.Delete(key)
			removed++
		}
		b.mu.Unlock()
	}

	var windowKeys []string
	l.windows.Range(func(key string, _ *windowState) bool {
		windowKeys = append(windowKeys, key)
		return false
	})
	for _, key := range windowKeys {
		w, ok := l.windows.Load(key)
		if !ok {
			continue
		}
		w.mu.Lock()
		expired := w.windowStart.IsZero() || now.Sub(w.windowStart) > s.Window
		if !w.evicted && expired && now.Sub(w.windowStart) >= idle {
			w.evicted = true
			l.windows.Delete(key)
			removed++
		}
		w.mu.Unlock()
	}

	if removed > 0 {
		l.logger.Debug("pruned idle rate limit state", zap.Int("removed", removed))
	}
	return removed
}

// Len returns the number of tracked keys across both modes.
func (l *Limiter) Len() int {
	return l.buckets.Count() + l.windows.Count()
}
