package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the per-client limiter.
type RateLimitConfig struct {
	// Max requests per Window.
	Max    int
	Window time.Duration
	// Key selects the bucket of a request. Defaults to ClientIP.
	Key func(*http.Request) string
}

// window holds the counters of the current and the previous fixed window.
// The effective count interpolates the previous one over the elapsed part of
// the current window.
type window struct {
	start time.Time
	curr  int
	prev  int
}

// Limiter is a sliding window rate limiter keyed by client.
type Limiter struct {
	max    int
	period time.Duration
	key    func(*http.Request) string
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// NewLimiter returns a Limiter for cfg.
func NewLimiter(cfg RateLimitConfig) *Limiter {
	l := &Limiter{
		max:     cfg.Max,
		period:  cfg.Window,
		key:     cfg.Key,
		now:     time.Now,
		windows: make(map[string]*window),
	}
	if l.key == nil {
		l.key = ClientIP
	}
	return l
}

// take counts one request of key. It reports the remaining budget, the end
// of the current window and whether the request is allowed.
func (l *Limiter) take(key string) (int, time.Time, bool) {
	now := l.now()
	start := now.Truncate(l.period)

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	switch {
	case !ok:
		w = &window{start: start}
		l.windows[key] = w
	case start.Sub(w.start) >= 2*l.period:
		*w = window{start: start}
	case start.After(w.start):
		*w = window{start: start, prev: w.curr}
	}

	reset := w.start.Add(l.period)
	weight := 1 - float64(now.Sub(w.start))/float64(l.period)
	used := float64(w.prev)*weight + float64(w.curr)
	if used >= float64(l.max) {
		return 0, reset, false
	}
	w.curr++
	return max(0, int(float64(l.max)-used-1)), reset, true
}

// Sweep drops the windows that no longer affect any decision.
func (l *Limiter) Sweep() {
	cutoff := l.now().Truncate(l.period).Add(-l.period)

	l.mu.Lock()
	defer l.mu.Unlock()
	for k, w := range l.windows {
		if w.start.Before(cutoff) {
			delete(l.windows, k)
		}
	}
}

// Run sweeps stale windows every other period until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	t := time.NewTicker(2 * l.period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep()
		}
	}
}

// Middleware rejects requests over the limit with 429. Every response
// carries the X-RateLimit-* headers.
func (l *Limiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, reset, ok := l.take(l.key(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(l.max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			if !ok {
				wait := max(0, reset.Sub(l.now()).Seconds())
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait))))
				writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit returns the middleware of a limiter that sweeps stale windows
// until ctx is done.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := NewLimiter(cfg)
	go l.Run(ctx)
	return l.Middleware()
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP or the remote
// host, in that order.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
