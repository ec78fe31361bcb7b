package protocol

import (
	"sync"
	"time"
)

// Rate limiting defaults
const (
	DefaultRateLimit  = 20
	DefaultRateWindow = time.Second
)

// RateLimiter enforces a sliding-window message budget per connection.
// A denied message is dropped with an error reply; the connection is
// never punished beyond that.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	history map[string][]time.Time
	now     func() time.Time
}

// NewRateLimiter returns a limiter allowing limit messages per window.
// Non-positive arguments select the defaults.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &RateLimiter{
		limit:   limit,
		window:  window,
		history: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records one message attempt for the connection and reports
// whether it fits the window.
func (r *RateLimiter) Allow(connID string) bool {
	now := r.now()
	cutoff := now.Add(-r.window)

	r.mu.Lock()
	defer r.mu.Unlock()

	recent := r.history[connID][:0]
	for _, t := range r.history[connID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	if len(recent) >= r.limit {
		r.history[connID] = recent
		return false
	}
	r.history[connID] = append(recent, now)
	return true
}

// Forget drops a connection's window, typically on disconnect.
func (r *RateLimiter) Forget(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.history, connID)
}
