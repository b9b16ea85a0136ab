// Package ratelimit implements the per-client sliding-window message
// limiter used by the lobby to keep spammy clients from flooding the
// broadcast path.
package ratelimit

import (
	"time"
)

// Limiter bounds the number of messages a client may send inside a
// trailing time window. Timestamps are recorded per client and pruned
// lazily on each check.
//
// Limiter is not safe for concurrent use; the lobby confines it to its
// serialization domain.
type Limiter struct {
	maxMessages int
	window      time.Duration
	times       map[string][]time.Time

	// now is swappable for tests. time.Now carries a monotonic reading,
	// so wall-clock adjustments cannot produce admission anomalies.
	now func() time.Time
}

// New creates a limiter allowing maxMessages per window for each client.
func New(maxMessages int, window time.Duration) *Limiter {
	return &Limiter{
		maxMessages: maxMessages,
		window:      window,
		times:       make(map[string][]time.Time),
		now:         time.Now,
	}
}

// Allow reports whether clientID may send another message. Admitted calls
// are recorded against the window; rejected calls are not.
func (l *Limiter) Allow(clientID string) bool {
	now := l.now()
	cutoff := now.Add(-l.window)

	recent := l.times[clientID][:0]
	for _, t := range l.times[clientID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.maxMessages {
		l.times[clientID] = recent
		return false
	}

	l.times[clientID] = append(recent, now)
	return true
}

// Remove drops all window state for clientID. Must be called when a
// client disconnects so the map does not grow unbounded.
func (l *Limiter) Remove(clientID string) {
	delete(l.times, clientID)
}

// Tracked returns the number of clients with recorded state. Used by
// tests and the status endpoint.
func (l *Limiter) Tracked() int {
	return len(l.times)
}
