// Package ratelimit provides the per-player, per-event fixed-window limiter
// that gates inbound realtime traffic.
package ratelimit

import (
	"sync"
	"time"
)

// EventType names a rate-limited inbound event class.
type EventType string

const (
	EventLocation EventType = "location:update"
	EventTag      EventType = "tag:attempt"
)

// Limit is the budget for one event class within a fixed window.
type Limit struct {
	Max    int
	Window time.Duration
}

// DefaultLimits matches the engine's inbound event budget.
func DefaultLimits() map[EventType]Limit {
	return map[EventType]Limit{
		EventLocation: {Max: 120, Window: time.Minute},
		EventTag:      {Max: 30, Window: time.Minute},
	}
}

// Decision is the outcome of one Allow call. A denied event is retryable;
// RetryAfter hints when the window resets.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

type window struct {
	start time.Time
	count int
}

// Limiter counts events per player+event in fixed windows. Safe for
// concurrent use.
type Limiter struct {
	mu      sync.Mutex
	limits  map[EventType]Limit
	windows map[string]*window

	now func() time.Time
}

// New creates a limiter with the given budgets. Unknown event types are
// always allowed.
func New(limits map[EventType]Limit) *Limiter {
	return &Limiter{
		limits:  limits,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow records one event and reports whether it fits the player's budget.
func (l *Limiter) Allow(playerID string, ev EventType) Decision {
	limit, ok := l.limits[ev]
	if !ok {
		return Decision{Allowed: true}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := playerID + "|" + string(ev)
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= limit.Window {
		w = &window{start: now}
		l.windows[key] = w
	}

	if w.count >= limit.Max {
		return Decision{
			Allowed:    false,
			RetryAfter: limit.Window - now.Sub(w.start),
		}
	}
	w.count++
	return Decision{Allowed: true}
}

// Forget drops all windows for a player, e.g. on disconnect.
func (l *Limiter) Forget(playerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key := range l.windows {
		if len(key) > len(playerID) && key[:len(playerID)] == playerID && key[len(playerID)] == '|' {
			delete(l.windows, key)
		}
	}
}

// Sweep removes windows that expired before now, bounding memory between
// bursts. Returns how many windows were removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, w := range l.windows {
		expired := true
		for _, limit := range l.limits {
			if now.Sub(w.start) < limit.Window {
				expired = false
				break
			}
		}
		if expired {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}
