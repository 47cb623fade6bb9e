package ratelimit

import (
	"testing"
	"time"
)

func testLimiter(max int, win time.Duration) (*Limiter, *time.Time) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := New(map[EventType]Limit{EventTag: {Max: max, Window: win}})
	l.now = func() time.Time { return current }
	return l, &current
}

func TestAllowWithinBudget(t *testing.T) {
	l, _ := testLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if d := l.Allow("p1", EventTag); !d.Allowed {
			t.Fatalf("event %d should be allowed", i)
		}
	}
	d := l.Allow("p1", EventTag)
	if d.Allowed {
		t.Fatal("fourth event should be denied")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > time.Minute {
		t.Fatalf("retry-after hint = %v, want within (0, 1m]", d.RetryAfter)
	}
}

func TestWindowReset(t *testing.T) {
	l, current := testLimiter(1, time.Minute)

	if d := l.Allow("p1", EventTag); !d.Allowed {
		t.Fatal("first event should be allowed")
	}
	if d := l.Allow("p1", EventTag); d.Allowed {
		t.Fatal("second event in window should be denied")
	}

	*current = current.Add(61 * time.Second)
	if d := l.Allow("p1", EventTag); !d.Allowed {
		t.Fatal("event after window reset should be allowed")
	}
}

func TestPlayersAreIndependent(t *testing.T) {
	l, _ := testLimiter(1, time.Minute)

	l.Allow("p1", EventTag)
	if d := l.Allow("p2", EventTag); !d.Allowed {
		t.Fatal("p2 must not be throttled by p1's events")
	}
}

func TestUnknownEventAlwaysAllowed(t *testing.T) {
	l, _ := testLimiter(0, time.Minute)
	if d := l.Allow("p1", EventType("other")); !d.Allowed {
		t.Fatal("unconfigured event types must pass")
	}
}

func TestForgetAndSweep(t *testing.T) {
	l, current := testLimiter(5, time.Minute)

	l.Allow("p1", EventTag)
	l.Allow("p2", EventTag)

	l.Forget("p1")
	if len(l.windows) != 1 {
		t.Fatalf("windows = %d after forget, want 1", len(l.windows))
	}

	*current = current.Add(2 * time.Minute)
	if removed := l.Sweep(); removed != 1 {
		t.Fatalf("sweep removed %d, want 1", removed)
	}
	if len(l.windows) != 0 {
		t.Fatalf("windows = %d after sweep, want 0", len(l.windows))
	}
}
