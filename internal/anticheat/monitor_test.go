package anticheat

import (
	"fmt"
	"testing"
	"time"

	"github.com/justinnewbold/TAG-sub002/internal/model"
)

// northAt returns a sample displaced north of a base point so that moving to
// it from the base in 10s implies roughly the given speed in m/s.
func northAt(speed float64, at time.Time) model.LocationSample {
	// 1 degree of latitude is ~111,195 m on the Haversine sphere.
	deltaDeg := speed * 10 / 111195.0
	return model.LocationSample{Lat: 37.0 + deltaDeg, Lng: -122.0, Timestamp: at}
}

func feed(m *Monitor, player string, speed float64, base time.Time) Assessment {
	m.Check(player, model.LocationSample{Lat: 37.0, Lng: -122.0, Timestamp: base})
	return m.Check(player, northAt(speed, base.Add(10*time.Second)))
}

func TestClassification(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		speed     float64
		wantValid bool
		wantSev   Severity
	}{
		{10, true, SeverityNone},
		{20, true, SeverityLow},
		{50, false, SeverityMedium},
		{150, false, SeverityHigh},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%.0fmps", tc.speed), func(t *testing.T) {
			m := New(5*time.Minute, 1000)
			a := feed(m, "p1", tc.speed, base)
			if a.Valid != tc.wantValid || a.Severity != tc.wantSev {
				t.Fatalf("classify(%.0f m/s) = {valid:%v sev:%d speed:%.1f}, want {valid:%v sev:%d}",
					tc.speed, a.Valid, a.Severity, a.SpeedMS, tc.wantValid, tc.wantSev)
			}
		})
	}
}

func TestFirstSampleAlwaysNormal(t *testing.T) {
	m := New(5*time.Minute, 1000)
	a := m.Check("p1", model.LocationSample{Lat: 37, Lng: -122, Timestamp: time.Now()})
	if !a.Valid || a.Severity != SeverityNone || a.SpeedMS != 0 {
		t.Fatalf("first sample should be normal, got %+v", a)
	}
}

func TestTeleportNotMergedIntoHistory(t *testing.T) {
	m := New(5*time.Minute, 1000)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	m.Check("p1", model.LocationSample{Lat: 37.0, Lng: -122.0, Timestamp: base})
	a := m.Check("p1", model.LocationSample{Lat: 38.0, Lng: -122.0, Timestamp: base.Add(10 * time.Second)})
	if a.Severity != SeverityHigh {
		t.Fatalf("expected teleport, got %+v", a)
	}

	// The next sample near the original point must be judged against the
	// original anchor, not the teleported one.
	b := m.Check("p1", model.LocationSample{Lat: 37.0001, Lng: -122.0, Timestamp: base.Add(20 * time.Second)})
	if !b.Valid || b.Severity != SeverityNone {
		t.Fatalf("sample after dropped teleport should be normal, got %+v", b)
	}
}

func TestViolationCountingAndFlag(t *testing.T) {
	m := New(5*time.Minute, 1000)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	m.Check("p1", model.LocationSample{Lat: 37.0, Lng: -122.0, Timestamp: base})
	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i+1) * 10 * time.Second)
		// Bounce between two points 500 m apart so every hop implies ~50 m/s.
		s := northAt(50, at)
		if i%2 == 1 {
			s = model.LocationSample{Lat: 37.0, Lng: -122.0, Timestamp: at}
		}
		a := m.Check("p1", s)
		if a.Valid {
			t.Fatalf("iteration %d: expected invalid sample, got %+v", i, a)
		}
	}

	if got := m.Violations("p1"); got != 5 {
		t.Fatalf("violations = %d, want 5", got)
	}
	if !m.ShouldFlag("p1") {
		t.Fatal("expected flag after 5 recent violations")
	}
	if m.ShouldFlag("p2") {
		t.Fatal("unknown player must not be flagged")
	}
}

func TestFlagExpiresWithStaleViolations(t *testing.T) {
	m := New(5*time.Minute, 1000)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	m.now = func() time.Time { return current }

	m.Check("p1", model.LocationSample{Lat: 37.0, Lng: -122.0, Timestamp: base})
	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i+1) * 10 * time.Second)
		s := northAt(50, at)
		if i%2 == 1 {
			s = model.LocationSample{Lat: 37.0, Lng: -122.0, Timestamp: at}
		}
		m.Check("p1", s)
	}
	if !m.ShouldFlag("p1") {
		t.Fatal("expected flag while violations are fresh")
	}

	current = base.Add(10 * time.Minute)
	if m.ShouldFlag("p1") {
		t.Fatal("flag must expire once the last violation is older than the window")
	}
}

func TestSweepAndForget(t *testing.T) {
	m := New(5*time.Minute, 1000)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	m.now = func() time.Time { return current }

	m.Check("idle", model.LocationSample{Lat: 37, Lng: -122, Timestamp: base})
	current = base.Add(6 * time.Minute)
	m.Check("fresh", model.LocationSample{Lat: 37, Lng: -122, Timestamp: current})

	if purged := m.Sweep(); purged != 1 {
		t.Fatalf("sweep purged %d, want 1", purged)
	}
	if m.Tracked() != 1 {
		t.Fatalf("tracked = %d after sweep, want 1", m.Tracked())
	}

	m.Forget("fresh")
	if m.Tracked() != 0 {
		t.Fatalf("tracked = %d after forget, want 0", m.Tracked())
	}
}

func TestHardCapForcesEagerSweep(t *testing.T) {
	m := New(5*time.Minute, 2)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	m.now = func() time.Time { return current }

	m.Check("a", model.LocationSample{Lat: 37, Lng: -122, Timestamp: base})
	m.Check("b", model.LocationSample{Lat: 37, Lng: -122, Timestamp: base})

	// Both entries go stale; admitting a third player must trigger the
	// eager sweep instead of growing past the cap.
	current = base.Add(10 * time.Minute)
	m.Check("c", model.LocationSample{Lat: 37, Lng: -122, Timestamp: current})

	if got := m.Tracked(); got != 1 {
		t.Fatalf("tracked = %d after capped insert, want 1", got)
	}
}
