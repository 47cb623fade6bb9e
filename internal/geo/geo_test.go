package geo

import (
	"math"
	"testing"
	"time"

	"github.com/justinnewbold/TAG-sub002/internal/model"
)

func TestDistanceIdentityAndSymmetry(t *testing.T) {
	points := []model.LatLng{
		{Lat: 0, Lng: 0},
		{Lat: 37.7749, Lng: -122.4194},
		{Lat: -33.8688, Lng: 151.2093},
	}
	for _, p := range points {
		if d := Distance(p.Lat, p.Lng, p.Lat, p.Lng); d != 0 {
			t.Fatalf("Distance(p,p) = %f, want 0", d)
		}
	}
	a, b := points[1], points[2]
	ab := Distance(a.Lat, a.Lng, b.Lat, b.Lng)
	ba := Distance(b.Lat, b.Lng, a.Lat, a.Lng)
	if math.Abs(ab-ba) > 1e-6 {
		t.Fatalf("distance not symmetric: %f vs %f", ab, ba)
	}
}

func TestDistanceSFToLA(t *testing.T) {
	// San Francisco to Los Angeles is roughly 559 km.
	d := Distance(37.7749, -122.4194, 34.0522, -118.2437)
	want := 559000.0
	if math.Abs(d-want)/want > 0.01 {
		t.Fatalf("SF-LA distance = %.0f m, want within 1%% of %.0f m", d, want)
	}
}

func TestSpeed(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// Two samples roughly 100 m apart along a meridian, 10 s apart.
	a := model.LocationSample{Lat: 37.0000, Lng: -122.0, Timestamp: base}
	b := model.LocationSample{Lat: 37.0009, Lng: -122.0, Timestamp: base.Add(10 * time.Second)}

	v := Speed(a, b)
	if math.Abs(v-10) > 0.5 {
		t.Fatalf("speed = %.2f m/s, want ~10", v)
	}
	// Order must not matter.
	if rev := Speed(b, a); math.Abs(rev-v) > 1e-9 {
		t.Fatalf("speed not symmetric: %f vs %f", rev, v)
	}
}

func TestSpeedGuards(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := model.LocationSample{Lat: 37, Lng: -122, Timestamp: base}

	if v := Speed(a, model.LocationSample{Lat: 38, Lng: -122}); v != 0 {
		t.Fatalf("missing timestamp should yield 0, got %f", v)
	}
	same := model.LocationSample{Lat: 38, Lng: -122, Timestamp: base}
	if v := Speed(a, same); v != 0 {
		t.Fatalf("zero time delta should yield 0, got %f", v)
	}
}

func TestPointInZone(t *testing.T) {
	zone := model.GeoZone{Center: model.LatLng{Lat: 37.0, Lng: -122.0}, RadiusM: 100}
	cases := []struct {
		name  string
		point model.LatLng
		want  bool
	}{
		{"center", model.LatLng{Lat: 37.0, Lng: -122.0}, true},
		{"inside", model.LatLng{Lat: 37.0005, Lng: -122.0}, true},
		{"outside", model.LatLng{Lat: 37.01, Lng: -122.0}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PointInZone(tc.point, zone); got != tc.want {
				t.Fatalf("PointInZone = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTimeRuleActive(t *testing.T) {
	rule := model.TimeRule{
		Days:  []int{0, 1, 2, 3, 4, 5, 6},
		Start: "22:00",
		End:   "06:00",
	}
	clock := func(h, m int) time.Time {
		return time.Date(2025, 6, 2, h, m, 0, 0, time.UTC) // a Monday
	}

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before midnight", clock(23, 30), true},
		{"after midnight", clock(2, 0), true},
		{"start boundary", clock(22, 0), true},
		{"end boundary", clock(6, 0), true},
		{"midday", clock(12, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TimeRuleActive(rule, tc.at); got != tc.want {
				t.Fatalf("TimeRuleActive(%v) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

func TestTimeRuleDayFilter(t *testing.T) {
	rule := model.TimeRule{Days: []int{2}, Start: "09:00", End: "17:00"} // Tuesdays only
	tuesday := time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)
	wednesday := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)

	if !TimeRuleActive(rule, tuesday) {
		t.Fatal("expected rule active on Tuesday noon")
	}
	if TimeRuleActive(rule, wednesday) {
		t.Fatal("expected rule inactive on Wednesday")
	}
}

func TestTimeRuleBadClock(t *testing.T) {
	rule := model.TimeRule{Days: []int{0, 1, 2, 3, 4, 5, 6}, Start: "nope", End: "06:00"}
	if TimeRuleActive(rule, time.Now()) {
		t.Fatal("malformed clock string must never activate a rule")
	}
}
