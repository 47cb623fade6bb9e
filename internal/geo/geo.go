// Package geo holds the pure location math the engine is built on: great-
// circle distance, speed between samples, geofence containment and the
// no-tag rule evaluation that gates tagging.
package geo

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/justinnewbold/TAG-sub002/internal/model"
)

// earthRadiusM is the spherical Earth radius used by the Haversine formula.
const earthRadiusM = 6371000.0

// Distance returns the great-circle distance in meters between two points.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// Speed returns meters per second between two samples. Missing timestamps or
// a zero time delta yield 0: no evidence of movement rather than an error.
func Speed(a, b model.LocationSample) float64 {
	if a.Timestamp.IsZero() || b.Timestamp.IsZero() {
		return 0
	}
	dt := b.Timestamp.Sub(a.Timestamp).Seconds()
	if dt < 0 {
		dt = -dt
	}
	if dt == 0 {
		return 0
	}
	return Distance(a.Lat, a.Lng, b.Lat, b.Lng) / dt
}

// PointInZone reports whether the point lies inside the geofence circle.
func PointInZone(p model.LatLng, zone model.GeoZone) bool {
	return Distance(p.Lat, p.Lng, zone.Center.Lat, zone.Center.Lng) <= zone.RadiusM
}

// TimeRuleActive reports whether the recurring window covers now. A rule
// whose End precedes its Start wraps past midnight.
func TimeRuleActive(rule model.TimeRule, now time.Time) bool {
	day := int(now.Weekday())
	dayMatch := false
	for _, d := range rule.Days {
		if d == day {
			dayMatch = true
			break
		}
	}
	if !dayMatch {
		return false
	}

	start, okS := parseClock(rule.Start)
	end, okE := parseClock(rule.End)
	if !okS || !okE {
		return false
	}
	cur := now.Hour()*60 + now.Minute()

	if end < start {
		return cur >= start || cur <= end
	}
	return cur >= start && cur <= end
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
