package model

import "time"

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// GeoZone is a circular no-tag geofence.
type GeoZone struct {
	Name    string  `json:"name,omitempty" bson:"name,omitempty"`
	Center  LatLng  `json:"center" bson:"center"`
	RadiusM float64 `json:"radiusM" bson:"radiusM"`
}

// TimeRule is a recurring weekly no-tag window. Days use time.Weekday
// numbering (0 = Sunday). Start and End are "HH:MM" clock times; End before
// Start means the window wraps past midnight.
type TimeRule struct {
	Name  string `json:"name,omitempty" bson:"name,omitempty"`
	Days  []int  `json:"days" bson:"days"`
	Start string `json:"start" bson:"start"`
	End   string `json:"end" bson:"end"`
}

// LocationSample is one raw client GPS report. Samples are ephemeral: they
// live only in the anti-cheat rolling window and are never persisted.
type LocationSample struct {
	Lat       float64
	Lng       float64
	Timestamp time.Time
}
