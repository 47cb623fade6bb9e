package geo

import (
	"testing"
	"time"

	"github.com/justinnewbold/TAG-sub002/internal/model"
)

func TestCanTagOrdering(t *testing.T) {
	tagger := model.LatLng{Lat: 37.0, Lng: -122.0}
	target := model.LatLng{Lat: 37.00001, Lng: -122.0}
	noon := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	allDay := model.TimeRule{Days: []int{0, 1, 2, 3, 4, 5, 6}, Start: "00:00", End: "23:59"}
	taggerZone := model.GeoZone{Center: tagger, RadiusM: 50}
	farZone := model.GeoZone{Center: model.LatLng{Lat: 40, Lng: -100}, RadiusM: 50}

	cases := []struct {
		name string
		cfg  model.SessionConfig
		want DenyReason
	}{
		{
			name: "no rules",
			cfg:  model.SessionConfig{},
			want: DenyNone,
		},
		{
			name: "time window wins over zones",
			cfg: model.SessionConfig{
				NoTagTimeRules: []model.TimeRule{allDay},
				NoTagZones:     []model.GeoZone{taggerZone},
			},
			want: DenyTimeWindow,
		},
		{
			name: "tagger zone blocks even at point-blank range",
			cfg:  model.SessionConfig{NoTagZones: []model.GeoZone{taggerZone}},
			want: DenyTaggerInZone,
		},
		{
			name: "irrelevant zone allows",
			cfg:  model.SessionConfig{NoTagZones: []model.GeoZone{farZone}},
			want: DenyNone,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := CanTag(tc.cfg, tagger, target, noon)
			if v.Reason != tc.want {
				t.Fatalf("reason = %q, want %q", v.Reason, tc.want)
			}
			if v.Allowed != (tc.want == DenyNone) {
				t.Fatalf("allowed = %v inconsistent with reason %q", v.Allowed, v.Reason)
			}
		})
	}
}

func TestCanTagTargetZone(t *testing.T) {
	tagger := model.LatLng{Lat: 37.0, Lng: -122.0}
	target := model.LatLng{Lat: 37.01, Lng: -122.0}
	cfg := model.SessionConfig{
		NoTagZones: []model.GeoZone{{Center: target, RadiusM: 30}},
	}

	v := CanTag(cfg, tagger, target, time.Now())
	if v.Allowed || v.Reason != DenyTargetInZone {
		t.Fatalf("got %+v, want target-in-zone denial", v)
	}
	if v.Message() == "" {
		t.Fatal("denial must carry a user-facing message")
	}
}
