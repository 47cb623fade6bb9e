package geo

import (
	"time"

	"github.com/justinnewbold/TAG-sub002/internal/model"
)

// DenyReason identifies which no-tag rule blocked a tag.
type DenyReason string

const (
	DenyNone         DenyReason = ""
	DenyTimeWindow   DenyReason = "no_tag_time"
	DenyTaggerInZone DenyReason = "tagger_in_zone"
	DenyTargetInZone DenyReason = "target_in_zone"
)

// Verdict is the outcome of a no-tag rule evaluation.
type Verdict struct {
	Allowed bool
	Reason  DenyReason
}

// Message returns the user-facing explanation for a denial.
func (v Verdict) Message() string {
	switch v.Reason {
	case DenyTimeWindow:
		return "Tagging is disabled during this time period"
	case DenyTaggerInZone:
		return "You are inside a safe zone"
	case DenyTargetInZone:
		return "Target is inside a safe zone"
	default:
		return ""
	}
}

// CanTag evaluates the session's no-tag rules for a tag between the two
// locations. Time windows are checked first, then the tagger's zone, then
// the target's; only the first violated rule is reported.
func CanTag(cfg model.SessionConfig, tagger, target model.LatLng, now time.Time) Verdict {
	for _, rule := range cfg.NoTagTimeRules {
		if TimeRuleActive(rule, now) {
			return Verdict{Allowed: false, Reason: DenyTimeWindow}
		}
	}
	for _, zone := range cfg.NoTagZones {
		if PointInZone(tagger, zone) {
			return Verdict{Allowed: false, Reason: DenyTaggerInZone}
		}
	}
	for _, zone := range cfg.NoTagZones {
		if PointInZone(target, zone) {
			return Verdict{Allowed: false, Reason: DenyTargetInZone}
		}
	}
	return Verdict{Allowed: true}
}
