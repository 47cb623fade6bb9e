package service

import (
	"time"

	"github.com/justinnewbold/TAG-sub002/internal/model"
)

// FailReason enumerates every validation failure the engine can surface.
// These are outcomes, not errors: they are safe to show the user and never
// abort the surrounding request. Infrastructure failures travel separately
// as Go errors.
type FailReason string

const (
	FailNone               FailReason = ""
	FailSessionNotFound    FailReason = "session_not_found"
	FailSessionNotJoinable FailReason = "session_not_joinable"
	FailSessionFull        FailReason = "session_full"
	FailAlreadyInSession   FailReason = "already_in_session"
	FailNotMember          FailReason = "not_a_member"
	FailNotHost            FailReason = "not_host"
	FailWrongStatus        FailReason = "wrong_status"
	FailNotEnoughPlayers   FailReason = "not_enough_players"
	FailNotIt              FailReason = "not_it"
	FailTargetNotFound     FailReason = "target_not_found"
	FailTargetAlreadyIt    FailReason = "target_already_it"
	FailNoLocation         FailReason = "no_location"
	FailOutOfRange         FailReason = "out_of_range"
	FailGeoTime            FailReason = "no_tag_time"
	FailGeoTaggerZone      FailReason = "tagger_in_zone"
	FailGeoTargetZone      FailReason = "target_in_zone"
	FailSelfTag            FailReason = "self_tag"
)

var failMessages = map[FailReason]string{
	FailSessionNotFound:    "Game not found",
	FailSessionNotJoinable: "Game has already started",
	FailSessionFull:        "Game is full",
	FailAlreadyInSession:   "You are already in another game",
	FailNotMember:          "You are not in this game",
	FailNotHost:            "Only the host can do that",
	FailWrongStatus:        "Game is not in the right state",
	FailNotEnoughPlayers:   "Not enough players to start",
	FailNotIt:              "You are not IT",
	FailTargetNotFound:     "Target is not in this game",
	FailTargetAlreadyIt:    "Target is already IT",
	FailNoLocation:         "Location data unavailable",
	FailOutOfRange:         "Target is too far away",
	FailGeoTime:            "Tagging is disabled during this time period",
	FailGeoTaggerZone:      "You are inside a safe zone",
	FailGeoTargetZone:      "Target is inside a safe zone",
	FailSelfTag:            "You cannot tag yourself",
}

// Message returns the user-facing text for the reason.
func (r FailReason) Message() string {
	return failMessages[r]
}

// Result is the outcome of a lifecycle operation (create/join/leave/start).
type Result struct {
	OK      bool
	Reason  FailReason
	Session *model.Session
	// Token is set on create and join: the session-scoped player JWT.
	Token string
}

func fail(reason FailReason) Result {
	return Result{Reason: reason}
}

// TagResult is the outcome of a tag attempt.
type TagResult struct {
	OK     bool
	Reason FailReason
	// DistanceM carries the measured tagger-target distance when the
	// attempt was judged on geometry, including out-of-range failures.
	DistanceM float64
	// HeldIt is how long the tagger had been IT; nil when unknown.
	HeldIt  *time.Duration
	Event   *model.TagEvent
	Session *model.Session
	// Ended is true when the tag completed the game (mode auto-end).
	Ended bool
}

// Standing is one participant's final line in a session summary.
type Standing struct {
	PlayerID   string `json:"playerId"`
	Name       string `json:"name"`
	SurvivalMs int64  `json:"survivalMs"`
	ItHeldMs   int64  `json:"itHeldMs"`
	TagCount   int    `json:"tagCount"`
	IsIt       bool   `json:"isIt"`
}

// Summary is the final report of an ended session.
type Summary struct {
	SessionID  string            `json:"sessionId"`
	WinnerID   string            `json:"winnerId,omitempty"`
	DurationMs int64             `json:"durationMs"`
	Standings  []Standing        `json:"standings"`
	TagEvents  []*model.TagEvent `json:"tagEvents"`
}

// EndResult is the outcome of an end operation.
type EndResult struct {
	OK      bool
	Reason  FailReason
	Session *model.Session
	Summary *Summary
}
