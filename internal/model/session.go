package model

import "time"

type SessionStatus string

const (
	SessionWaiting SessionStatus = "waiting"
	SessionActive  SessionStatus = "active"
	SessionEnded   SessionStatus = "ended"
)

// SessionConfig is the immutable match configuration chosen at create time.
type SessionConfig struct {
	Mode           string     `json:"mode" bson:"mode"` // "classic" or "infection"
	TagRadiusM     float64    `json:"tagRadiusM" bson:"tagRadiusM"`
	GPSIntervalSec int        `json:"gpsIntervalSec" bson:"gpsIntervalSec"`
	DurationSec    int        `json:"durationSec" bson:"durationSec"` // 0 means unlimited
	MaxPlayers     int        `json:"maxPlayers" bson:"maxPlayers"`
	NoTagZones     []GeoZone  `json:"noTagZones,omitempty" bson:"noTagZones,omitempty"`
	NoTagTimeRules []TimeRule `json:"noTagTimeRules,omitempty" bson:"noTagTimeRules,omitempty"`
}

// Session is the aggregate for a single match. Participants travel with it
// in memory and in both storage tiers; the tag-event trail is persisted in
// its own collection and only hydrated on demand.
type Session struct {
	ID           string         `json:"id" bson:"_id"`
	JoinCode     string         `json:"joinCode" bson:"joinCode"`
	HostPlayerID string         `json:"hostPlayerId" bson:"hostPlayerId"`
	Status       SessionStatus  `json:"status" bson:"status"`
	Config       SessionConfig  `json:"config" bson:"config"`
	Participants []*Participant `json:"participants" bson:"participants"`
	ItPlayerID   string         `json:"itPlayerId,omitempty" bson:"itPlayerId,omitempty"`
	WinnerID     string         `json:"winnerId,omitempty" bson:"winnerId,omitempty"`
	CreatedAt    time.Time      `json:"createdAt" bson:"createdAt"`
	StartedAt    *time.Time     `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	EndedAt      *time.Time     `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
}

// Participant returns the member with the given player id, or nil.
func (s *Session) Participant(playerID string) *Participant {
	for _, p := range s.Participants {
		if p.PlayerID == playerID {
			return p
		}
	}
	return nil
}

// RemoveParticipant drops the member with the given player id.
// Returns false if they were not a member.
func (s *Session) RemoveParticipant(playerID string) bool {
	for i, p := range s.Participants {
		if p.PlayerID == playerID {
			s.Participants = append(s.Participants[:i], s.Participants[i+1:]...)
			return true
		}
	}
	return false
}

// Full reports whether the session is at its configured capacity.
func (s *Session) Full() bool {
	return s.Config.MaxPlayers > 0 && len(s.Participants) >= s.Config.MaxPlayers
}

// Live reports whether the session should be held in the hot cache.
func (s *Session) Live() bool {
	return s.Status == SessionWaiting || s.Status == SessionActive
}
