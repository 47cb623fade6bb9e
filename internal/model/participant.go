package model

import "time"

// Participant is a player's membership in one session. It is mutated only
// by the session and tag services while the per-session lock is held; the
// exception is the location fields, which follow last-write-wins semantics.
type Participant struct {
	PlayerID   string     `json:"playerId" bson:"playerId"`
	Name       string     `json:"name" bson:"name"`
	Location   *LatLng    `json:"location,omitempty" bson:"location,omitempty"`
	LocatedAt  *time.Time `json:"locatedAt,omitempty" bson:"locatedAt,omitempty"`
	IsIt       bool       `json:"isIt" bson:"isIt"`
	Frozen     bool       `json:"frozen" bson:"frozen"`
	Eliminated bool       `json:"eliminated" bson:"eliminated"`
	TagCount   int        `json:"tagCount" bson:"tagCount"`
	BecameItAt *time.Time `json:"becameItAt,omitempty" bson:"becameItAt,omitempty"`
	// ItHeldMs accumulates total time spent holding IT; flushed from
	// BecameItAt when the role is lost or the game ends.
	ItHeldMs   int64     `json:"itHeldMs" bson:"itHeldMs"`
	SurvivalMs int64     `json:"survivalMs,omitempty" bson:"survivalMs,omitempty"`
	JoinedAt   time.Time `json:"joinedAt" bson:"joinedAt"`
}

// HasLocation reports whether the participant has a usable GPS fix.
func (p *Participant) HasLocation() bool {
	return p.Location != nil && p.LocatedAt != nil
}

// GiveIt marks the participant as IT as of now.
func (p *Participant) GiveIt(now time.Time) {
	p.IsIt = true
	t := now
	p.BecameItAt = &t
}

// TakeIt removes the IT role and folds the held duration into ItHeldMs.
// Returns how long the role was held, or 0 if BecameItAt was never set.
func (p *Participant) TakeIt(now time.Time) time.Duration {
	p.IsIt = false
	if p.BecameItAt == nil {
		return 0
	}
	held := now.Sub(*p.BecameItAt)
	if held < 0 {
		held = 0
	}
	p.ItHeldMs += held.Milliseconds()
	p.BecameItAt = nil
	return held
}
