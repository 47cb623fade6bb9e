// Package mode defines the per-game-mode rule hooks the engine consults:
// who may tag, what a committed tag does to the IT role, when the game ends
// on its own, and whose positions are withheld from whom.
package mode

import (
	"time"

	"github.com/justinnewbold/TAG-sub002/internal/model"
)

const (
	Classic   = "classic"
	Infection = "infection"
)

// Mode is the rule set for one game-mode identifier. Implementations are
// stateless; all state lives in the session aggregate.
type Mode interface {
	ID() string
	MinPlayers() int
	// CanTag is the role predicate checked before any geometry.
	CanTag(s *model.Session, taggerID string) bool
	// ApplyTag mutates the IT role(s) after a validated tag.
	ApplyTag(s *model.Session, tagger, target *model.Participant, now time.Time)
	// Finished reports whether the session should auto-end after a tag.
	Finished(s *model.Session) bool
	// HidesLocation reports whether subject's position is withheld from
	// viewer's broadcasts.
	HidesLocation(s *model.Session, viewerID, subjectID string) bool
}

// ForID resolves a game-mode identifier, defaulting to classic.
func ForID(id string) Mode {
	switch id {
	case Infection:
		return infection{}
	default:
		return classic{}
	}
}

// classic: a single IT holder, transferred on tag. Never ends on its own.
type classic struct{}

func (classic) ID() string      { return Classic }
func (classic) MinPlayers() int { return 2 }

func (classic) CanTag(s *model.Session, taggerID string) bool {
	return s.ItPlayerID == taggerID
}

func (classic) ApplyTag(s *model.Session, tagger, target *model.Participant, now time.Time) {
	tagger.TakeIt(now)
	target.GiveIt(now)
	s.ItPlayerID = target.PlayerID
}

func (classic) Finished(s *model.Session) bool { return false }

func (classic) HidesLocation(*model.Session, string, string) bool { return false }

// infection: every tagged player becomes IT too, the tagger stays IT, and
// the game ends once everyone is infected. ItPlayerID tracks patient zero.
type infection struct{}

func (infection) ID() string      { return Infection }
func (infection) MinPlayers() int { return 3 }

func (infection) CanTag(s *model.Session, taggerID string) bool {
	p := s.Participant(taggerID)
	return p != nil && p.IsIt
}

func (infection) ApplyTag(s *model.Session, tagger, target *model.Participant, now time.Time) {
	target.GiveIt(now)
}

func (infection) Finished(s *model.Session) bool {
	for _, p := range s.Participants {
		if !p.IsIt {
			return false
		}
	}
	return true
}

func (infection) HidesLocation(*model.Session, string, string) bool { return false }
