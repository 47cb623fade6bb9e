package mode

import (
	"testing"
	"time"

	"github.com/justinnewbold/TAG-sub002/internal/model"
)

func session(modeID string, players ...string) *model.Session {
	s := &model.Session{Status: model.SessionActive, Config: model.SessionConfig{Mode: modeID}}
	for _, id := range players {
		s.Participants = append(s.Participants, &model.Participant{PlayerID: id})
	}
	return s
}

func TestForIDDefaultsToClassic(t *testing.T) {
	if got := ForID("").ID(); got != Classic {
		t.Fatalf("ForID(\"\") = %q, want classic", got)
	}
	if got := ForID("nonsense").ID(); got != Classic {
		t.Fatalf("ForID(nonsense) = %q, want classic", got)
	}
	if got := ForID(Infection).ID(); got != Infection {
		t.Fatalf("ForID(infection) = %q, want infection", got)
	}
}

func TestClassicTagTransfersIt(t *testing.T) {
	s := session(Classic, "a", "b")
	now := time.Now()
	a, b := s.Participant("a"), s.Participant("b")
	a.GiveIt(now.Add(-30 * time.Second))
	s.ItPlayerID = "a"

	m := ForID(Classic)
	if !m.CanTag(s, "a") {
		t.Fatal("IT holder must be allowed to tag")
	}
	if m.CanTag(s, "b") {
		t.Fatal("non-IT player must not be allowed to tag")
	}

	m.ApplyTag(s, a, b, now)
	if s.ItPlayerID != "b" || a.IsIt || !b.IsIt {
		t.Fatalf("IT not transferred: itPlayerId=%q a.IsIt=%v b.IsIt=%v", s.ItPlayerID, a.IsIt, b.IsIt)
	}
	if a.BecameItAt != nil {
		t.Fatal("tagger's becameItAt must be cleared")
	}
	if b.BecameItAt == nil || !b.BecameItAt.Equal(now) {
		t.Fatalf("target's becameItAt = %v, want %v", b.BecameItAt, now)
	}
	if a.ItHeldMs < 29000 || a.ItHeldMs > 31000 {
		t.Fatalf("tagger held-IT accumulator = %dms, want ~30000", a.ItHeldMs)
	}
	if m.Finished(s) {
		t.Fatal("classic never finishes on its own")
	}
}

func TestInfectionSpreadsAndFinishes(t *testing.T) {
	s := session(Infection, "a", "b", "c")
	now := time.Now()
	a, b, c := s.Participant("a"), s.Participant("b"), s.Participant("c")
	a.GiveIt(now)
	s.ItPlayerID = "a"

	m := ForID(Infection)
	m.ApplyTag(s, a, b, now)
	if !a.IsIt || !b.IsIt {
		t.Fatal("infection must keep the tagger IT and infect the target")
	}
	if s.ItPlayerID != "a" {
		t.Fatalf("patient zero changed to %q", s.ItPlayerID)
	}
	if m.Finished(s) {
		t.Fatal("game must continue while a player is uninfected")
	}

	if !m.CanTag(s, "b") {
		t.Fatal("a freshly infected player must be able to tag")
	}
	m.ApplyTag(s, b, c, now)
	if !m.Finished(s) {
		t.Fatal("game must finish when everyone is infected")
	}
}
