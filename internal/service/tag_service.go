package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/justinnewbold/TAG-sub002/internal/geo"
	"github.com/justinnewbold/TAG-sub002/internal/mode"
	"github.com/justinnewbold/TAG-sub002/internal/model"
	"github.com/justinnewbold/TAG-sub002/internal/store"
)

// TagService validates and commits tag attempts. Checks run cheapest and
// most authoritative first: session state, role, existence, distance, then
// the no-tag rules.
type TagService struct {
	store    *store.Store
	sessions *SessionService
	bc       Broadcaster

	now func() time.Time
}

// NewTagService creates the tag arbiter.
func NewTagService(st *store.Store, sessions *SessionService) *TagService {
	return &TagService{
		store:    st,
		sessions: sessions,
		bc:       nopBroadcaster{},
		now:      time.Now,
	}
}

// SetBroadcaster wires the WebSocket hub in after construction.
func (t *TagService) SetBroadcaster(b Broadcaster) {
	t.bc = b
}

// AttemptTag arbitrates one tag. Holds the session lock across the whole
// read-validate-commit sequence, so duplicate submissions resolve with
// exactly one winner.
func (t *TagService) AttemptTag(ctx context.Context, sessionID, taggerID, targetID string) (TagResult, error) {
	unlock := t.sessions.locks.lock(sessionID)
	defer unlock()

	sess, err := t.store.GetByID(ctx, sessionID)
	if err != nil {
		return TagResult{}, err
	}
	if sess == nil {
		return TagResult{Reason: FailSessionNotFound}, nil
	}
	if sess.Status != model.SessionActive {
		return TagResult{Reason: FailWrongStatus}, nil
	}

	now := t.now()

	// A timed game that has run out ends here instead of arbitrating.
	if sess.Config.DurationSec > 0 && sess.StartedAt != nil &&
		now.Sub(*sess.StartedAt) >= time.Duration(sess.Config.DurationSec)*time.Second {
		if _, err := t.sessions.endLocked(ctx, sess); err != nil {
			return TagResult{}, err
		}
		return TagResult{Reason: FailWrongStatus, Ended: true}, nil
	}

	if taggerID == targetID {
		return TagResult{Reason: FailSelfTag}, nil
	}

	m := mode.ForID(sess.Config.Mode)
	if !m.CanTag(sess, taggerID) {
		return TagResult{Reason: FailNotIt}, nil
	}

	tagger := sess.Participant(taggerID)
	if tagger == nil {
		return TagResult{Reason: FailNotMember}, nil
	}
	target := sess.Participant(targetID)
	if target == nil {
		return TagResult{Reason: FailTargetNotFound}, nil
	}
	if target.IsIt {
		return TagResult{Reason: FailTargetAlreadyIt}, nil
	}
	if !tagger.HasLocation() || !target.HasLocation() {
		return TagResult{Reason: FailNoLocation}, nil
	}

	dist := geo.Distance(tagger.Location.Lat, tagger.Location.Lng, target.Location.Lat, target.Location.Lng)
	if dist > sess.Config.TagRadiusM {
		return TagResult{Reason: FailOutOfRange, DistanceM: dist}, nil
	}

	if v := geo.CanTag(sess.Config, *tagger.Location, *target.Location, now); !v.Allowed {
		return TagResult{Reason: geoReason(v.Reason), DistanceM: dist}, nil
	}

	// Commit.
	var heldPtr *time.Duration
	var heldMsPtr *int64
	if tagger.BecameItAt != nil {
		held := now.Sub(*tagger.BecameItAt)
		if held < 0 {
			held = 0
		}
		ms := held.Milliseconds()
		heldPtr = &held
		heldMsPtr = &ms
	}

	targetLoc := *target.Location
	ev := &model.TagEvent{
		ID:             uuid.NewString(),
		SessionID:      sess.ID,
		TaggerID:       taggerID,
		TaggedID:       targetID,
		Timestamp:      now,
		HeldItMs:       heldMsPtr,
		TaggedLocation: &targetLoc,
	}

	m.ApplyTag(sess, tagger, target, now)
	tagger.TagCount++

	if err := t.store.CommitTag(ctx, sess, ev); err != nil {
		return TagResult{}, err
	}
	log.Printf("session %s: %s tagged %s at %.1f m", sess.ID, taggerID, targetID, dist)

	t.bc.Broadcast(sess.ID, "player:tagged", map[string]interface{}{
		"taggerId":   taggerID,
		"taggedId":   targetID,
		"itPlayerId": sess.ItPlayerID,
		"distanceM":  dist,
		"timestamp":  now,
	})

	res := TagResult{
		OK:        true,
		DistanceM: dist,
		HeldIt:    heldPtr,
		Event:     ev,
		Session:   sess,
	}

	if m.Finished(sess) {
		if _, err := t.sessions.endLocked(ctx, sess); err != nil {
			return TagResult{}, err
		}
		res.Ended = true
	}
	return res, nil
}

func geoReason(r geo.DenyReason) FailReason {
	switch r {
	case geo.DenyTimeWindow:
		return FailGeoTime
	case geo.DenyTaggerInZone:
		return FailGeoTaggerZone
	case geo.DenyTargetInZone:
		return FailGeoTargetZone
	default:
		return FailWrongStatus
	}
}
