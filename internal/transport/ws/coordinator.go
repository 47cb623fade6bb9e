package ws

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/justinnewbold/TAG-sub002/internal/anticheat"
	"github.com/justinnewbold/TAG-sub002/internal/geo"
	"github.com/justinnewbold/TAG-sub002/internal/mode"
	"github.com/justinnewbold/TAG-sub002/internal/model"
	"github.com/justinnewbold/TAG-sub002/internal/ratelimit"
	"github.com/justinnewbold/TAG-sub002/internal/service"
)

// proximityAlertM is the range within which other players appear in the
// mover's nearby list.
const proximityAlertM = 100.0

// Coordinator turns inbound realtime events into engine operations and
// engine outcomes into outbound events. Inbound events pass the rate
// limiter first, then location samples pass anti-cheat validation before
// they may touch session state.
type Coordinator struct {
	hub      *Hub
	sessions *service.SessionService
	tags     *service.TagService
	monitor  *anticheat.Monitor
	limiter  *ratelimit.Limiter

	now func() time.Time
}

// NewCoordinator creates the realtime coordinator.
func NewCoordinator(hub *Hub, sessions *service.SessionService, tags *service.TagService, monitor *anticheat.Monitor, limiter *ratelimit.Limiter) *Coordinator {
	c := &Coordinator{
		hub:      hub,
		sessions: sessions,
		tags:     tags,
		monitor:  monitor,
		limiter:  limiter,
		now:      time.Now,
	}
	hub.SetDisconnectHandler(c.handleDisconnect)
	return c
}

// LocationPayload is the body of an inbound location:update.
type LocationPayload struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TagPayload is the body of an inbound tag:attempt.
type TagPayload struct {
	TargetID string `json:"targetId"`
}

// NearbyPlayer is one entry of a nearby:players unicast.
type NearbyPlayer struct {
	PlayerID  string  `json:"playerId"`
	Name      string  `json:"name"`
	DistanceM float64 `json:"distanceM"`
	IsIt      bool    `json:"isIt"`
}

// HandleLocationUpdate processes one inbound location sample.
func (c *Coordinator) HandleLocationUpdate(ctx context.Context, sessionID, playerID string, p LocationPayload) {
	if d := c.limiter.Allow(playerID, ratelimit.EventLocation); !d.Allowed {
		c.hub.Unicast(sessionID, playerID, EvtErrorRateLimit, map[string]interface{}{
			"event":        EvtLocationUpdate,
			"retryAfterMs": d.RetryAfter.Milliseconds(),
		})
		return
	}

	now := c.now()
	sample := model.LocationSample{Lat: p.Lat, Lng: p.Lng, Timestamp: now}
	assessment := c.monitor.Check(playerID, sample)
	if assessment.Severity == anticheat.SeverityHigh {
		// Teleports never reach authoritative state; the client is told
		// on a distinct channel and the stream continues. Medium severity
		// is counted as a violation but the position still applies.
		c.hub.Unicast(sessionID, playerID, EvtErrorAntiCheat, map[string]interface{}{
			"reason":  assessment.Reason,
			"speedMS": assessment.SpeedMS,
		})
		return
	}
	if c.monitor.ShouldFlag(playerID) {
		c.hub.Unicast(sessionID, playerID, EvtWarningAntiCheat, map[string]interface{}{
			"violations": c.monitor.Violations(playerID),
		})
	}

	res, err := c.sessions.UpdateLocation(ctx, playerID, model.LatLng{Lat: p.Lat, Lng: p.Lng}, now)
	if err != nil {
		log.Printf("location update for %s: %v", playerID, err)
		c.hub.Unicast(sessionID, playerID, EvtError, map[string]interface{}{
			"source":  EvtLocationUpdate,
			"message": "temporary failure, please retry",
		})
		return
	}
	if !res.OK {
		c.hub.Unicast(sessionID, playerID, EvtError, map[string]interface{}{
			"source":  EvtLocationUpdate,
			"reason":  string(res.Reason),
			"message": res.Reason.Message(),
		})
		return
	}

	c.fanOutLocation(res.Session, res.Participant)
	c.sendNearby(res.Session, res.Participant)
}

// fanOutLocation shares the mover's position with the rest of the room,
// honoring the mode's withhold rules.
func (c *Coordinator) fanOutLocation(sess *model.Session, mover *model.Participant) {
	m := mode.ForID(sess.Config.Mode)
	payload := map[string]interface{}{
		"playerId": mover.PlayerID,
		"lat":      mover.Location.Lat,
		"lng":      mover.Location.Lng,
		"isIt":     mover.IsIt,
	}
	for _, viewer := range sess.Participants {
		if viewer.PlayerID == mover.PlayerID {
			continue
		}
		if m.HidesLocation(sess, viewer.PlayerID, mover.PlayerID) {
			continue
		}
		c.hub.Unicast(sess.ID, viewer.PlayerID, EvtPlayerLocation, payload)
	}
}

// sendNearby unicasts the mover's proximity list. Only the mover receives
// it, which keeps the fan-out linear in room size.
func (c *Coordinator) sendNearby(sess *model.Session, mover *model.Participant) {
	var nearby []NearbyPlayer
	for _, other := range sess.Participants {
		if other.PlayerID == mover.PlayerID || !other.HasLocation() {
			continue
		}
		d := geo.Distance(mover.Location.Lat, mover.Location.Lng, other.Location.Lat, other.Location.Lng)
		if d <= proximityAlertM {
			nearby = append(nearby, NearbyPlayer{
				PlayerID:  other.PlayerID,
				Name:      other.Name,
				DistanceM: d,
				IsIt:      other.IsIt,
			})
		}
	}
	if len(nearby) == 0 {
		return
	}
	sort.Slice(nearby, func(i, j int) bool { return nearby[i].DistanceM < nearby[j].DistanceM })
	c.hub.Unicast(sess.ID, mover.PlayerID, EvtNearbyPlayers, map[string]interface{}{
		"players": nearby,
	})
}

// HandleTagAttempt processes one inbound tag:attempt.
func (c *Coordinator) HandleTagAttempt(ctx context.Context, sessionID, taggerID string, p TagPayload) {
	if d := c.limiter.Allow(taggerID, ratelimit.EventTag); !d.Allowed {
		c.hub.Unicast(sessionID, taggerID, EvtErrorRateLimit, map[string]interface{}{
			"event":        EvtTagAttempt,
			"retryAfterMs": d.RetryAfter.Milliseconds(),
		})
		return
	}

	res, err := c.tags.AttemptTag(ctx, sessionID, taggerID, p.TargetID)
	if err != nil {
		log.Printf("tag attempt by %s: %v", taggerID, err)
		c.hub.Unicast(sessionID, taggerID, EvtError, map[string]interface{}{
			"source":  EvtTagAttempt,
			"message": "temporary failure, please retry",
		})
		return
	}
	if !res.OK {
		payload := map[string]interface{}{
			"source":  EvtTagAttempt,
			"reason":  string(res.Reason),
			"message": res.Reason.Message(),
		}
		if res.Reason == service.FailOutOfRange {
			payload["distanceM"] = res.DistanceM
		}
		c.hub.Unicast(sessionID, taggerID, EvtError, payload)
	}
	// Success needs no unicast here: the tag service broadcasts
	// player:tagged (and game:ended on auto-end) to the whole room.
}

// handleDisconnect clears per-player ephemeral state when a connection
// drops. In-flight commits are unaffected.
func (c *Coordinator) handleDisconnect(sessionID, playerID string) {
	c.monitor.Forget(playerID)
	c.limiter.Forget(playerID)
	c.hub.Broadcast(sessionID, EvtPlayerDisconnected, map[string]interface{}{
		"playerId": playerID,
	})
}
