package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	mrand "math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/justinnewbold/TAG-sub002/internal/mode"
	"github.com/justinnewbold/TAG-sub002/internal/model"
	"github.com/justinnewbold/TAG-sub002/internal/store"
)

const (
	joinCodeChars    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	joinCodeLen      = 6
	joinCodeAttempts = 10

	defaultTagRadiusM = 10.0
)

// PlayerInfo identifies the acting player. ID may be empty for a first
// contact, in which case one is assigned.
type PlayerInfo struct {
	ID   string
	Name string
}

// SessionService owns the session state machine: create, join, leave,
// start, location updates and end. All commit-path operations serialize on
// a per-session lock.
type SessionService struct {
	store *store.Store
	auth  *AuthService
	locks *sessionLocks
	bc    Broadcaster

	now func() time.Time
}

// NewSessionService creates the lifecycle service.
func NewSessionService(st *store.Store, auth *AuthService) *SessionService {
	return &SessionService{
		store: st,
		auth:  auth,
		locks: newSessionLocks(),
		bc:    nopBroadcaster{},
		now:   time.Now,
	}
}

// SetBroadcaster wires the WebSocket hub in after construction.
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.bc = b
}

// Create builds a new waiting session with the host as sole participant.
func (s *SessionService) Create(ctx context.Context, host PlayerInfo, cfg model.SessionConfig) (Result, error) {
	if host.ID == "" {
		host.ID = uuid.NewString()
	}

	other, err := s.store.SessionIDForPlayer(ctx, host.ID)
	if err != nil {
		return Result{}, err
	}
	if other != "" {
		return fail(FailAlreadyInSession), nil
	}

	cfg.Mode = mode.ForID(cfg.Mode).ID()
	if cfg.TagRadiusM <= 0 {
		cfg.TagRadiusM = defaultTagRadiusM
	}

	code, err := s.generateJoinCode(ctx)
	if err != nil {
		return Result{}, err
	}

	now := s.now()
	sess := &model.Session{
		ID:           uuid.NewString(),
		JoinCode:     code,
		HostPlayerID: host.ID,
		Status:       model.SessionWaiting,
		Config:       cfg,
		Participants: []*model.Participant{{
			PlayerID: host.ID,
			Name:     host.Name,
			JoinedAt: now,
		}},
		CreatedAt: now,
	}

	if err := s.store.Create(ctx, sess); err != nil {
		return Result{}, err
	}
	log.Printf("session %s created by %s (code %s, mode %s)", sess.ID, host.ID, code, cfg.Mode)

	token, err := s.issueToken(host.ID, sess.ID)
	if err != nil {
		return Result{}, err
	}
	return Result{OK: true, Session: sess, Token: token}, nil
}

// Join adds a player to a waiting session by code. Re-joining the session
// you are already in is idempotent.
func (s *SessionService) Join(ctx context.Context, code string, player PlayerInfo) (Result, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	found, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return Result{}, err
	}
	if found == nil {
		return fail(FailSessionNotFound), nil
	}

	unlock := s.locks.lock(found.ID)
	defer unlock()

	sess, err := s.store.GetByID(ctx, found.ID)
	if err != nil {
		return Result{}, err
	}
	if sess == nil {
		return fail(FailSessionNotFound), nil
	}

	if player.ID != "" {
		// Re-joining your own session is idempotent, but only while it is
		// still live; an ended session is not joinable for anyone.
		if existing := sess.Participant(player.ID); existing != nil && sess.Live() {
			token, err := s.issueToken(player.ID, sess.ID)
			if err != nil {
				return Result{}, err
			}
			return Result{OK: true, Session: sess, Token: token}, nil
		}
		other, err := s.store.SessionIDForPlayer(ctx, player.ID)
		if err != nil {
			return Result{}, err
		}
		if other != "" && other != sess.ID {
			return fail(FailAlreadyInSession), nil
		}
	} else {
		player.ID = uuid.NewString()
	}

	if sess.Status != model.SessionWaiting {
		return fail(FailSessionNotJoinable), nil
	}
	if sess.Full() {
		return fail(FailSessionFull), nil
	}

	sess.Participants = append(sess.Participants, &model.Participant{
		PlayerID: player.ID,
		Name:     player.Name,
		JoinedAt: s.now(),
	})
	if err := s.store.Save(ctx, sess); err != nil {
		return Result{}, err
	}
	log.Printf("player %s joined session %s", player.ID, sess.ID)

	s.bc.BroadcastExcept(sess.ID, player.ID, "player:joined", map[string]interface{}{
		"playerId": player.ID,
		"name":     player.Name,
	})

	token, err := s.issueToken(player.ID, sess.ID)
	if err != nil {
		return Result{}, err
	}
	return Result{OK: true, Session: sess, Token: token}, nil
}

// Leave removes the player from their current session. The host role moves
// to a remaining participant; an empty session is deleted outright.
func (s *SessionService) Leave(ctx context.Context, playerID string) (Result, error) {
	sid, err := s.store.SessionIDForPlayer(ctx, playerID)
	if err != nil {
		return Result{}, err
	}
	if sid == "" {
		return fail(FailNotMember), nil
	}

	unlock := s.locks.lock(sid)
	defer unlock()

	sess, err := s.store.GetByID(ctx, sid)
	if err != nil {
		return Result{}, err
	}
	if sess == nil || sess.Participant(playerID) == nil {
		return fail(FailNotMember), nil
	}

	sess.RemoveParticipant(playerID)

	if len(sess.Participants) == 0 {
		if err := s.store.Delete(ctx, sess); err != nil {
			return Result{}, err
		}
		s.bc.CloseSession(sess.ID)
		log.Printf("session %s deleted: last player %s left", sess.ID, playerID)
		return Result{OK: true, Session: sess}, nil
	}

	if sess.HostPlayerID == playerID {
		sess.HostPlayerID = sess.Participants[0].PlayerID
	}
	// If IT walks out of an active game the role is reassigned at random
	// so the aggregate never points at a departed participant.
	if sess.Status == model.SessionActive && sess.ItPlayerID == playerID {
		next := sess.Participants[mrand.Intn(len(sess.Participants))]
		next.GiveIt(s.now())
		sess.ItPlayerID = next.PlayerID
	}

	if err := s.store.Save(ctx, sess); err != nil {
		return Result{}, err
	}
	if err := s.store.RemoveParticipant(ctx, sess.ID, playerID); err != nil {
		return Result{}, err
	}
	log.Printf("player %s left session %s", playerID, sess.ID)

	s.bc.Broadcast(sess.ID, "player:left", map[string]interface{}{
		"playerId":     playerID,
		"hostPlayerId": sess.HostPlayerID,
		"itPlayerId":   sess.ItPlayerID,
	})
	return Result{OK: true, Session: sess}, nil
}

// Start transitions a waiting session to active and assigns the initial IT
// uniformly at random.
func (s *SessionService) Start(ctx context.Context, sessionID, hostID string) (Result, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.store.GetByID(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	if sess == nil {
		return fail(FailSessionNotFound), nil
	}
	if sess.HostPlayerID != hostID {
		return fail(FailNotHost), nil
	}
	if sess.Status != model.SessionWaiting {
		return fail(FailWrongStatus), nil
	}
	m := mode.ForID(sess.Config.Mode)
	if len(sess.Participants) < m.MinPlayers() {
		return fail(FailNotEnoughPlayers), nil
	}

	now := s.now()
	first := sess.Participants[mrand.Intn(len(sess.Participants))]
	first.GiveIt(now)
	sess.ItPlayerID = first.PlayerID
	sess.Status = model.SessionActive
	sess.StartedAt = &now

	if err := s.store.Save(ctx, sess); err != nil {
		return Result{}, err
	}
	log.Printf("session %s started, %s is IT", sess.ID, first.PlayerID)

	s.bc.Broadcast(sess.ID, "game:started", map[string]interface{}{
		"sessionId":  sess.ID,
		"itPlayerId": sess.ItPlayerID,
		"startedAt":  now,
	})
	return Result{OK: true, Session: sess}, nil
}

// LocationResult is the outcome of a cache-only location update.
type LocationResult struct {
	OK          bool
	Reason      FailReason
	Session     *model.Session
	Participant *model.Participant
}

// UpdateLocation writes a player's position into the cached aggregate.
// Never touches the durable store and takes no session lock: positions are
// per-player and last-write-wins.
func (s *SessionService) UpdateLocation(ctx context.Context, playerID string, loc model.LatLng, at time.Time) (LocationResult, error) {
	sid, err := s.store.SessionIDForPlayer(ctx, playerID)
	if err != nil {
		return LocationResult{}, err
	}
	if sid == "" {
		return LocationResult{Reason: FailNotMember}, nil
	}
	sess, err := s.store.GetByID(ctx, sid)
	if err != nil {
		return LocationResult{}, err
	}
	if sess == nil {
		return LocationResult{Reason: FailSessionNotFound}, nil
	}
	p := sess.Participant(playerID)
	if p == nil {
		return LocationResult{Reason: FailNotMember}, nil
	}

	l := loc
	t := at
	p.Location = &l
	p.LocatedAt = &t
	if err := s.store.UpdateLocation(ctx, sess.ID, p); err != nil {
		return LocationResult{}, err
	}
	return LocationResult{OK: true, Session: sess, Participant: p}, nil
}

// End closes an active session on the host's request.
func (s *SessionService) End(ctx context.Context, sessionID, hostID string) (EndResult, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.store.GetByID(ctx, sessionID)
	if err != nil {
		return EndResult{}, err
	}
	if sess == nil {
		return EndResult{Reason: FailSessionNotFound}, nil
	}
	if sess.HostPlayerID != hostID {
		return EndResult{Reason: FailNotHost}, nil
	}
	if sess.Status != model.SessionActive {
		return EndResult{Reason: FailWrongStatus}, nil
	}
	return s.endLocked(ctx, sess)
}

// endLocked finalizes an active session. Caller holds the session lock.
func (s *SessionService) endLocked(ctx context.Context, sess *model.Session) (EndResult, error) {
	now := s.now()
	sess.Status = model.SessionEnded
	sess.EndedAt = &now

	var elapsed time.Duration
	if sess.StartedAt != nil {
		elapsed = now.Sub(*sess.StartedAt)
	}

	// Survival time is total time spent not holding IT. Flush the held-IT
	// accumulator of anyone still holding the role, keeping the flag for
	// the final standings.
	for _, p := range sess.Participants {
		if p.BecameItAt != nil {
			held := now.Sub(*p.BecameItAt)
			if held > 0 {
				p.ItHeldMs += held.Milliseconds()
			}
			p.BecameItAt = nil
		}
		p.SurvivalMs = elapsed.Milliseconds() - p.ItHeldMs
		if p.SurvivalMs < 0 {
			p.SurvivalMs = 0
		}
	}

	sess.WinnerID = pickWinner(sess)

	if err := s.store.SaveEnded(ctx, sess); err != nil {
		return EndResult{}, err
	}
	log.Printf("session %s ended, winner %s", sess.ID, sess.WinnerID)

	events, err := s.store.TagTrail(ctx, sess.ID)
	if err != nil {
		return EndResult{}, err
	}
	summary := buildSummary(sess, events)

	s.bc.Broadcast(sess.ID, "game:ended", summary)
	return EndResult{OK: true, Session: sess, Summary: summary}, nil
}

// pickWinner returns the non-IT participant with the greatest survival time,
// ties broken by join order. When everyone is IT (a completed infection
// game) the greatest survival time wins outright.
func pickWinner(sess *model.Session) string {
	winner := ""
	best := int64(-1)
	for _, p := range sess.Participants {
		if p.IsIt {
			continue
		}
		if p.SurvivalMs > best {
			best = p.SurvivalMs
			winner = p.PlayerID
		}
	}
	if winner != "" {
		return winner
	}
	for _, p := range sess.Participants {
		if p.SurvivalMs > best {
			best = p.SurvivalMs
			winner = p.PlayerID
		}
	}
	return winner
}

func buildSummary(sess *model.Session, events []*model.TagEvent) *Summary {
	sum := &Summary{
		SessionID: sess.ID,
		WinnerID:  sess.WinnerID,
		TagEvents: events,
	}
	if sess.StartedAt != nil && sess.EndedAt != nil {
		sum.DurationMs = sess.EndedAt.Sub(*sess.StartedAt).Milliseconds()
	}
	for _, p := range sess.Participants {
		sum.Standings = append(sum.Standings, Standing{
			PlayerID:   p.PlayerID,
			Name:       p.Name,
			SurvivalMs: p.SurvivalMs,
			ItHeldMs:   p.ItHeldMs,
			TagCount:   p.TagCount,
			IsIt:       p.IsIt,
		})
	}
	return sum
}

// Summary returns the final report of an ended session from the durable
// store.
func (s *SessionService) Summary(ctx context.Context, sessionID string) (*Summary, FailReason, error) {
	sess, err := s.store.GetByID(ctx, sessionID)
	if err != nil {
		return nil, FailNone, err
	}
	if sess == nil {
		return nil, FailSessionNotFound, nil
	}
	if sess.Status != model.SessionEnded {
		return nil, FailWrongStatus, nil
	}
	events, err := s.store.TagTrail(ctx, sessionID)
	if err != nil {
		return nil, FailNone, err
	}
	return buildSummary(sess, events), FailNone, nil
}

// Get returns the current aggregate for display purposes. Read-only, no
// lock.
func (s *SessionService) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	return s.store.GetByID(ctx, sessionID)
}

// generateJoinCode draws short codes until one is free in both tiers.
func (s *SessionService) generateJoinCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		b := make([]byte, joinCodeLen)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		code := make([]byte, joinCodeLen)
		for i := range code {
			code[i] = joinCodeChars[int(b[i])%len(joinCodeChars)]
		}
		inUse, err := s.store.CodeInUse(ctx, string(code))
		if err != nil {
			return "", err
		}
		if !inUse {
			return string(code), nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique join code after %d attempts", joinCodeAttempts)
}

func (s *SessionService) issueToken(playerID, sessionID string) (string, error) {
	if s.auth == nil {
		return "", nil
	}
	return s.auth.IssueToken(playerID, sessionID)
}
