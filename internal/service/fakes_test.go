package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/justinnewbold/TAG-sub002/internal/model"
)

// The fakes below stand in for the Redis and Mongo tiers. They store deep
// copies, like real serialization would, so aliasing bugs cannot hide.

func deepCopy(s *model.Session) *model.Session {
	data, _ := json.Marshal(s)
	var out model.Session
	_ = json.Unmarshal(data, &out)
	return &out
}

type fakeCache struct {
	mu        sync.Mutex
	sessions  map[string]*model.Session
	codeIdx   map[string]string
	playerIdx map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		sessions:  make(map[string]*model.Session),
		codeIdx:   make(map[string]string),
		playerIdx: make(map[string]string),
	}
}

func (c *fakeCache) Put(_ context.Context, s *model.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[s.ID] = deepCopy(s)
	c.codeIdx[strings.ToUpper(s.JoinCode)] = s.ID
	for _, p := range s.Participants {
		c.playerIdx[p.PlayerID] = s.ID
	}
	return nil
}

func (c *fakeCache) Get(_ context.Context, id string) (*model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, nil
	}
	return deepCopy(s), nil
}

func (c *fakeCache) GetIDByCode(_ context.Context, code string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codeIdx[strings.ToUpper(code)], nil
}

func (c *fakeCache) GetIDByPlayer(_ context.Context, playerID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerIdx[playerID], nil
}

func (c *fakeCache) CodeExists(_ context.Context, code string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.codeIdx[strings.ToUpper(code)]
	return ok, nil
}

func (c *fakeCache) SetParticipant(_ context.Context, sessionID string, p *model.Participant) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[sessionID]
	if !ok {
		return nil
	}
	cp := *p
	for i, existing := range s.Participants {
		if existing.PlayerID == p.PlayerID {
			s.Participants[i] = &cp
			return nil
		}
	}
	s.Participants = append(s.Participants, &cp)
	return nil
}

func (c *fakeCache) RemoveParticipant(_ context.Context, sessionID, playerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[sessionID]; ok {
		s.RemoveParticipant(playerID)
	}
	return nil
}

func (c *fakeCache) RemovePlayerIndex(_ context.Context, playerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.playerIdx, playerID)
	return nil
}

func (c *fakeCache) Evict(_ context.Context, s *model.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, s.ID)
	delete(c.codeIdx, strings.ToUpper(s.JoinCode))
	for _, p := range s.Participants {
		delete(c.playerIdx, p.PlayerID)
	}
	return nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	// failNext makes the next write fail, for cache-divergence tests.
	failNext bool
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*model.Session)}
}

var errRepoDown = errors.New("durable store unavailable")

func (r *fakeSessionRepo) popFail() bool {
	failed := r.failNext
	r.failNext = false
	return failed
}

func (r *fakeSessionRepo) Create(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.popFail() {
		return errRepoDown
	}
	r.sessions[s.ID] = deepCopy(s)
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return deepCopy(s), nil
}

func (r *fakeSessionRepo) GetByJoinCode(_ context.Context, code string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if strings.EqualFold(s.JoinCode, code) {
			return deepCopy(s), nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) Update(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.popFail() {
		return errRepoDown
	}
	r.sessions[s.ID] = deepCopy(s)
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) ListEndedBefore(_ context.Context, cutoff time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, s := range r.sessions {
		if s.Status == model.SessionEnded && s.EndedAt != nil && s.EndedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []*model.TagEvent
}

func (r *fakeEventRepo) Append(_ context.Context, ev *model.TagEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ev
	r.events = append(r.events, &cp)
	return nil
}

func (r *fakeEventRepo) ListBySession(_ context.Context, sessionID string) ([]*model.TagEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.TagEvent
	for _, ev := range r.events {
		if ev.SessionID == sessionID {
			cp := *ev
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) DeleteBySession(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.events[:0]
	for _, ev := range r.events {
		if ev.SessionID != sessionID {
			kept = append(kept, ev)
		}
	}
	r.events = kept
	return nil
}

func (r *fakeEventRepo) count(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.SessionID == sessionID {
			n++
		}
	}
	return n
}
