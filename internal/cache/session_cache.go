// Package cache is the hot tier of session storage: active and waiting
// sessions live in Redis for low-latency reads and location writes, indexed
// by id, join code and player id.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/justinnewbold/TAG-sub002/internal/model"
)

// SessionCache handles Redis operations for live session state. A miss is
// (nil, nil) / ("", nil), never an error.
type SessionCache interface {
	// Put writes the whole aggregate: meta, participant hash and both
	// lookup indices.
	Put(ctx context.Context, s *model.Session) error
	// Get assembles the aggregate from meta + participant hash.
	Get(ctx context.Context, id string) (*model.Session, error)
	GetIDByCode(ctx context.Context, code string) (string, error)
	GetIDByPlayer(ctx context.Context, playerID string) (string, error)
	CodeExists(ctx context.Context, code string) (bool, error)

	// SetParticipant rewrites one participant hash field. This is the
	// cache-only fast path for location updates.
	SetParticipant(ctx context.Context, sessionID string, p *model.Participant) error
	RemoveParticipant(ctx context.Context, sessionID, playerID string) error
	RemovePlayerIndex(ctx context.Context, playerID string) error

	// Evict removes the session and all of its index entries.
	Evict(ctx context.Context, s *model.Session) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a session cache. Entries expire after ttl as a backstop; live
// sessions are evicted explicitly on end or deletion.
func New(client *redis.Client, ttl time.Duration) SessionCache {
	return &sessionCache{client: client, ttl: ttl}
}

func (c *sessionCache) metaKey(id string) string {
	return fmt.Sprintf("tag:session:%s", id)
}

func (c *sessionCache) playersKey(id string) string {
	return fmt.Sprintf("tag:session:%s:players", id)
}

func (c *sessionCache) codeKey(code string) string {
	return fmt.Sprintf("tag:code:%s", strings.ToUpper(code))
}

func (c *sessionCache) playerKey(playerID string) string {
	return fmt.Sprintf("tag:player:%s", playerID)
}

func (c *sessionCache) Put(ctx context.Context, s *model.Session) error {
	meta := *s
	meta.Participants = nil
	data, err := json.Marshal(&meta)
	if err != nil {
		return err
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.metaKey(s.ID), data, c.ttl)
	pipe.Del(ctx, c.playersKey(s.ID))
	for _, p := range s.Participants {
		pdata, err := json.Marshal(p)
		if err != nil {
			return err
		}
		pipe.HSet(ctx, c.playersKey(s.ID), p.PlayerID, pdata)
		pipe.Set(ctx, c.playerKey(p.PlayerID), s.ID, c.ttl)
	}
	pipe.Expire(ctx, c.playersKey(s.ID), c.ttl)
	pipe.Set(ctx, c.codeKey(s.JoinCode), s.ID, c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *sessionCache) Get(ctx context.Context, id string) (*model.Session, error) {
	data, err := c.client.Get(ctx, c.metaKey(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s model.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, err
	}

	fields, err := c.client.HGetAll(ctx, c.playersKey(id)).Result()
	if err != nil {
		return nil, err
	}
	s.Participants = make([]*model.Participant, 0, len(fields))
	for _, raw := range fields {
		var p model.Participant
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			continue
		}
		s.Participants = append(s.Participants, &p)
	}
	return &s, nil
}

func (c *sessionCache) GetIDByCode(ctx context.Context, code string) (string, error) {
	id, err := c.client.Get(ctx, c.codeKey(code)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return id, err
}

func (c *sessionCache) GetIDByPlayer(ctx context.Context, playerID string) (string, error) {
	id, err := c.client.Get(ctx, c.playerKey(playerID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return id, err
}

func (c *sessionCache) CodeExists(ctx context.Context, code string) (bool, error) {
	n, err := c.client.Exists(ctx, c.codeKey(code)).Result()
	return n > 0, err
}

func (c *sessionCache) SetParticipant(ctx context.Context, sessionID string, p *model.Participant) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.HSet(ctx, c.playersKey(sessionID), p.PlayerID, data).Err()
}

func (c *sessionCache) RemoveParticipant(ctx context.Context, sessionID, playerID string) error {
	return c.client.HDel(ctx, c.playersKey(sessionID), playerID).Err()
}

func (c *sessionCache) RemovePlayerIndex(ctx context.Context, playerID string) error {
	return c.client.Del(ctx, c.playerKey(playerID)).Err()
}

func (c *sessionCache) Evict(ctx context.Context, s *model.Session) error {
	keys := []string{c.metaKey(s.ID), c.playersKey(s.ID), c.codeKey(s.JoinCode)}
	for _, p := range s.Participants {
		keys = append(keys, c.playerKey(p.PlayerID))
	}
	return c.client.Del(ctx, keys...).Err()
}
