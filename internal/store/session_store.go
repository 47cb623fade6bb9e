// Package store composes the Redis hot tier and the Mongo durable tier into
// the engine's session storage. Commit-path writes go durable-first and are
// mirrored into the cache only on success, so cache state is never ahead of
// durable state. Location updates touch the cache alone.
package store

import (
	"context"
	"fmt"

	"github.com/justinnewbold/TAG-sub002/internal/cache"
	"github.com/justinnewbold/TAG-sub002/internal/model"
	"github.com/justinnewbold/TAG-sub002/internal/repository"
)

// Store is the two-tier session store.
type Store struct {
	cache    cache.SessionCache
	sessions repository.SessionRepo
	events   repository.TagEventRepo
}

func New(c cache.SessionCache, sessions repository.SessionRepo, events repository.TagEventRepo) *Store {
	return &Store{cache: c, sessions: sessions, events: events}
}

// GetByID reads through the cache. On a miss the durable copy is loaded and,
// if the session is still live, lazily warmed back into the cache.
func (s *Store) GetByID(ctx context.Context, id string) (*model.Session, error) {
	sess, err := s.cache.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if sess != nil {
		return sess, nil
	}
	sess, err = s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("durable get: %w", err)
	}
	if sess == nil {
		return nil, nil
	}
	if sess.Live() {
		if err := s.cache.Put(ctx, sess); err != nil {
			return nil, fmt.Errorf("cache warm: %w", err)
		}
	}
	return sess, nil
}

// GetByCode resolves a join code, falling back to the durable store.
func (s *Store) GetByCode(ctx context.Context, code string) (*model.Session, error) {
	id, err := s.cache.GetIDByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("cache code lookup: %w", err)
	}
	if id != "" {
		return s.GetByID(ctx, id)
	}
	sess, err := s.sessions.GetByJoinCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("durable code lookup: %w", err)
	}
	if sess == nil {
		return nil, nil
	}
	if sess.Live() {
		if err := s.cache.Put(ctx, sess); err != nil {
			return nil, fmt.Errorf("cache warm: %w", err)
		}
	}
	return sess, nil
}

// SessionIDForPlayer returns the live session a player belongs to, or "".
func (s *Store) SessionIDForPlayer(ctx context.Context, playerID string) (string, error) {
	return s.cache.GetIDByPlayer(ctx, playerID)
}

// CodeInUse checks both tiers, for join-code generation.
func (s *Store) CodeInUse(ctx context.Context, code string) (bool, error) {
	exists, err := s.cache.CodeExists(ctx, code)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}
	sess, err := s.sessions.GetByJoinCode(ctx, code)
	if err != nil {
		return false, err
	}
	return sess != nil, nil
}

// Create persists a new session and mirrors it into the cache.
func (s *Store) Create(ctx context.Context, sess *model.Session) error {
	if err := s.sessions.Create(ctx, sess); err != nil {
		return fmt.Errorf("durable create: %w", err)
	}
	if err := s.cache.Put(ctx, sess); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Save writes the aggregate durable-first and refreshes the cache.
func (s *Store) Save(ctx context.Context, sess *model.Session) error {
	if err := s.sessions.Update(ctx, sess); err != nil {
		return fmt.Errorf("durable update: %w", err)
	}
	if err := s.cache.Put(ctx, sess); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// SaveEnded writes the final aggregate and evicts it from the hot tier. The
// durable copy stays queryable until the retention sweep removes it.
func (s *Store) SaveEnded(ctx context.Context, sess *model.Session) error {
	if err := s.sessions.Update(ctx, sess); err != nil {
		return fmt.Errorf("durable update: %w", err)
	}
	if err := s.cache.Evict(ctx, sess); err != nil {
		return fmt.Errorf("cache evict: %w", err)
	}
	return nil
}

// CommitTag persists the mutated aggregate plus the new tag event, then
// mirrors the aggregate into the cache.
func (s *Store) CommitTag(ctx context.Context, sess *model.Session, ev *model.TagEvent) error {
	if err := s.sessions.Update(ctx, sess); err != nil {
		return fmt.Errorf("durable update: %w", err)
	}
	if err := s.events.Append(ctx, ev); err != nil {
		return fmt.Errorf("append tag event: %w", err)
	}
	if err := s.cache.Put(ctx, sess); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Delete removes the session from both tiers along with its tag trail. Used
// when the last participant leaves.
func (s *Store) Delete(ctx context.Context, sess *model.Session) error {
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("durable delete: %w", err)
	}
	if err := s.events.DeleteBySession(ctx, sess.ID); err != nil {
		return fmt.Errorf("delete tag events: %w", err)
	}
	if err := s.cache.Evict(ctx, sess); err != nil {
		return fmt.Errorf("cache evict: %w", err)
	}
	return nil
}

// UpdateLocation is the cache-only write path for live positions. The
// durable store is never touched at GPS frequency.
func (s *Store) UpdateLocation(ctx context.Context, sessionID string, p *model.Participant) error {
	return s.cache.SetParticipant(ctx, sessionID, p)
}

// RemoveParticipant drops one member from the cached aggregate and the
// player index.
func (s *Store) RemoveParticipant(ctx context.Context, sessionID, playerID string) error {
	if err := s.cache.RemoveParticipant(ctx, sessionID, playerID); err != nil {
		return err
	}
	return s.cache.RemovePlayerIndex(ctx, playerID)
}

// TagTrail returns the session's tag events in timestamp order.
func (s *Store) TagTrail(ctx context.Context, sessionID string) ([]*model.TagEvent, error) {
	return s.events.ListBySession(ctx, sessionID)
}
