package worker

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/justinnewbold/TAG-sub002/internal/anticheat"
	"github.com/justinnewbold/TAG-sub002/internal/ratelimit"
	"github.com/justinnewbold/TAG-sub002/internal/repository"
)

// Sweeper runs the periodic maintenance jobs: anti-cheat and rate-limit
// staleness sweeps, and retention cleanup of ended sessions.
type Sweeper struct {
	monitor  *anticheat.Monitor
	limiter  *ratelimit.Limiter
	sessions repository.SessionRepo
	events   repository.TagEventRepo

	sweepEvery   time.Duration
	retainEvery  time.Duration
	retentionAge time.Duration

	sched gocron.Scheduler
}

// NewSweeper creates the maintenance worker. Jobs start on Start.
func NewSweeper(monitor *anticheat.Monitor, limiter *ratelimit.Limiter, sessions repository.SessionRepo, events repository.TagEventRepo, sweepEvery, retainEvery, retentionAge time.Duration) *Sweeper {
	return &Sweeper{
		monitor:      monitor,
		limiter:      limiter,
		sessions:     sessions,
		events:       events,
		sweepEvery:   sweepEvery,
		retainEvery:  retainEvery,
		retentionAge: retentionAge,
	}
}

// Start schedules the jobs and starts the scheduler.
func (s *Sweeper) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	s.sched = sched

	_, err = sched.NewJob(
		gocron.DurationJob(s.sweepEvery),
		gocron.NewTask(func() {
			if n := s.monitor.Sweep(); n > 0 {
				log.Printf("[Sweeper] dropped anti-cheat history for %d stale players", n)
			}
			s.limiter.Sweep()
		}),
	)
	if err != nil {
		return err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(s.retainEvery),
		gocron.NewTask(s.retentionSweep),
	)
	if err != nil {
		return err
	}

	sched.Start()
	return nil
}

// retentionSweep deletes ended sessions older than the retention age,
// together with their tag-event trails.
func (s *Sweeper) retentionSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-s.retentionAge)
	ids, err := s.sessions.ListEndedBefore(ctx, cutoff)
	if err != nil {
		log.Printf("[Sweeper] retention query failed: %v", err)
		return
	}

	for _, id := range ids {
		if err := s.events.DeleteBySession(ctx, id); err != nil {
			log.Printf("[Sweeper] failed to delete events for session %s: %v", id, err)
			continue
		}
		if err := s.sessions.Delete(ctx, id); err != nil {
			log.Printf("[Sweeper] failed to delete session %s: %v", id, err)
		}
	}
	if len(ids) > 0 {
		log.Printf("[Sweeper] purged %d expired sessions", len(ids))
	}
}

// Stop shuts the scheduler down.
func (s *Sweeper) Stop() {
	if s.sched != nil {
		_ = s.sched.Shutdown()
	}
}
