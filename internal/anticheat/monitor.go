// Package anticheat keeps a short rolling window of raw GPS samples per
// player and classifies each new sample by the speed it implies. GPS noise
// and legitimate vehicle travel must not look like spoofing, so only
// implausible speed is rejected outright; moderately implausible speed is
// accepted but tracked for pattern-based flagging.
package anticheat

import (
	"sync"
	"time"

	"github.com/justinnewbold/TAG-sub002/internal/geo"
	"github.com/justinnewbold/TAG-sub002/internal/model"
)

// Severity grades how implausible a sample's implied speed is.
type Severity int

const (
	SeverityNone   Severity = iota // normal movement
	SeverityLow                    // possibly in a vehicle; accepted
	SeverityMedium                 // too fast; accepted but recorded
	SeverityHigh                   // teleport; dropped
)

// Speed thresholds in m/s. Up to vehicleSpeed is normal, up to tooFastSpeed
// is vehicle-plausible, up to teleportSpeed is suspicious, beyond is a
// teleport.
const (
	vehicleSpeed  = 15.0
	tooFastSpeed  = 35.0
	teleportSpeed = 100.0
)

const (
	maxHistoryPerPlayer = 10
	flagViolationCount  = 5
	flagWindow          = 5 * time.Minute
)

// Assessment is the classification of one incoming sample.
type Assessment struct {
	Valid    bool
	Severity Severity
	SpeedMS  float64
	Reason   string
}

type violationState struct {
	count  int
	lastAt time.Time
}

type playerHistory struct {
	samples []model.LocationSample
	lastAt  time.Time
}

// Monitor owns all per-player anti-cheat state. Safe for concurrent use.
type Monitor struct {
	mu         sync.Mutex
	history    map[string]*playerHistory
	violations map[string]*violationState

	staleAfter time.Duration
	maxPlayers int

	now func() time.Time
}

// New creates a monitor. staleAfter bounds how long idle per-player state is
// kept; maxPlayers is a hard cap that forces an eager sweep before the
// tracked set is allowed to grow past it.
func New(staleAfter time.Duration, maxPlayers int) *Monitor {
	return &Monitor{
		history:    make(map[string]*playerHistory),
		violations: make(map[string]*violationState),
		staleAfter: staleAfter,
		maxPlayers: maxPlayers,
		now:        time.Now,
	}
}

// Check classifies a new sample for the player and folds it into the rolling
// window. High-severity samples are not merged into history so that the next
// honest sample is not judged against a spoofed anchor.
func (m *Monitor) Check(playerID string, sample model.LocationSample) Assessment {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.history[playerID]
	if !ok {
		if len(m.history) >= m.maxPlayers {
			m.sweepLocked(m.now().Add(-m.staleAfter))
		}
		h = &playerHistory{}
		m.history[playerID] = h
	}

	a := Assessment{Valid: true, Severity: SeverityNone}
	if n := len(h.samples); n > 0 {
		a.SpeedMS = geo.Speed(h.samples[n-1], sample)
		switch {
		case a.SpeedMS <= vehicleSpeed:
		case a.SpeedMS <= tooFastSpeed:
			a.Severity = SeverityLow
			a.Reason = "possibly in vehicle"
		case a.SpeedMS <= teleportSpeed:
			a.Severity = SeverityMedium
			a.Valid = false
			a.Reason = "speed too high"
		default:
			a.Severity = SeverityHigh
			a.Valid = false
			a.Reason = "teleport detected"
		}
	}

	if !a.Valid {
		m.recordViolationLocked(playerID)
	}
	if a.Severity != SeverityHigh {
		h.samples = append(h.samples, sample)
		if len(h.samples) > maxHistoryPerPlayer {
			h.samples = h.samples[len(h.samples)-maxHistoryPerPlayer:]
		}
	}
	h.lastAt = m.now()
	return a
}

func (m *Monitor) recordViolationLocked(playerID string) {
	v, ok := m.violations[playerID]
	if !ok {
		v = &violationState{}
		m.violations[playerID] = v
	}
	v.count++
	v.lastAt = m.now()
}

// ShouldFlag reports whether the player has accumulated enough recent
// violations to warrant a client-side warning. Advisory only; never blocks.
func (m *Monitor) ShouldFlag(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.violations[playerID]
	if !ok {
		return false
	}
	return v.count >= flagViolationCount && m.now().Sub(v.lastAt) <= flagWindow
}

// Violations returns the player's current violation count.
func (m *Monitor) Violations(playerID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.violations[playerID]; ok {
		return v.count
	}
	return 0
}

// Forget drops all state for a player, e.g. on disconnect.
func (m *Monitor) Forget(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.history, playerID)
	delete(m.violations, playerID)
}

// Sweep removes per-player state idle for longer than the staleness
// threshold and returns how many players were purged.
func (m *Monitor) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.now().Add(-m.staleAfter))
}

func (m *Monitor) sweepLocked(cutoff time.Time) int {
	purged := 0
	for id, h := range m.history {
		if h.lastAt.Before(cutoff) {
			delete(m.history, id)
			purged++
		}
	}
	for id, v := range m.violations {
		if v.lastAt.Before(cutoff) {
			delete(m.violations, id)
		}
	}
	return purged
}

// Tracked returns how many players currently have history.
func (m *Monitor) Tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}
