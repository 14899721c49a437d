// Package zone manages the single persistent damage zone a boss may hold.
package zone

import (
	"time"

	"github.com/cory-johannsen/bossfight/internal/game/combat"
)

// Spec configures a new zone.
type Spec struct {
	PatternID    string
	Center       combat.Vec2
	Radius       float64
	Duration     time.Duration
	TickInterval time.Duration
	DamageFactor float64
}

// Zone is the live persistent zone.
type Zone struct {
	PatternID    string
	Center       combat.Vec2
	Radius       float64
	Remaining    time.Duration
	TickInterval time.Duration
	DamageFactor float64
	StartedAt    time.Duration

	sincePulse time.Duration
	updatedAt  time.Duration
}

// Pulse is one damage application of a zone.
type Pulse struct {
	PatternID string
	Damage    float64
	At        time.Duration
}

// DamageFunc converts a zone's damage factor into final outgoing damage.
type DamageFunc func(factor float64) float64

// Manager owns zero or one zone.
//
// Invariant: at most one zone exists; Start replaces any existing zone.
type Manager struct {
	zone   *Zone
	damage DamageFunc
}

// NewManager creates a Manager with no zone.
//
// Precondition: damage must not be nil.
func NewManager(damage DamageFunc) *Manager {
	if damage == nil {
		panic("zone.NewManager: damage must not be nil")
	}
	return &Manager{damage: damage}
}

// Start creates a zone at now, discarding any existing zone without a final pulse.
//
// Precondition: spec.TickInterval > 0 and spec.Duration > 0. Panics on a non-positive tick interval.
func (m *Manager) Start(now time.Duration, spec Spec) {
	if spec.TickInterval <= 0 {
		panic("zone.Manager.Start: tick interval must be > 0")
	}
	m.zone = &Zone{
		PatternID:    spec.PatternID,
		Center:       spec.Center,
		Radius:       spec.Radius,
		Remaining:    spec.Duration,
		TickInterval: spec.TickInterval,
		DamageFactor: spec.DamageFactor,
		StartedAt:    now,
		updatedAt:    now,
	}
}

// Active returns a copy of the current zone.
func (m *Manager) Active() (Zone, bool) {
	if m.zone == nil {
		return Zone{}, false
	}
	return *m.zone, true
}

// Clear tears the zone down. Clearing with no zone is a no-op.
//
// Postcondition: Returns true iff a zone was removed.
func (m *Manager) Clear() bool {
	had := m.zone != nil
	m.zone = nil
	return had
}

// Tick counts the zone down and applies one damage pulse per elapsed tick interval
// while target stands within the zone's radius. Elapsed time never exceeds the
// zone's remaining time, so a zone pulses at most Duration / TickInterval times.
//
// Postcondition: the zone is removed once its remaining time reaches zero.
func (m *Manager) Tick(now, delta time.Duration, target combat.Target) []Pulse {
	z := m.zone
	if z == nil {
		return nil
	}
	elapsed := now - z.updatedAt
	if elapsed > delta {
		elapsed = delta
	}
	if elapsed > z.Remaining {
		elapsed = z.Remaining
	}
	if elapsed < 0 {
		elapsed = 0
	}
	z.updatedAt = now
	z.Remaining -= elapsed
	z.sincePulse += elapsed

	var pulses []Pulse
	for z.sincePulse >= z.TickInterval {
		z.sincePulse -= z.TickInterval
		if !combat.Active(target) || z.Center.Distance(target.Position()) >= z.Radius {
			continue
		}
		amount := m.damage(z.DamageFactor)
		target.TakeDamage(amount, combat.KnockbackSign(z.Center, target.Position()), now)
		pulses = append(pulses, Pulse{PatternID: z.PatternID, Damage: amount, At: now})
	}
	if z.Remaining <= 0 && m.zone == z {
		m.zone = nil
	}
	return pulses
}
