// Package attack selects attack patterns for a boss and drives each pattern's
// telegraph, resolve, linger and cleanup steps through the clock scheduler.
package attack

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/bossfight/internal/game/clock"
	"github.com/cory-johannsen/bossfight/internal/game/combat"
	"github.com/cory-johannsen/bossfight/internal/game/dice"
	"github.com/cory-johannsen/bossfight/internal/game/event"
	"github.com/cory-johannsen/bossfight/internal/game/pattern"
	"github.com/cory-johannsen/bossfight/internal/game/projectile"
	"github.com/cory-johannsen/bossfight/internal/game/zone"
)

// Boss is the view of the encounter the scheduler acts on.
type Boss interface {
	ID() string
	IsDead() bool
	Phase() int
	Position() combat.Vec2
	Relocate(p combat.Vec2)
	SetHidden(hidden bool)
	// Outgoing returns the final damage of a hit with the given damage factor.
	Outgoing(damageFactor float64) float64
	// Cooldown returns the current minimum time between attack starts.
	Cooldown() time.Duration
}

// Deps are the collaborators a Scheduler drives.
type Deps struct {
	Clock       *clock.Scheduler
	Library     *pattern.Library
	Projectiles *projectile.Tracker
	Zones       *zone.Manager
	Hooks       event.Hooks
	Source      dice.Source
	Logger      *zap.Logger
}

// run is one in-flight pattern execution.
type run struct {
	def     pattern.Definition
	target  combat.Target
	group   *clock.Group
	started time.Duration
	center  combat.Vec2
}

// Scheduler serializes attack patterns for one boss.
//
// Invariant: at most one pattern run is in flight.
type Scheduler struct {
	boss Boss
	deps Deps

	run        *run
	attacked   bool
	lastAttack time.Duration
}

// New creates a Scheduler for boss.
//
// Precondition: boss, deps.Clock, deps.Library, deps.Projectiles, deps.Zones and
// deps.Source must be non-nil. A nil deps.Logger is replaced with a no-op logger.
func New(boss Boss, deps Deps) *Scheduler {
	if boss == nil || deps.Clock == nil || deps.Library == nil || deps.Projectiles == nil || deps.Zones == nil || deps.Source == nil {
		panic("attack.New: boss and all dependencies except Hooks and Logger must be non-nil")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Scheduler{boss: boss, deps: deps}
}

// InFlight reports whether a pattern run is in progress.
func (s *Scheduler) InFlight() bool { return s.run != nil }

// Current returns the pattern of the in-flight run.
func (s *Scheduler) Current() (pattern.Definition, bool) {
	if s.run == nil {
		return pattern.Definition{}, false
	}
	return s.run.def, true
}

// LastAttack returns the start time of the most recent accepted attack.
func (s *Scheduler) LastAttack() (time.Duration, bool) { return s.lastAttack, s.attacked }

// Ready reports whether the cooldown since the last attack has elapsed at now.
// The first attack is always ready.
func (s *Scheduler) Ready(now time.Duration) bool {
	return !s.attacked || now-s.lastAttack >= s.boss.Cooldown()
}

// TryStart starts a uniformly random pattern available in the boss's phase.
//
// Precondition: the boss is alive, no run is in flight, target is active and the
// cooldown has elapsed; otherwise TryStart returns false without side effects.
// Postcondition: Returns true iff a run started; InFlight() is then true and
// LastAttack() == now.
func (s *Scheduler) TryStart(now time.Duration, target combat.Target) bool {
	if s.boss.IsDead() || s.run != nil || !combat.Active(target) || !s.Ready(now) {
		return false
	}
	avail := s.deps.Library.Available(s.boss.Phase())
	i := dice.Pick(s.deps.Source, len(avail))
	if i < 0 {
		return false
	}
	s.begin(now, avail[i], target)
	return true
}

func (s *Scheduler) begin(now time.Duration, def pattern.Definition, target combat.Target) {
	r := &run{def: def, target: target, group: s.deps.Clock.NewGroup(), started: now}
	s.run = r
	s.attacked = true
	s.lastAttack = now

	r.center = s.telegraphCenter(r)
	s.deps.Hooks.EmitTelegraph(event.Telegraph{
		BossID:    s.boss.ID(),
		PatternID: def.ID,
		Kind:      string(def.Kind),
		Position:  r.center,
		Radius:    def.Radius(),
		Delay:     def.Telegraph,
		At:        now,
	})
	s.deps.Logger.Debug("attack telegraphed",
		zap.String("pattern", def.ID),
		zap.String("kind", string(def.Kind)),
		zap.Duration("at", now),
		zap.Duration("telegraph", def.Telegraph),
	)
	s.schedule(r)
}

// valid reports whether r may still act: the boss is alive and r is the live run.
func (s *Scheduler) valid(r *run) bool {
	return !s.boss.IsDead() && s.run == r && !r.group.Closed()
}

// finish schedules completion of r ResolveDelay after its last step.
func (s *Scheduler) finish(r *run) {
	r.group.After(r.def.ResolveDelay, func(now time.Duration) {
		if s.run != r {
			return
		}
		r.group.Close()
		s.run = nil
		s.deps.Logger.Debug("attack completed",
			zap.String("pattern", r.def.ID),
			zap.Duration("at", now),
		)
	})
}

// Abort cancels the in-flight run; no callback of it fires afterwards.
//
// Postcondition: InFlight() is false; returns true iff a run was cancelled.
func (s *Scheduler) Abort() bool {
	r := s.run
	if r == nil {
		return false
	}
	r.group.Close()
	s.run = nil
	if r.def.Kind == pattern.TeleportStrike {
		s.boss.SetHidden(false)
	}
	s.deps.Logger.Debug("attack aborted", zap.String("pattern", r.def.ID))
	return true
}
