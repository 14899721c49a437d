package attack

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/bossfight/internal/game/combat"
	"github.com/cory-johannsen/bossfight/internal/game/dice"
	"github.com/cory-johannsen/bossfight/internal/game/event"
	"github.com/cory-johannsen/bossfight/internal/game/pattern"
	"github.com/cory-johannsen/bossfight/internal/game/projectile"
	"github.com/cory-johannsen/bossfight/internal/game/zone"
)

// telegraphCenter returns where the warning for r is drawn. For target-centered
// kinds this is the target's position when the telegraph starts.
func (s *Scheduler) telegraphCenter(r *run) combat.Vec2 {
	switch r.def.Kind {
	case pattern.AoEBurst:
		if r.def.Burst.Center == pattern.CenterTarget {
			return r.target.Position()
		}
	case pattern.FallingVolley, pattern.TeleportStrike, pattern.PersistentZone:
		return r.target.Position()
	}
	return s.boss.Position()
}

// schedule dispatches r to its kind's step sequence.
func (s *Scheduler) schedule(r *run) {
	switch r.def.Kind {
	case pattern.MeleeArc:
		s.meleeArc(r)
	case pattern.AoEBurst:
		s.aoeBurst(r)
	case pattern.PullingField:
		s.pullingField(r)
	case pattern.HomingBolt:
		s.homingBolt(r)
	case pattern.FallingVolley:
		s.fallingVolley(r)
	case pattern.TeleportStrike:
		s.teleportStrike(r)
	case pattern.PersistentZone:
		s.persistentZone(r)
	default:
		s.deps.Logger.Warn("unhandled pattern kind", zap.String("pattern", r.def.ID), zap.String("kind", string(r.def.Kind)))
		s.finish(r)
	}
}

// strike resolves a single area check of radius around center against r's target.
// An inactive target is a silent no-op.
func (s *Scheduler) strike(r *run, now time.Duration, center combat.Vec2, radius float64) {
	if !combat.Active(r.target) {
		return
	}
	res := event.Resolution{BossID: s.boss.ID(), PatternID: r.def.ID, At: now}
	pos := r.target.Position()
	if center.Distance(pos) < radius {
		res.Damage = s.boss.Outgoing(r.def.DamageFactor)
		res.Hit = true
		r.target.TakeDamage(res.Damage, combat.KnockbackSign(s.boss.Position(), pos), now)
	}
	s.deps.Hooks.EmitResolution(res)
	s.deps.Logger.Debug("attack resolved",
		zap.String("pattern", r.def.ID),
		zap.Bool("hit", res.Hit),
		zap.Float64("damage", res.Damage),
		zap.Duration("at", now),
	)
}

func (s *Scheduler) meleeArc(r *run) {
	r.group.After(r.def.Telegraph, func(now time.Duration) {
		if !s.valid(r) {
			return
		}
		s.strike(r, now, s.boss.Position(), r.def.Range)
		s.finish(r)
	})
}

func (s *Scheduler) aoeBurst(r *run) {
	r.group.After(r.def.Telegraph, func(now time.Duration) {
		if !s.valid(r) {
			return
		}
		center := r.center
		if r.def.Burst.Center == pattern.CenterBoss {
			center = s.boss.Position()
		}
		s.strike(r, now, center, r.def.Range)
		s.finish(r)
	})
}

func (s *Scheduler) pullingField(r *run) {
	pull := r.def.Pull
	nudges := r.group.Every(pull.Interval, func(time.Duration) {
		if !s.valid(r) || !combat.Active(r.target) {
			return
		}
		m, ok := r.target.(combat.Movable)
		if !ok {
			return
		}
		d := s.boss.Position().Sub(r.target.Position())
		step := pull.Step
		if l := d.Len(); l < step {
			step = l
		}
		m.Nudge(d.Norm().Scale(step))
	})
	r.group.After(r.def.Telegraph, func(now time.Duration) {
		r.group.Cancel(nudges)
		if !s.valid(r) {
			return
		}
		s.strike(r, now, s.boss.Position(), r.def.Range)
		s.finish(r)
	})
}

func (s *Scheduler) homingBolt(r *run) {
	bolt := r.def.Bolt
	r.group.After(r.def.Telegraph, func(now time.Duration) {
		if !s.valid(r) {
			return
		}
		if combat.Active(r.target) {
			s.deps.Projectiles.Spawn(now, projectile.Spec{
				PatternID:    r.def.ID,
				Mode:         projectile.Homing,
				Origin:       s.boss.Position(),
				Speed:        bolt.Speed,
				HomingWindow: bolt.HomingWindow,
				MaxLifetime:  bolt.MaxLifetime,
				HitRadius:    bolt.HitRadius,
				DamageFactor: r.def.DamageFactor,
			}, r.target.Position())
		}
		s.finish(r)
	})
}

func (s *Scheduler) fallingVolley(r *run) {
	v := r.def.Volley
	r.group.After(r.def.Telegraph, func(time.Duration) {
		if !s.valid(r) {
			return
		}
		for i := 0; i < v.Count; i++ {
			last := i == v.Count-1
			r.group.After(time.Duration(i)*v.Stagger, func(now time.Duration) {
				if !s.valid(r) {
					return
				}
				if combat.Active(r.target) {
					aim := r.target.Position().Add(combat.Vec2{X: dice.Between(s.deps.Source, -v.Spread, v.Spread)})
					s.deps.Projectiles.Spawn(now, projectile.Spec{
						PatternID:    r.def.ID,
						Mode:         projectile.Falling,
						Origin:       aim.Add(combat.Vec2{Y: -v.FallHeight}),
						Destination:  aim,
						Speed:        v.FallSpeed,
						HitRadius:    v.Radius,
						DamageFactor: r.def.DamageFactor,
					}, aim)
				}
				if last {
					s.finish(r)
				}
			})
		}
	})
}

func (s *Scheduler) teleportStrike(r *run) {
	tp := r.def.Teleport
	s.boss.SetHidden(true)
	r.group.After(r.def.Telegraph, func(time.Duration) {
		if !s.valid(r) {
			return
		}
		if !combat.Active(r.target) {
			s.boss.SetHidden(false)
			s.finish(r)
			return
		}
		// Behind is the side opposite the target's facing.
		behind := combat.Vec2{X: -float64(r.target.Facing().Sign()) * tp.Offset}
		s.boss.Relocate(r.target.Position().Add(behind))
		s.boss.SetHidden(false)
		r.group.After(tp.Pause, func(now time.Duration) {
			if !s.valid(r) {
				return
			}
			s.strike(r, now, s.boss.Position(), r.def.Range)
			s.finish(r)
		})
	})
}

func (s *Scheduler) persistentZone(r *run) {
	z := r.def.Zone
	r.group.After(r.def.Telegraph, func(now time.Duration) {
		if !s.valid(r) {
			return
		}
		if combat.Active(r.target) {
			s.deps.Zones.Start(now, zone.Spec{
				PatternID:    r.def.ID,
				Center:       r.target.Position(),
				Radius:       z.Radius,
				Duration:     z.Duration,
				TickInterval: z.TickInterval,
				DamageFactor: z.DamageFactor,
			})
		}
		s.finish(r)
	})
}
