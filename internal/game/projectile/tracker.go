package projectile

import (
	"time"

	"github.com/cory-johannsen/bossfight/internal/game/combat"
)

// fallingGrace is added to a falling projectile's travel time to form its default lifetime.
const fallingGrace = time.Second

// DamageFunc converts a projectile's damage factor into final outgoing damage.
type DamageFunc func(factor float64) float64

// Tracker owns an arena of projectile slots. Destroyed slots are flagged dead and
// compacted at the end of each Tick; spawns made during a Tick are queued and
// merged after it.
//
// Tracker is not safe for concurrent use.
type Tracker struct {
	slots   []Projectile
	pending []Projectile
	nextID  uint64
	ticking bool
	damage  DamageFunc
}

// NewTracker creates an empty Tracker.
//
// Precondition: damage must not be nil.
func NewTracker(damage DamageFunc) *Tracker {
	if damage == nil {
		panic("projectile.NewTracker: damage must not be nil")
	}
	return &Tracker{damage: damage}
}

// Spawn adds a projectile at now aimed at aim (Homing) or at spec.Destination (Falling).
//
// Postcondition: Returns the new projectile's ID; it is counted by Live immediately.
func (t *Tracker) Spawn(now time.Duration, spec Spec, aim combat.Vec2) uint64 {
	t.nextID++
	p := Projectile{
		ID:           t.nextID,
		PatternID:    spec.PatternID,
		Mode:         spec.Mode,
		Position:     spec.Origin,
		Speed:        spec.Speed,
		Destination:  spec.Destination,
		SpawnedAt:    now,
		HomingWindow: spec.HomingWindow,
		MaxLifetime:  spec.MaxLifetime,
		HitRadius:    spec.HitRadius,
		DamageFactor: spec.DamageFactor,
		updatedAt:    now,
		alive:        true,
	}
	if p.Mode == Falling {
		aim = p.Destination
		if p.MaxLifetime <= 0 {
			p.MaxLifetime = travelTime(p.Position.Distance(p.Destination), p.Speed) + fallingGrace
		}
	}
	p.Velocity = aim.Sub(p.Position).Norm().Scale(p.Speed)
	if t.ticking {
		t.pending = append(t.pending, p)
	} else {
		t.slots = append(t.slots, p)
	}
	return p.ID
}

// Live returns the number of projectiles not yet destroyed.
func (t *Tracker) Live() int {
	n := len(t.pending)
	for i := range t.slots {
		if t.slots[i].alive {
			n++
		}
	}
	return n
}

// Snapshot returns copies of every live projectile.
func (t *Tracker) Snapshot() []Projectile {
	var out []Projectile
	for _, p := range t.slots {
		if p.alive {
			out = append(out, p)
		}
	}
	return append(out, t.pending...)
}

// Tick advances every live projectile to now and resolves hits against target.
// A nil or removed target is never damaged; homing projectiles then fly straight.
//
// Postcondition: each projectile resolves at most once; projectiles whose age
// reached MaxLifetime are destroyed without damage.
func (t *Tracker) Tick(now, delta time.Duration, target combat.Target) []Impact {
	t.ticking = true
	defer func() { t.ticking = false }()

	active := combat.Active(target)
	var impacts []Impact
	for i := range t.slots {
		p := &t.slots[i]
		if !p.alive {
			continue
		}
		if p.Age(now) >= p.MaxLifetime {
			p.alive = false
			continue
		}
		elapsed := now - p.updatedAt
		if elapsed > delta {
			elapsed = delta
		}
		if elapsed < 0 {
			elapsed = 0
		}
		p.updatedAt = now

		var imp *Impact
		switch p.Mode {
		case Homing:
			imp = t.stepHoming(p, now, elapsed, target, active)
		case Falling:
			imp = t.stepFalling(p, now, elapsed, target, active)
		}
		if imp != nil {
			impacts = append(impacts, *imp)
		}
	}
	t.compact()
	return impacts
}

func (t *Tracker) stepHoming(p *Projectile, now, elapsed time.Duration, target combat.Target, active bool) *Impact {
	if active && p.Age(now) < p.HomingWindow {
		p.Velocity = target.Position().Sub(p.Position).Norm().Scale(p.Speed)
	}
	p.Position = p.Position.Add(p.Velocity.Scale(elapsed.Seconds()))
	if !active || p.Position.Distance(target.Position()) >= p.HitRadius {
		return nil
	}
	p.alive = false
	return t.strike(p, now, target)
}

func (t *Tracker) stepFalling(p *Projectile, now, elapsed time.Duration, target combat.Target, active bool) *Impact {
	p.Position = p.Position.Toward(p.Destination, p.Speed*elapsed.Seconds())
	if p.Position != p.Destination {
		return nil
	}
	p.alive = false
	if active && p.Position.Distance(target.Position()) < p.HitRadius {
		return t.strike(p, now, target)
	}
	return &Impact{ProjectileID: p.ID, PatternID: p.PatternID, Mode: p.Mode, Position: p.Position, At: now}
}

func (t *Tracker) strike(p *Projectile, now time.Duration, target combat.Target) *Impact {
	amount := t.damage(p.DamageFactor)
	target.TakeDamage(amount, combat.KnockbackSign(p.Position, target.Position()), now)
	return &Impact{
		ProjectileID: p.ID,
		PatternID:    p.PatternID,
		Mode:         p.Mode,
		Position:     p.Position,
		Hit:          true,
		Damage:       amount,
		At:           now,
	}
}

// compact drops dead slots in place and merges queued spawns.
func (t *Tracker) compact() {
	live := t.slots[:0]
	for _, p := range t.slots {
		if p.alive {
			live = append(live, p)
		}
	}
	for i := len(live); i < len(t.slots); i++ {
		t.slots[i] = Projectile{}
	}
	t.slots = append(live, t.pending...)
	t.pending = t.pending[:0]
}

// ExpireAll destroys every projectile without resolving it.
//
// Postcondition: Live() == 0; returns the number of projectiles destroyed.
func (t *Tracker) ExpireAll() int {
	n := t.Live()
	for i := range t.slots {
		t.slots[i].alive = false
	}
	t.pending = t.pending[:0]
	if !t.ticking {
		t.compact()
	}
	return n
}
