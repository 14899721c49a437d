// Package sim drives boss encounters headlessly: a scripted dummy target, allied
// summons, a fixed-step runner and a real-time tick loop.
package sim

import (
	"time"

	"github.com/cory-johannsen/bossfight/internal/game/combat"
)

// DummyConfig configures a Dummy.
type DummyConfig struct {
	Health float64
	// Attack is the raw damage of each of the dummy's hits on the boss.
	Attack         float64
	AttackInterval time.Duration
	// Speed is the dummy's walking speed in units per second.
	Speed float64
	// Reach is the distance the dummy closes to before it attacks.
	Reach float64
	// Knockback is how far a hit on the dummy pushes it.
	Knockback float64
	Position  combat.Vec2
}

// Dummy is a simple scripted target: it walks toward the boss and hits it on a
// fixed interval while in reach. It implements combat.Target, combat.Movable and
// combat.Removable.
type Dummy struct {
	cfg      DummyConfig
	health   float64
	pos      combat.Vec2
	facing   combat.Facing
	lastHit  time.Duration
	hasHit   bool
	taken    float64
	hitsTook int
}

// NewDummy creates a Dummy at full health.
func NewDummy(cfg DummyConfig) *Dummy {
	return &Dummy{cfg: cfg, health: cfg.Health, pos: cfg.Position}
}

func (d *Dummy) Position() combat.Vec2 { return d.pos }
func (d *Dummy) Facing() combat.Facing { return d.facing }
func (d *Dummy) Removed() bool         { return d.health <= 0 }
func (d *Dummy) Health() float64       { return d.health }
func (d *Dummy) DamageTaken() float64  { return d.taken }
func (d *Dummy) HitsTaken() int        { return d.hitsTook }

// Nudge displaces the dummy.
func (d *Dummy) Nudge(delta combat.Vec2) { d.pos = d.pos.Add(delta) }

// TakeDamage applies amount and a knockback along X.
func (d *Dummy) TakeDamage(amount float64, knockbackSign int, _ time.Duration) {
	if d.Removed() {
		return
	}
	d.health -= amount
	if d.health < 0 {
		d.health = 0
	}
	d.taken += amount
	d.hitsTook++
	d.pos.X += float64(knockbackSign) * d.cfg.Knockback
}

// Boss is what a Dummy attacks.
type Boss interface {
	Position() combat.Vec2
	IsDead() bool
	Hidden() bool
	ApplyDamage(amount float64, knockbackSign int, now time.Duration) bool
}

// Update moves the dummy toward boss and attacks when in reach and off cooldown.
//
// Postcondition: Returns the raw damage dealt to the boss this frame.
func (d *Dummy) Update(now, delta time.Duration, boss Boss) float64 {
	if d.Removed() || boss.IsDead() || boss.Hidden() {
		return 0
	}
	bp := boss.Position()
	d.facing = combat.FacingToward(d.pos, bp, d.facing)
	if d.pos.Distance(bp) > d.cfg.Reach {
		d.pos = d.pos.Toward(bp, d.cfg.Speed*delta.Seconds())
		return 0
	}
	if d.hasHit && now-d.lastHit < d.cfg.AttackInterval {
		return 0
	}
	d.hasHit = true
	d.lastHit = now
	boss.ApplyDamage(d.cfg.Attack, combat.KnockbackSign(d.pos, bp), now)
	return d.cfg.Attack
}

// Ally is a stationary allied summon.
type Ally struct {
	pos    combat.Vec2
	health float64
	hits   int
}

// NewAlly creates an Ally at pos.
func NewAlly(pos combat.Vec2, health float64) *Ally { return &Ally{pos: pos, health: health} }

func (a *Ally) Position() combat.Vec2 { return a.pos }
func (a *Ally) Health() float64       { return a.health }
func (a *Ally) Hits() int             { return a.hits }

// TakeDamage reduces the ally's health.
func (a *Ally) TakeDamage(amount float64) {
	a.health -= amount
	if a.health < 0 {
		a.health = 0
	}
	a.hits++
}
