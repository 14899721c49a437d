// Package projectile tracks the homing bolts and falling shots a boss has in the air.
package projectile

import (
	"time"

	"github.com/cory-johannsen/bossfight/internal/game/combat"
)

// Mode selects how a projectile moves and resolves.
type Mode int

const (
	// Homing projectiles re-aim at the target during their homing window and hit on proximity.
	Homing Mode = iota
	// Falling projectiles travel to a fixed destination and resolve an area check on arrival.
	Falling
)

// String returns a human-readable mode label.
func (m Mode) String() string {
	switch m {
	case Homing:
		return "homing"
	case Falling:
		return "falling"
	default:
		return "unknown"
	}
}

// Spec describes a projectile to spawn.
type Spec struct {
	PatternID string
	Mode      Mode
	Origin    combat.Vec2
	// Destination is the landing point of a Falling projectile. Unused for Homing.
	Destination combat.Vec2
	// Speed is in units per second.
	Speed        float64
	HomingWindow time.Duration
	// MaxLifetime bounds the projectile's age. Zero on a Falling projectile derives
	// one from its travel time.
	MaxLifetime  time.Duration
	HitRadius    float64
	DamageFactor float64
}

// Projectile is a live tracked projectile.
type Projectile struct {
	ID           uint64
	PatternID    string
	Mode         Mode
	Position     combat.Vec2
	Velocity     combat.Vec2
	Speed        float64
	Destination  combat.Vec2
	SpawnedAt    time.Duration
	HomingWindow time.Duration
	MaxLifetime  time.Duration
	HitRadius    float64
	DamageFactor float64

	updatedAt time.Duration
	alive     bool
}

// Age returns how long the projectile has existed at now.
func (p *Projectile) Age(now time.Duration) time.Duration { return now - p.SpawnedAt }

// Alive reports whether the projectile has not been destroyed.
func (p *Projectile) Alive() bool { return p.alive }

// Impact is the outcome of a projectile resolving against the target.
type Impact struct {
	ProjectileID uint64
	PatternID    string
	Mode         Mode
	Position     combat.Vec2
	Hit          bool
	Damage       float64
	At           time.Duration
}

// travelTime returns how long a projectile at speed needs to cover dist.
func travelTime(dist, speed float64) time.Duration {
	if speed <= 0 {
		return 0
	}
	return time.Duration(dist / speed * float64(time.Second))
}
