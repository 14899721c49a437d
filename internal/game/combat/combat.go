// Package combat holds the narrow contracts shared by the boss encounter engine:
// geometry, the target and summon capabilities, and the damage resolver.
package combat

import "time"

// Facing is the horizontal direction an entity looks toward.
type Facing int

const (
	FacingRight Facing = iota
	FacingLeft
)

// String returns a human-readable facing label.
func (f Facing) String() string {
	switch f {
	case FacingRight:
		return "right"
	case FacingLeft:
		return "left"
	default:
		return "unknown"
	}
}

// Sign returns +1 for FacingRight and -1 for FacingLeft.
//
// Postcondition: Returns either 1 or -1.
func (f Facing) Sign() int {
	if f == FacingLeft {
		return -1
	}
	return 1
}

// FacingToward returns the facing an entity at from needs to look at to.
// A target directly above or below keeps the current facing.
func FacingToward(from, to Vec2, current Facing) Facing {
	switch {
	case to.X > from.X:
		return FacingRight
	case to.X < from.X:
		return FacingLeft
	default:
		return current
	}
}

// Target is the live entity a boss fights. The engine only reads its position and
// facing and delivers damage through TakeDamage.
type Target interface {
	Position() Vec2
	Facing() Facing
	// TakeDamage applies amount to the target. knockbackSign is +1 when the hit pushes
	// the target toward +X and -1 toward -X.
	TakeDamage(amount float64, knockbackSign int, now time.Duration)
}

// Movable is implemented by targets that can be displaced by pulling effects.
type Movable interface {
	Nudge(delta Vec2)
}

// Removable is implemented by targets that can leave the encounter while it runs.
type Removable interface {
	Removed() bool
}

// Summon is an allied unit that the boss damages on contact.
type Summon interface {
	Position() Vec2
	TakeDamage(amount float64)
}

// Active reports whether t can still be attacked.
//
// Postcondition: Returns false for a nil target or a target reporting Removed().
func Active(t Target) bool {
	if t == nil {
		return false
	}
	if r, ok := t.(Removable); ok && r.Removed() {
		return false
	}
	return true
}

// KnockbackSign returns the direction a hit from attacker pushes a victim standing at victim.
//
// Postcondition: Returns 1 or -1; a victim level with the attacker is pushed toward +X.
func KnockbackSign(attacker, victim Vec2) int {
	if victim.X < attacker.X {
		return -1
	}
	return 1
}
