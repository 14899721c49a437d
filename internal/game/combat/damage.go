package combat

// MinDamage is the floor applied to every mitigated hit on a boss.
const MinDamage = 1.0

// Multipliers are the boss-wide factors scaling the damage a boss deals.
type Multipliers struct {
	// Damage is the phase damage multiplier (1 = unmodified).
	Damage float64
	// Debuff is the curse factor in [0, 1] (1 = no curse).
	Debuff float64
}

// Incoming returns the damage a boss with the given defense takes from a raw hit.
// Formula: max(1, raw - defense). The boss's own outgoing multipliers never apply.
//
// Postcondition: Returns >= MinDamage.
func Incoming(raw, defense float64) float64 {
	d := raw - defense
	if d < MinDamage {
		return MinDamage
	}
	return d
}

// Outgoing returns the damage a boss deals for a raw amount.
// Formula: raw * m.Damage * m.Debuff. No mitigation is applied on this side.
//
// Postcondition: Returns >= 0 for raw >= 0 and non-negative multipliers.
func Outgoing(raw float64, m Multipliers) float64 {
	d := raw * m.Damage * m.Debuff
	if d < 0 {
		return 0
	}
	return d
}

// Raw returns the unscaled damage of a pattern: baseAttack * damageFactor.
func Raw(baseAttack, damageFactor float64) float64 {
	return baseAttack * damageFactor
}
