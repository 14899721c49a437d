// Package phase implements the boss phase controller: a one-way state machine that
// escalates on health thresholds and mutates the boss-wide attack modifiers.
package phase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/looplab/fsm"
)

const escalate = "escalate"

// Tier is one escalation step. Entering the tier multiplies the running damage and
// attack speed multipliers (cumulatively) and, when Cooldown > 0, replaces the base
// cooldown. Zero multipliers mean "unchanged".
type Tier struct {
	// Threshold is the health fraction at or below which the tier is entered.
	Threshold             float64       `yaml:"threshold"`
	DamageMultiplier      float64       `yaml:"damage_multiplier"`
	AttackSpeedMultiplier float64       `yaml:"attack_speed_multiplier"`
	Cooldown              time.Duration `yaml:"cooldown"`
}

// DefaultPhaseTwoCooldown is the base cooldown after the second default tier.
const DefaultPhaseTwoCooldown = 900 * time.Millisecond

// DefaultTiers returns the standard two-tier escalation: phase 1 at 70% health with
// attack speed x1.3; phase 2 at 30% with damage x1.5, attack speed x1.8 and a
// shorter base cooldown.
func DefaultTiers() []Tier {
	return []Tier{
		{Threshold: 0.7, DamageMultiplier: 1, AttackSpeedMultiplier: 1.3},
		{Threshold: 0.3, DamageMultiplier: 1.5, AttackSpeedMultiplier: 1.8, Cooldown: DefaultPhaseTwoCooldown},
	}
}

// ValidateTiers checks that thresholds are in (0, 1) and strictly decreasing and that
// no multiplier or cooldown is negative.
func ValidateTiers(tiers []Tier) error {
	var errs []string
	for i, t := range tiers {
		if t.Threshold <= 0 || t.Threshold >= 1 {
			errs = append(errs, fmt.Sprintf("phases[%d] threshold must be in (0, 1), got %g", i, t.Threshold))
		}
		if i > 0 && t.Threshold >= tiers[i-1].Threshold {
			errs = append(errs, fmt.Sprintf("phases[%d] threshold must be below phases[%d]", i, i-1))
		}
		if t.DamageMultiplier < 0 || t.AttackSpeedMultiplier < 0 {
			errs = append(errs, fmt.Sprintf("phases[%d] multipliers must be >= 0", i))
		}
		if t.Cooldown < 0 {
			errs = append(errs, fmt.Sprintf("phases[%d] cooldown must be >= 0", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("phase tiers: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Modifiers are the boss-wide values the controller owns.
type Modifiers struct {
	DamageMultiplier      float64
	AttackSpeedMultiplier float64
	BaseCooldown          time.Duration
}

// Cooldown returns the effective time between attack starts: BaseCooldown / AttackSpeedMultiplier.
func (m Modifiers) Cooldown() time.Duration {
	if m.AttackSpeedMultiplier <= 0 {
		return m.BaseCooldown
	}
	return time.Duration(float64(m.BaseCooldown) / m.AttackSpeedMultiplier)
}

func (m Modifiers) apply(t Tier) Modifiers {
	if t.DamageMultiplier > 0 {
		m.DamageMultiplier *= t.DamageMultiplier
	}
	if t.AttackSpeedMultiplier > 0 {
		m.AttackSpeedMultiplier *= t.AttackSpeedMultiplier
	}
	if t.Cooldown > 0 {
		m.BaseCooldown = t.Cooldown
	}
	return m
}

// Transition describes a single phase change.
type Transition struct {
	From      int
	To        int
	Unlocked  []string
	Modifiers Modifiers
}

// UnlockFunc reports the pattern ids that first become available in a phase.
type UnlockFunc func(phase int) []string

// Controller tracks a boss's phase.
//
// Invariant: Phase() never decreases and each tier is entered at most once.
type Controller struct {
	tiers    []Tier
	machine  *fsm.FSM
	mods     Modifiers
	unlocked UnlockFunc
	phase    int
}

func stateName(phase int) string { return fmt.Sprintf("phase%d", phase) }

// NewController creates a Controller in phase 0 with unit multipliers.
//
// Precondition: tiers pass ValidateTiers; baseCooldown >= 0.
// Postcondition: Returns a Controller at phase 0, or the validation error.
func NewController(tiers []Tier, baseCooldown time.Duration, unlocked UnlockFunc) (*Controller, error) {
	if err := ValidateTiers(tiers); err != nil {
		return nil, err
	}
	if baseCooldown < 0 {
		return nil, fmt.Errorf("phase controller: base cooldown must be >= 0, got %s", baseCooldown)
	}
	if unlocked == nil {
		unlocked = func(int) []string { return nil }
	}
	c := &Controller{
		tiers:    append([]Tier(nil), tiers...),
		mods:     Modifiers{DamageMultiplier: 1, AttackSpeedMultiplier: 1, BaseCooldown: baseCooldown},
		unlocked: unlocked,
	}
	events := make(fsm.Events, 0, len(tiers))
	for i := range tiers {
		events = append(events, fsm.EventDesc{Name: escalate, Src: []string{stateName(i)}, Dst: stateName(i + 1)})
	}
	c.machine = fsm.NewFSM(stateName(0), events, fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) { c.enter() },
	})
	return c, nil
}

// enter applies the tier just entered.
func (c *Controller) enter() {
	c.mods = c.mods.apply(c.tiers[c.phase])
	c.phase++
}

// Phase returns the current phase index.
func (c *Controller) Phase() int { return c.phase }

// MaxPhase returns the highest reachable phase.
func (c *Controller) MaxPhase() int { return len(c.tiers) }

// State returns the underlying state machine's current state name.
func (c *Controller) State() string { return c.machine.Current() }

// Modifiers returns the current boss-wide modifiers.
func (c *Controller) Modifiers() Modifiers { return c.mods }

// Evaluate enters every tier whose threshold the health ratio has reached, in order.
// A hit crossing several thresholds yields several transitions.
//
// Postcondition: Returns nil when no tier fires; never refires a tier already entered.
func (c *Controller) Evaluate(health, maxHealth float64) []Transition {
	if maxHealth <= 0 {
		return nil
	}
	ratio := health / maxHealth
	var out []Transition
	for c.phase < len(c.tiers) && ratio <= c.tiers[c.phase].Threshold {
		from := c.phase
		if err := c.machine.Event(context.Background(), escalate); err != nil {
			break
		}
		out = append(out, Transition{
			From:      from,
			To:        c.phase,
			Unlocked:  c.unlocked(c.phase),
			Modifiers: c.mods,
		})
	}
	return out
}
