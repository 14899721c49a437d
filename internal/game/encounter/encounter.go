// Package encounter composes the phase controller, attack scheduler, projectile
// tracker and zone manager into a single boss fight driven by Tick.
package encounter

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/bossfight/internal/game/attack"
	"github.com/cory-johannsen/bossfight/internal/game/clock"
	"github.com/cory-johannsen/bossfight/internal/game/combat"
	"github.com/cory-johannsen/bossfight/internal/game/curse"
	"github.com/cory-johannsen/bossfight/internal/game/dice"
	"github.com/cory-johannsen/bossfight/internal/game/event"
	"github.com/cory-johannsen/bossfight/internal/game/loot"
	"github.com/cory-johannsen/bossfight/internal/game/pattern"
	"github.com/cory-johannsen/bossfight/internal/game/phase"
	"github.com/cory-johannsen/bossfight/internal/game/projectile"
	"github.com/cory-johannsen/bossfight/internal/game/zone"
)

// Options are optional collaborators of an Encounter.
type Options struct {
	// ID overrides the generated encounter id.
	ID     string
	Hooks  event.Hooks
	Source dice.Source
	Logger *zap.Logger
}

// Encounter is one live boss. It is not safe for concurrent use; the host must
// serialise Tick, ApplyDamage and ApplyCurse.
//
// Invariant: 0 <= Health() <= MaxHealth(); Phase() never decreases; once IsDead()
// nothing further changes.
type Encounter struct {
	id    string
	tmpl  *Template
	log   *zap.Logger
	hooks event.Hooks
	src   dice.Source

	clock       *clock.Scheduler
	phases      *phase.Controller
	library     *pattern.Library
	attacks     *attack.Scheduler
	projectiles *projectile.Tracker
	zones       *zone.Manager
	curse       curse.State

	health float64
	pos    combat.Vec2
	facing combat.Facing
	hidden bool
	dead   bool
	now    time.Duration
	reward loot.Result

	summonHit   bool
	summonHitAt time.Duration
}

// New creates an encounter at full health in phase 0.
//
// Precondition: tmpl has had ApplyDefaults called and passes Validate.
// Postcondition: Returns a live Encounter, or an error if tmpl is invalid.
func New(tmpl *Template, opts Options) (*Encounter, error) {
	if tmpl == nil {
		return nil, fmt.Errorf("encounter: template must not be nil")
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	lib, err := tmpl.Library()
	if err != nil {
		return nil, err
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Source == nil {
		opts.Source = dice.NewCryptoSource()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	phases, err := phase.NewController(tmpl.Phases, tmpl.BaseCooldown, lib.UnlockedAt)
	if err != nil {
		return nil, fmt.Errorf("boss template %q: %w", tmpl.ID, err)
	}

	e := &Encounter{
		id:      opts.ID,
		tmpl:    tmpl,
		log:     opts.Logger,
		hooks:   opts.Hooks,
		src:     opts.Source,
		clock:   clock.NewScheduler(),
		phases:  phases,
		library: lib,
		health:  tmpl.MaxHealth,
		pos:     tmpl.Position,
		facing:  combat.FacingLeft,
	}
	e.projectiles = projectile.NewTracker(e.Outgoing)
	e.zones = zone.NewManager(e.Outgoing)
	e.attacks = attack.New(e, attack.Deps{
		Clock:       e.clock,
		Library:     lib,
		Projectiles: e.projectiles,
		Zones:       e.zones,
		Hooks:       opts.Hooks,
		Source:      opts.Source,
		Logger:      opts.Logger,
	})
	e.log.Info("encounter started",
		zap.Float64("max_health", tmpl.MaxHealth),
		zap.Int("patterns", lib.Len()),
		zap.Int("phases", phases.MaxPhase()),
	)
	return e, nil
}

func (e *Encounter) ID() string                 { return e.id }
func (e *Encounter) TemplateID() string         { return e.tmpl.ID }
func (e *Encounter) Name() string               { return e.tmpl.Name }
func (e *Encounter) Health() float64            { return e.health }
func (e *Encounter) MaxHealth() float64         { return e.tmpl.MaxHealth }
func (e *Encounter) IsDead() bool               { return e.dead }
func (e *Encounter) Phase() int                 { return e.phases.Phase() }
func (e *Encounter) Position() combat.Vec2      { return e.pos }
func (e *Encounter) Facing() combat.Facing      { return e.facing }
func (e *Encounter) Hidden() bool               { return e.hidden }
func (e *Encounter) IsAttacking() bool          { return e.attacks.InFlight() }
func (e *Encounter) Modifiers() phase.Modifiers { return e.phases.Modifiers() }
func (e *Encounter) DebuffFactor() float64      { return e.curse.Factor() }
func (e *Encounter) Cooldown() time.Duration    { return e.phases.Modifiers().Cooldown() }
func (e *Encounter) Now() time.Duration         { return e.now }

// Library returns the encounter's pattern catalog.
func (e *Encounter) Library() *pattern.Library { return e.library }

// LiveProjectiles returns the number of projectiles in flight.
func (e *Encounter) LiveProjectiles() int { return e.projectiles.Live() }

// Zone returns the active persistent zone.
func (e *Encounter) Zone() (zone.Zone, bool) { return e.zones.Active() }

// Reward returns the reward rolled at death.
func (e *Encounter) Reward() (loot.Result, bool) { return e.reward, e.dead }

// Relocate moves the boss. Used by teleporting patterns.
func (e *Encounter) Relocate(p combat.Vec2) { e.pos = p }

// SetHidden toggles the boss's visibility. A hidden boss deals no contact damage.
func (e *Encounter) SetHidden(hidden bool) { e.hidden = hidden }

// Outgoing returns the final damage the boss deals with damageFactor.
// Formula: baseAttack * damageFactor * damageMultiplier * debuffFactor.
func (e *Encounter) Outgoing(damageFactor float64) float64 {
	return combat.Outgoing(combat.Raw(e.tmpl.BaseAttack, damageFactor), combat.Multipliers{
		Damage: e.phases.Modifiers().DamageMultiplier,
		Debuff: e.curse.Factor(),
	})
}

// ApplyCurse replaces the boss's debuff with factor for duration.
// A dead boss ignores curses.
func (e *Encounter) ApplyCurse(factor float64, duration time.Duration) {
	if e.dead {
		return
	}
	e.curse.Apply(factor, duration)
	e.log.Debug("curse applied", zap.Float64("factor", e.curse.Factor()), zap.Duration("duration", duration))
}

// ApplyDamage mitigates a raw hit with the boss's defense and applies it.
// knockbackSign pushes the boss along X by the template's knockback distance.
//
// Postcondition: Returns true iff this hit killed the boss; a dead boss is unaffected
// and returns false.
func (e *Encounter) ApplyDamage(amount float64, knockbackSign int, now time.Duration) bool {
	if e.dead {
		return false
	}
	dmg := combat.Incoming(amount, e.tmpl.Defense)
	e.health -= dmg
	if e.health < 0 {
		e.health = 0
	}
	if knockbackSign != 0 && e.tmpl.Knockback > 0 {
		e.pos.X += float64(sign(knockbackSign)) * e.tmpl.Knockback
	}
	e.log.Debug("boss damaged",
		zap.Float64("raw", amount),
		zap.Float64("damage", dmg),
		zap.Float64("health", e.health),
	)
	if e.health <= 0 {
		e.die(now)
		return true
	}
	e.evaluatePhase(now)
	return false
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}

// Tick advances the encounter to now. delta is the frame length.
//
// Order: curse decay, phase evaluation, pattern progression, attack start,
// projectiles, persistent zone, summon contact.
func (e *Encounter) Tick(now, delta time.Duration, target combat.Target, summons []combat.Summon) {
	if e.dead {
		return
	}
	e.now = now
	if e.curse.Tick(delta) {
		e.log.Debug("curse expired")
	}
	e.evaluatePhase(now)
	e.clock.Advance(now)
	if e.dead {
		return
	}
	if !e.hidden && combat.Active(target) {
		e.facing = combat.FacingToward(e.pos, target.Position(), e.facing)
	}
	e.attacks.TryStart(now, target)
	for _, imp := range e.projectiles.Tick(now, delta, target) {
		e.hooks.EmitResolution(event.Resolution{
			BossID:    e.id,
			PatternID: imp.PatternID,
			Damage:    imp.Damage,
			Hit:       imp.Hit,
			At:        imp.At,
		})
	}
	for _, p := range e.zones.Tick(now, delta, target) {
		e.hooks.EmitResolution(event.Resolution{
			BossID:    e.id,
			PatternID: p.PatternID,
			Damage:    p.Damage,
			Hit:       true,
			At:        p.At,
		})
	}
	e.summonContact(now, summons)
}

func (e *Encounter) evaluatePhase(now time.Duration) {
	for _, tr := range e.phases.Evaluate(e.health, e.tmpl.MaxHealth) {
		mods := tr.Modifiers
		e.log.Info("boss phase changed",
			zap.Int("from", tr.From),
			zap.Int("phase", tr.To),
			zap.Strings("unlocked", tr.Unlocked),
			zap.Float64("damage_multiplier", mods.DamageMultiplier),
			zap.Float64("attack_speed_multiplier", mods.AttackSpeedMultiplier),
			zap.Duration("cooldown", mods.Cooldown()),
		)
		e.hooks.EmitPhaseChanged(event.PhaseChanged{
			BossID:   e.id,
			From:     tr.From,
			Phase:    tr.To,
			Unlocked: tr.Unlocked,
			At:       now,
		})
	}
}

func (e *Encounter) summonContact(now time.Duration, summons []combat.Summon) {
	sc := e.tmpl.SummonContact
	if e.hidden || len(summons) == 0 || sc == nil || sc.Radius <= 0 {
		return
	}
	if e.summonHit && now-e.summonHitAt < sc.Cooldown {
		return
	}
	for _, s := range summons {
		if s == nil || e.pos.Distance(s.Position()) >= sc.Radius {
			continue
		}
		amount := e.Outgoing(sc.DamageFactor)
		s.TakeDamage(amount)
		e.summonHit = true
		e.summonHitAt = now
		e.log.Debug("summon contact", zap.Float64("damage", amount))
		return
	}
}

// die is the terminal transition: it cancels the in-flight attack, force-expires
// projectiles and the zone, rolls the reward and emits the death event once.
func (e *Encounter) die(now time.Duration) {
	e.dead = true
	e.hidden = false
	e.attacks.Abort()
	expired := e.projectiles.ExpireAll()
	e.zones.Clear()
	if e.tmpl.Reward != nil {
		e.reward = loot.Roll(*e.tmpl.Reward, e.src)
	}
	e.log.Info("boss died",
		zap.Duration("at", now),
		zap.Int("expired_projectiles", expired),
		zap.Int("reward_currency", e.reward.Currency),
		zap.Int("reward_items", len(e.reward.Items)),
	)
	e.hooks.EmitDeath(event.Death{BossID: e.id, Reward: e.reward, At: now})
}
