package encounter_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/bossfight/internal/game/combat"
	"github.com/cory-johannsen/bossfight/internal/game/dice"
	"github.com/cory-johannsen/bossfight/internal/game/encounter"
	"github.com/cory-johannsen/bossfight/internal/game/event"
	"github.com/cory-johannsen/bossfight/internal/game/loot"
	"github.com/cory-johannsen/bossfight/internal/game/pattern"
)

const ms = time.Millisecond

type hit struct {
	amount float64
	at     time.Duration
}

type target struct {
	pos  combat.Vec2
	hits []hit
}

func (t *target) Position() combat.Vec2 { return t.pos }
func (t *target) Facing() combat.Facing { return combat.FacingRight }
func (t *target) TakeDamage(amount float64, _ int, now time.Duration) {
	t.hits = append(t.hits, hit{amount, now})
}

type summon struct {
	pos  combat.Vec2
	hits []float64
}

func (s *summon) Position() combat.Vec2     { return s.pos }
func (s *summon) TakeDamage(amount float64) { s.hits = append(s.hits, amount) }

func slam() pattern.Definition {
	return pattern.Definition{ID: "slam", Kind: pattern.MeleeArc, Telegraph: 200 * ms, DamageFactor: 1, Range: 60}
}

func newTemplate(defs ...pattern.Definition) *encounter.Template {
	tmpl := &encounter.Template{
		ID:           "ember_tyrant",
		Name:         "Ember Tyrant",
		MaxHealth:    3000,
		BaseAttack:   50,
		Defense:      12,
		BaseCooldown: 2 * time.Second,
		Patterns:     defs,
	}
	tmpl.ApplyDefaults()
	return tmpl
}

func newEncounter(t *testing.T, tmpl *encounter.Template) (*encounter.Encounter, *event.Recorder) {
	t.Helper()
	rec := &event.Recorder{}
	e, err := encounter.New(tmpl, encounter.Options{Hooks: rec.Hooks(), Source: dice.NewSeededSource(3)})
	require.NoError(t, err)
	return e, rec
}

func tickUntil(e *encounter.Encounter, tg combat.Target, summons []combat.Summon, from, to, step time.Duration) {
	for now := from; now <= to; now += step {
		e.Tick(now, step, tg, summons)
	}
}

func TestNew_StartsAtFullHealthPhaseZero(t *testing.T) {
	e, _ := newEncounter(t, newTemplate(slam()))
	assert.Equal(t, 3000.0, e.Health())
	assert.Equal(t, 0, e.Phase())
	assert.False(t, e.IsDead())
	assert.False(t, e.IsAttacking())
	assert.NotEmpty(t, e.ID())
	assert.Equal(t, 1.0, e.DebuffFactor())
}

func TestNew_RejectsInvalidTemplate(t *testing.T) {
	_, err := encounter.New(nil, encounter.Options{})
	assert.Error(t, err)
	tmpl := newTemplate()
	_, err = encounter.New(tmpl, encounter.Options{})
	assert.Error(t, err, "a boss needs at least one pattern")
}

func TestEncounter_IncomingDamageIsMitigated(t *testing.T) {
	e, _ := newEncounter(t, newTemplate(slam()))
	assert.False(t, e.ApplyDamage(50, 0, 0))
	assert.Equal(t, 3000.0-38, e.Health())
	e.ApplyDamage(5, 0, 0)
	assert.Equal(t, 3000.0-39, e.Health(), "every hit deals at least 1")
}

func TestEncounter_OutgoingDamageScalesWithPhaseAndCurse(t *testing.T) {
	e, _ := newEncounter(t, newTemplate(slam()))
	assert.Equal(t, 50.0, e.Outgoing(1))
	e.ApplyDamage(2512, 0, 0) // 2500 after defense: health 500, both thresholds crossed
	require.Equal(t, 2, e.Phase())
	e.ApplyCurse(0.7, time.Second)
	assert.InDelta(t, 52.5, e.Outgoing(1), 1e-9)
}

func TestEncounter_ThresholdExactness(t *testing.T) {
	e, rec := newEncounter(t, newTemplate(slam()))
	e.ApplyDamage(911, 0, 0) // 899 after defense
	assert.Equal(t, 2101.0, e.Health())
	assert.Equal(t, 0, e.Phase())

	e.ApplyDamage(13, 0, 10*ms)
	assert.Equal(t, 2100.0, e.Health())
	assert.Equal(t, 1, e.Phase())

	e.ApplyDamage(1212, 0, 20*ms)
	assert.Equal(t, 900.0, e.Health())
	assert.Equal(t, 2, e.Phase())

	require.Len(t, rec.Phases, 2)
	assert.Equal(t, 1, rec.Phases[0].Phase)
	assert.Equal(t, 10*ms, rec.Phases[0].At)
	assert.Equal(t, 2, rec.Phases[1].Phase)
	assert.InDelta(t, 1.3*1.8, e.Modifiers().AttackSpeedMultiplier, 1e-9)
	assert.InDelta(t, 1.5, e.Modifiers().DamageMultiplier, 1e-9)
}

func TestEncounter_PhaseChangeUnlocksPatterns(t *testing.T) {
	bolt := pattern.Definition{ID: "cinder_bolt", Kind: pattern.HomingBolt, MinPhase: 1, DamageFactor: 0.6}
	pool := pattern.Definition{ID: "magma_pool", Kind: pattern.PersistentZone, MinPhase: 2, DamageFactor: 0.3}
	core, logs := observer.New(zap.InfoLevel)
	rec := &event.Recorder{}
	e, err := encounter.New(newTemplate(slam(), bolt, pool), encounter.Options{Hooks: rec.Hooks(), Logger: zap.New(core)})
	require.NoError(t, err)

	e.ApplyDamage(1012, 0, 0)
	e.ApplyDamage(1512, 0, 0)
	require.Len(t, rec.Phases, 2)
	assert.Equal(t, []string{"cinder_bolt"}, rec.Phases[0].Unlocked)
	assert.Equal(t, []string{"magma_pool"}, rec.Phases[1].Unlocked)
	assert.Len(t, e.Library().Available(e.Phase()), 3)
	assert.Equal(t, 2, logs.FilterMessage("boss phase changed").Len())
}

func TestEncounter_MeleeScenario(t *testing.T) {
	e, rec := newEncounter(t, newTemplate(slam()))
	tg := &target{pos: combat.Vec2{X: 30}}

	e.Tick(0, 20*ms, tg, nil)
	require.True(t, e.IsAttacking())
	require.Len(t, rec.Telegraphs, 1)
	assert.Equal(t, "slam", rec.Telegraphs[0].PatternID)

	tickUntil(e, tg, nil, 20*ms, 400*ms, 20*ms)
	require.Len(t, tg.hits, 1)
	assert.Equal(t, 50.0, tg.hits[0].amount)
	assert.Equal(t, 200*ms, tg.hits[0].at)
	require.Len(t, rec.Resolutions, 1)
	assert.Equal(t, 50.0, rec.Resolutions[0].Damage)
	assert.False(t, e.IsAttacking())
}

func TestEncounter_CooldownBetweenAttacks(t *testing.T) {
	e, rec := newEncounter(t, newTemplate(slam()))
	tg := &target{pos: combat.Vec2{X: 30}}
	tickUntil(e, tg, nil, 0, 1990*ms, 10*ms)
	assert.Len(t, rec.Telegraphs, 1)
	e.Tick(2000*ms, 10*ms, tg, nil)
	assert.Len(t, rec.Telegraphs, 2)
}

func TestEncounter_DeathIsIdempotent(t *testing.T) {
	rewardTable := &loot.Table{Currency: &loot.Range{Min: 10, Max: 10}}
	tmpl := newTemplate(slam())
	tmpl.Reward = rewardTable
	e, rec := newEncounter(t, tmpl)
	tg := &target{pos: combat.Vec2{X: 30}}

	assert.True(t, e.ApplyDamage(5000, 0, 100*ms))
	assert.True(t, e.IsDead())
	assert.Equal(t, 0.0, e.Health())
	require.Len(t, rec.Deaths, 1)
	assert.Equal(t, 10, rec.Deaths[0].Reward.Currency)
	reward, ok := e.Reward()
	assert.True(t, ok)
	assert.Equal(t, 10, reward.Currency)

	before := rec.Total()
	assert.False(t, e.ApplyDamage(5000, 0, 200*ms))
	tickUntil(e, tg, nil, 200*ms, 5*time.Second, 20*ms)
	e.ApplyCurse(0.1, time.Second)
	assert.Equal(t, before, rec.Total(), "no events after death")
	assert.Equal(t, 0, e.Phase())
	assert.Empty(t, tg.hits)
	assert.Equal(t, 1.0, e.DebuffFactor())
}

func TestEncounter_DeathCancelsInFlightAttack(t *testing.T) {
	e, rec := newEncounter(t, newTemplate(slam()))
	tg := &target{pos: combat.Vec2{X: 30}}
	e.Tick(0, 20*ms, tg, nil)
	require.True(t, e.IsAttacking())
	e.ApplyDamage(9999, 0, 100*ms)
	assert.False(t, e.IsAttacking())
	tickUntil(e, tg, nil, 120*ms, time.Second, 20*ms)
	assert.Empty(t, tg.hits)
	assert.Empty(t, rec.Resolutions)
}

func TestEncounter_DeathExpiresProjectilesAndZone(t *testing.T) {
	bolt := pattern.Definition{ID: "bolt", Kind: pattern.HomingBolt, DamageFactor: 0.6, Bolt: &pattern.Bolt{Speed: 1}}
	e, _ := newEncounter(t, newTemplate(bolt))
	tg := &target{pos: combat.Vec2{X: 900}}
	tickUntil(e, tg, nil, 0, 100*ms, 20*ms)
	require.Equal(t, 1, e.LiveProjectiles())
	e.ApplyDamage(9999, 0, 120*ms)
	assert.Equal(t, 0, e.LiveProjectiles())
	_, ok := e.Zone()
	assert.False(t, ok)
}

func TestEncounter_ZonePulsesDiscretely(t *testing.T) {
	pool := pattern.Definition{ID: "pool", Kind: pattern.PersistentZone, DamageFactor: 0.2,
		Zone: &pattern.Zone{Duration: 1500 * ms, TickInterval: 500 * ms, Radius: 50}}
	e, rec := newEncounter(t, newTemplate(pool))
	tg := &target{pos: combat.Vec2{X: 300}}
	tickUntil(e, tg, nil, 0, 1900*ms, 16*ms)

	assert.Len(t, tg.hits, 3)
	assert.Len(t, rec.Resolutions, 3)
	for _, h := range tg.hits {
		assert.Equal(t, 10.0, h.amount)
	}
	_, ok := e.Zone()
	assert.False(t, ok)
}

func TestEncounter_HomingBoltResolvesThroughTracker(t *testing.T) {
	bolt := pattern.Definition{ID: "bolt", Kind: pattern.HomingBolt, Telegraph: 100 * ms, DamageFactor: 0.5}
	e, rec := newEncounter(t, newTemplate(bolt))
	tg := &target{pos: combat.Vec2{X: 100}}
	tickUntil(e, tg, nil, 0, 1500*ms, 10*ms)
	require.Len(t, tg.hits, 1)
	assert.Equal(t, 25.0, tg.hits[0].amount)
	require.Len(t, rec.Resolutions, 1)
	assert.Equal(t, "bolt", rec.Resolutions[0].PatternID)
	assert.True(t, rec.Resolutions[0].Hit)
}

func TestEncounter_SummonContactCooldown(t *testing.T) {
	far := pattern.Definition{ID: "slam", Kind: pattern.MeleeArc, Telegraph: 200 * ms, Range: 1}
	e, _ := newEncounter(t, newTemplate(far))
	tg := &target{pos: combat.Vec2{X: 500}}
	near := &summon{pos: combat.Vec2{X: 10}}
	other := &summon{pos: combat.Vec2{X: 20}}
	tickUntil(e, tg, []combat.Summon{near, other}, 0, 3000*ms, 100*ms)

	assert.Equal(t, []float64{25, 25, 25}, near.hits, "first match wins on a shared 1.5s cooldown")
	assert.Empty(t, other.hits)
}

func TestEncounter_KnockbackAndFacing(t *testing.T) {
	tmpl := newTemplate(slam())
	tmpl.Knockback = 4
	e, _ := newEncounter(t, tmpl)
	e.ApplyDamage(20, -1, 0)
	assert.Equal(t, combat.Vec2{X: -4}, e.Position())

	e.Tick(0, 10*ms, &target{pos: combat.Vec2{X: 100}}, nil)
	assert.Equal(t, combat.FacingRight, e.Facing())
	e.Tick(10*ms, 10*ms, &target{pos: combat.Vec2{X: -100}}, nil)
	assert.Equal(t, combat.FacingLeft, e.Facing())
}

func TestEncounter_CurseDecays(t *testing.T) {
	e, _ := newEncounter(t, newTemplate(slam()))
	e.ApplyCurse(0.5, 300*ms)
	assert.Equal(t, 0.5, e.DebuffFactor())
	assert.Equal(t, 25.0, e.Outgoing(1))
	tg := &target{pos: combat.Vec2{X: 1000}}
	tickUntil(e, tg, nil, 100*ms, 300*ms, 100*ms)
	assert.Equal(t, 1.0, e.DebuffFactor())
}

func TestPropertyEncounter_HealthAndPhaseInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rec := &event.Recorder{}
		e, err := encounter.New(newTemplate(slam()), encounter.Options{Hooks: rec.Hooks(), Source: dice.NewSeededSource(1)})
		if err != nil {
			rt.Fatal(err)
		}
		last := 0
		for i, raw := range rapid.SliceOfN(rapid.Float64Range(0, 700), 1, 40).Draw(rt, "hits") {
			e.ApplyDamage(raw, 1, time.Duration(i)*ms)
			if h := e.Health(); h < 0 || h > e.MaxHealth() {
				rt.Fatalf("health %v out of range", h)
			}
			if e.Phase() < last {
				rt.Fatalf("phase decreased")
			}
			last = e.Phase()
		}
		seen := map[int]bool{}
		for _, p := range rec.Phases {
			if seen[p.Phase] {
				rt.Fatalf("phase %d fired twice", p.Phase)
			}
			seen[p.Phase] = true
		}
		if len(rec.Deaths) > 1 {
			rt.Fatalf("died %d times", len(rec.Deaths))
		}
	})
}
