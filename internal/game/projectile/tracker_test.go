package projectile_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/bossfight/internal/game/combat"
	"github.com/cory-johannsen/bossfight/internal/game/projectile"
)

const ms = time.Millisecond

type hit struct {
	amount float64
	sign   int
	at     time.Duration
}

type target struct {
	pos     combat.Vec2
	removed bool
	hits    []hit
}

func (t *target) Position() combat.Vec2 { return t.pos }
func (t *target) Facing() combat.Facing { return combat.FacingRight }
func (t *target) Removed() bool         { return t.removed }
func (t *target) TakeDamage(amount float64, sign int, now time.Duration) {
	t.hits = append(t.hits, hit{amount, sign, now})
}

func hundredfold(f float64) float64 { return f * 100 }

func boltSpec() projectile.Spec {
	return projectile.Spec{
		PatternID:    "bolt",
		Mode:         projectile.Homing,
		Speed:        200,
		HomingWindow: time.Second,
		MaxLifetime:  4 * time.Second,
		HitRadius:    10,
		DamageFactor: 0.5,
	}
}

func run(tr *projectile.Tracker, tg combat.Target, from, to, step time.Duration) []projectile.Impact {
	var out []projectile.Impact
	for now := from + step; now <= to; now += step {
		out = append(out, tr.Tick(now, step, tg)...)
	}
	return out
}

func TestTracker_HomingBoltHitsOnce(t *testing.T) {
	tr := projectile.NewTracker(hundredfold)
	tg := &target{pos: combat.Vec2{X: 100}}
	tr.Spawn(0, boltSpec(), tg.pos)

	impacts := run(tr, tg, 0, 2*time.Second, 10*ms)
	require.Len(t, impacts, 1)
	assert.True(t, impacts[0].Hit)
	assert.Equal(t, 50.0, impacts[0].Damage)
	require.Len(t, tg.hits, 1)
	assert.Equal(t, 1, tg.hits[0].sign)
	assert.Equal(t, 0, tr.Live())
}

func TestTracker_HomingTracksMovingTarget(t *testing.T) {
	tr := projectile.NewTracker(hundredfold)
	tg := &target{pos: combat.Vec2{X: 100}}
	tr.Spawn(0, boltSpec(), tg.pos)
	tg.pos = combat.Vec2{X: 0, Y: 100}

	impacts := run(tr, tg, 0, 2*time.Second, 10*ms)
	require.Len(t, impacts, 1)
	assert.InDelta(t, 100, impacts[0].Position.Y, 10)
}

func TestTracker_StraightAfterHomingWindow(t *testing.T) {
	tr := projectile.NewTracker(hundredfold)
	spec := boltSpec()
	spec.HomingWindow = 0
	tg := &target{pos: combat.Vec2{X: 100}}
	tr.Spawn(0, spec, tg.pos)
	tg.pos = combat.Vec2{Y: 300}

	impacts := run(tr, tg, 0, 1*time.Second, 10*ms)
	assert.Empty(t, impacts)
	snap := tr.Snapshot()
	require.Len(t, snap, 1)
	assert.InDelta(t, 200, snap[0].Position.X, 0.001)
	assert.InDelta(t, 0, snap[0].Position.Y, 0.001)
}

func TestTracker_BoltExpiresAtMaxLifetimeWithoutDamage(t *testing.T) {
	tr := projectile.NewTracker(hundredfold)
	spec := boltSpec()
	spec.Speed = 10
	tg := &target{pos: combat.Vec2{X: 10000}}
	tr.Spawn(0, spec, tg.pos)

	assert.Empty(t, run(tr, tg, 0, 3990*ms, 10*ms))
	assert.Equal(t, 1, tr.Live(), "alive just before max lifetime")
	assert.Empty(t, tr.Tick(4000*ms, 10*ms, tg))
	assert.Equal(t, 0, tr.Live(), "destroyed at max lifetime")
	assert.Empty(t, tg.hits)
}

func TestTracker_FallingResolvesAgainstPositionAtArrival(t *testing.T) {
	tr := projectile.NewTracker(hundredfold)
	spec := projectile.Spec{
		PatternID:    "rain",
		Mode:         projectile.Falling,
		Origin:       combat.Vec2{X: 50, Y: -300},
		Destination:  combat.Vec2{X: 50},
		Speed:        600,
		HitRadius:    20,
		DamageFactor: 0.2,
	}
	tg := &target{pos: combat.Vec2{X: 50}}
	tr.Spawn(0, spec, combat.Vec2{})
	tr.Spawn(0, spec, combat.Vec2{})

	impacts := run(tr, tg, 0, 200*ms, 10*ms)
	assert.Empty(t, impacts, "still falling")
	tg.pos = combat.Vec2{X: 500}
	impacts = run(tr, tg, 200*ms, time.Second, 10*ms)
	require.Len(t, impacts, 2)
	for _, imp := range impacts {
		assert.False(t, imp.Hit, "target moved out before arrival")
		assert.Equal(t, 0.0, imp.Damage)
	}
	assert.Empty(t, tg.hits)
}

func TestTracker_FallingHitsTargetInRadius(t *testing.T) {
	tr := projectile.NewTracker(hundredfold)
	tg := &target{pos: combat.Vec2{X: 5}}
	tr.Spawn(0, projectile.Spec{Mode: projectile.Falling, Origin: combat.Vec2{Y: -60}, Speed: 600, HitRadius: 20, DamageFactor: 0.2}, combat.Vec2{})
	impacts := run(tr, tg, 0, 200*ms, 10*ms)
	require.Len(t, impacts, 1)
	assert.True(t, impacts[0].Hit)
	assert.Equal(t, 20.0, impacts[0].Damage)
}

func TestTracker_RemovedTargetNeverDamaged(t *testing.T) {
	tr := projectile.NewTracker(hundredfold)
	tg := &target{pos: combat.Vec2{X: 5}, removed: true}
	tr.Spawn(0, boltSpec(), tg.pos)
	assert.Empty(t, run(tr, tg, 0, time.Second, 10*ms))
	assert.Empty(t, tg.hits)
}

func TestTracker_ExpireAll(t *testing.T) {
	tr := projectile.NewTracker(hundredfold)
	tg := &target{pos: combat.Vec2{X: 1000}}
	tr.Spawn(0, boltSpec(), tg.pos)
	tr.Spawn(0, boltSpec(), tg.pos)
	assert.Equal(t, 2, tr.ExpireAll())
	assert.Equal(t, 0, tr.Live())
	assert.Empty(t, tr.Tick(10*ms, 10*ms, tg))
	assert.Equal(t, 0, tr.ExpireAll())
}

func TestTracker_SpawnDuringTickIsQueued(t *testing.T) {
	var tr *projectile.Tracker
	spawned := false
	tr = projectile.NewTracker(func(f float64) float64 {
		if !spawned {
			spawned = true
			tr.Spawn(10*ms, boltSpec(), combat.Vec2{X: 1000})
		}
		return f
	})
	tg := &target{pos: combat.Vec2{X: 1}}
	tr.Spawn(0, boltSpec(), tg.pos)
	impacts := tr.Tick(10*ms, 10*ms, tg)
	require.Len(t, impacts, 1)
	assert.Equal(t, 1, tr.Live(), "queued spawn merged after the tick")
}

func TestNewTracker_PanicsOnNilDamage(t *testing.T) {
	assert.Panics(t, func() { projectile.NewTracker(nil) })
}

func TestPropertyTracker_EachProjectileResolvesAtMostOnce(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tr := projectile.NewTracker(hundredfold)
		tg := &target{pos: combat.Vec2{X: rapid.Float64Range(-200, 200).Draw(rt, "tx")}}
		n := rapid.IntRange(1, 20).Draw(rt, "n")
		for i := 0; i < n; i++ {
			spec := boltSpec()
			if rapid.Bool().Draw(rt, "falling") {
				spec.Mode = projectile.Falling
				spec.Origin = combat.Vec2{Y: -100}
				spec.Destination = combat.Vec2{X: rapid.Float64Range(-50, 50).Draw(rt, "dx")}
			}
			tr.Spawn(0, spec, tg.pos)
		}
		seen := make(map[uint64]bool)
		step := time.Duration(rapid.IntRange(1, 100).Draw(rt, "step")) * ms
		for _, imp := range run(tr, tg, 0, 5*time.Second, step) {
			if seen[imp.ProjectileID] {
				rt.Fatalf("projectile %d resolved twice", imp.ProjectileID)
			}
			seen[imp.ProjectileID] = true
		}
		if tr.Live() != 0 {
			rt.Fatalf("%d projectiles outlived their lifetime", tr.Live())
		}
	})
}
