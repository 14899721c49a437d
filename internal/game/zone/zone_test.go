package zone_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/bossfight/internal/game/combat"
	"github.com/cory-johannsen/bossfight/internal/game/zone"
)

const ms = time.Millisecond

type target struct {
	pos  combat.Vec2
	hits []float64
}

func (t *target) Position() combat.Vec2 { return t.pos }
func (t *target) Facing() combat.Facing { return combat.FacingLeft }
func (t *target) TakeDamage(amount float64, _ int, _ time.Duration) {
	t.hits = append(t.hits, amount)
}

func scale(f float64) float64 { return f * 50 }

func pool() zone.Spec {
	return zone.Spec{
		PatternID:    "pool",
		Radius:       80,
		Duration:     1500 * ms,
		TickInterval: 500 * ms,
		DamageFactor: 0.2,
	}
}

func TestManager_PulsesOncePerTickInterval(t *testing.T) {
	m := zone.NewManager(scale)
	tg := &target{pos: combat.Vec2{X: 10}}
	m.Start(0, pool())

	var pulses []zone.Pulse
	for now := 16 * ms; now <= 3*time.Second; now += 16 * ms {
		pulses = append(pulses, m.Tick(now, 16*ms, tg)...)
	}
	assert.Len(t, pulses, 3)
	assert.Equal(t, []float64{10, 10, 10}, tg.hits)
	_, ok := m.Active()
	assert.False(t, ok, "zone torn down after its duration")
}

func TestManager_TargetOutsideTakesNothing(t *testing.T) {
	m := zone.NewManager(scale)
	tg := &target{pos: combat.Vec2{X: 500}}
	m.Start(0, pool())
	for now := 10 * ms; now <= 2*time.Second; now += 10 * ms {
		assert.Empty(t, m.Tick(now, 10*ms, tg))
	}
	assert.Empty(t, tg.hits)
}

func TestManager_StartReplacesWithoutFinalPulse(t *testing.T) {
	m := zone.NewManager(scale)
	tg := &target{pos: combat.Vec2{}}
	m.Start(0, pool())
	m.Tick(400*ms, 400*ms, tg)

	next := pool()
	next.PatternID = "pool-2"
	next.Center = combat.Vec2{X: 1000}
	m.Start(400*ms, next)
	z, ok := m.Active()
	require.True(t, ok)
	assert.Equal(t, "pool-2", z.PatternID)
	assert.Equal(t, 1500*ms, z.Remaining)
	assert.Empty(t, m.Tick(900*ms, 500*ms, tg))
	assert.Empty(t, tg.hits)
}

func TestManager_ClearIsIdempotent(t *testing.T) {
	m := zone.NewManager(scale)
	assert.False(t, m.Clear())
	m.Start(0, pool())
	assert.True(t, m.Clear())
	assert.False(t, m.Clear())
	assert.Nil(t, m.Tick(time.Second, time.Second, &target{}))
}

func TestManager_ElapsedBoundedByFrame(t *testing.T) {
	m := zone.NewManager(scale)
	tg := &target{}
	m.Start(1000*ms, pool())
	// The zone started 10ms into a 16ms frame; only 10ms count.
	m.Tick(1010*ms, 16*ms, tg)
	z, _ := m.Active()
	assert.Equal(t, 1490*ms, z.Remaining)
}

func TestManager_StartPanicsOnZeroInterval(t *testing.T) {
	m := zone.NewManager(scale)
	spec := pool()
	spec.TickInterval = 0
	assert.Panics(t, func() { m.Start(0, spec) })
}

func TestPropertyManager_PulseCountIsDiscrete(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := zone.NewManager(scale)
		tg := &target{}
		interval := time.Duration(rapid.IntRange(50, 1000).Draw(rt, "interval")) * ms
		duration := time.Duration(rapid.IntRange(1, 5000).Draw(rt, "duration")) * ms
		frame := time.Duration(rapid.IntRange(1, 250).Draw(rt, "frame")) * ms
		m.Start(0, zone.Spec{Radius: 10, Duration: duration, TickInterval: interval, DamageFactor: 1})
		count := 0
		for now := frame; now <= duration+time.Second; now += frame {
			count += len(m.Tick(now, frame, tg))
		}
		if want := int(duration / interval); count != want {
			rt.Fatalf("want %d pulses, got %d", want, count)
		}
	})
}
