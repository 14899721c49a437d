package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cory-johannsen/bossfight/internal/game/event"
)

func TestHooks_NilFieldsAreNoOps(t *testing.T) {
	var h event.Hooks
	assert.NotPanics(t, func() {
		h.EmitPhaseChanged(event.PhaseChanged{Phase: 1})
		h.EmitTelegraph(event.Telegraph{})
		h.EmitResolution(event.Resolution{})
		h.EmitDeath(event.Death{})
	})
}

func TestMulti_ForwardsToEveryConsumerInOrder(t *testing.T) {
	var order []string
	a := event.Hooks{AttackResolved: func(event.Resolution) { order = append(order, "a") }}
	b := event.Hooks{AttackResolved: func(event.Resolution) { order = append(order, "b") }}
	var rec event.Recorder

	m := event.Multi(a, event.Hooks{}, b, rec.Hooks())
	m.EmitResolution(event.Resolution{PatternID: "slam", Damage: 50, Hit: true})
	m.EmitDeath(event.Death{BossID: "x"})

	assert.Equal(t, []string{"a", "b"}, order)
	assert.Len(t, rec.Resolutions, 1)
	assert.Equal(t, "slam", rec.Resolutions[0].PatternID)
	assert.Len(t, rec.Deaths, 1)
	assert.Equal(t, 2, rec.Total())
}
