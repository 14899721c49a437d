package sim

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/bossfight/internal/config"
	"github.com/cory-johannsen/bossfight/internal/game/combat"
	"github.com/cory-johannsen/bossfight/internal/game/dice"
	"github.com/cory-johannsen/bossfight/internal/game/encounter"
	"github.com/cory-johannsen/bossfight/internal/game/event"
	"github.com/cory-johannsen/bossfight/internal/observability"
	"github.com/cory-johannsen/bossfight/internal/scripting"
)

// summonSpacing is the gap between consecutive allied summons.
const summonSpacing = 12.0

// Setup assembles a Fight from configuration and a boss template.
type Setup struct {
	Template   *encounter.Template
	Simulation config.SimulationConfig
	Seed       int64
	// ScriptDir resolves Template.Script. Scripts is nil when scripting is disabled.
	ScriptDir string
	Scripts   *scripting.Manager
	Logger    *zap.Logger
}

// Build creates the encounter, its dummy target and allies, and loads the boss
// script when the template names one. The release func unloads the script.
//
// Precondition: Template has had ApplyDefaults called.
// Postcondition: Returns a bound Fight, or a non-nil error and no loaded script.
func (s Setup) Build() (*Fight, func(), error) {
	tmpl := s.Template
	if tmpl == nil {
		return nil, nil, fmt.Errorf("sim: template must not be nil")
	}
	id := uuid.NewString()
	logger := observability.EncounterLogger(s.Logger, tmpl.ID, tmpl.Name, id)
	sc := s.Simulation

	start := tmpl.Position.Sub(combat.Vec2{X: sc.TargetDistance})
	target := NewDummy(DummyConfig{
		Health:         sc.TargetHP,
		Attack:         sc.TargetAttack,
		AttackInterval: sc.TargetAttackInterval,
		Speed:          sc.TargetSpeed,
		Reach:          sc.TargetReach,
		Knockback:      sc.TargetKnockback,
		Position:       start,
	})
	var allies []*Ally
	for i := 0; i < sc.Summons; i++ {
		pos := tmpl.Position.Sub(combat.Vec2{X: sc.TargetReach + summonSpacing*float64(i)})
		allies = append(allies, NewAlly(pos, sc.SummonHP))
	}
	f := NewFight(target, allies)

	hooks := []event.Hooks{f.Hooks()}
	scripted := s.Scripts != nil && tmpl.Script != ""
	if scripted {
		hooks = append(hooks, s.Scripts.EventHooks(id))
	}
	enc, err := encounter.New(tmpl, encounter.Options{
		ID:     id,
		Hooks:  event.Multi(hooks...),
		Source: dice.NewSource(s.Seed),
		Logger: logger,
	})
	if err != nil {
		return nil, nil, err
	}
	f.Bind(enc)

	release := func() {}
	if scripted {
		path := filepath.Join(s.ScriptDir, tmpl.Script)
		err := s.Scripts.Load(id, path, scripting.Bindings{
			Status: func() scripting.BossStatus {
				return scripting.BossStatus{
					Health:    enc.Health(),
					MaxHealth: enc.MaxHealth(),
					Phase:     enc.Phase(),
					Attacking: enc.IsAttacking(),
					Debuff:    enc.DebuffFactor(),
				}
			},
			ApplyCurse: enc.ApplyCurse,
		})
		if err != nil {
			return nil, nil, err
		}
		release = func() { s.Scripts.Unload(id) }
	}
	return f, release, nil
}
