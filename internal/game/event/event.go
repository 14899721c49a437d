// Package event defines the fire-and-forget notifications an encounter emits for
// presentation and scripting. The engine never waits on or interprets a consumer.
package event

import (
	"time"

	"github.com/cory-johannsen/bossfight/internal/game/combat"
	"github.com/cory-johannsen/bossfight/internal/game/loot"
)

// PhaseChanged is emitted once per phase transition.
type PhaseChanged struct {
	BossID   string
	From     int
	Phase    int
	Unlocked []string
	At       time.Duration
}

// Telegraph is emitted when an attack pattern starts its warning window.
type Telegraph struct {
	BossID    string
	PatternID string
	Kind      string
	Position  combat.Vec2
	Radius    float64
	Delay     time.Duration
	At        time.Duration
}

// Resolution is emitted whenever a pattern, projectile or zone pulse resolves.
// Damage is 0 and Hit is false when the resolution missed.
type Resolution struct {
	BossID    string
	PatternID string
	Damage    float64
	Hit       bool
	At        time.Duration
}

// Death is emitted once when the boss dies.
type Death struct {
	BossID string
	Reward loot.Result
	At     time.Duration
}

// Hooks are the injected notification capabilities of an encounter.
// A nil field is a no-op.
type Hooks struct {
	PhaseChanged      func(PhaseChanged)
	AttackTelegraphed func(Telegraph)
	AttackResolved    func(Resolution)
	BossDied          func(Death)
}

func (h Hooks) EmitPhaseChanged(e PhaseChanged) {
	if h.PhaseChanged != nil {
		h.PhaseChanged(e)
	}
}

func (h Hooks) EmitTelegraph(e Telegraph) {
	if h.AttackTelegraphed != nil {
		h.AttackTelegraphed(e)
	}
}

func (h Hooks) EmitResolution(e Resolution) {
	if h.AttackResolved != nil {
		h.AttackResolved(e)
	}
}

func (h Hooks) EmitDeath(e Death) {
	if h.BossDied != nil {
		h.BossDied(e)
	}
}

// Multi returns Hooks that forward every event to each of hs in order.
func Multi(hs ...Hooks) Hooks {
	return Hooks{
		PhaseChanged: func(e PhaseChanged) {
			for _, h := range hs {
				h.EmitPhaseChanged(e)
			}
		},
		AttackTelegraphed: func(e Telegraph) {
			for _, h := range hs {
				h.EmitTelegraph(e)
			}
		},
		AttackResolved: func(e Resolution) {
			for _, h := range hs {
				h.EmitResolution(e)
			}
		},
		BossDied: func(e Death) {
			for _, h := range hs {
				h.EmitDeath(e)
			}
		},
	}
}

// Recorder collects every event it receives. Useful for tests and reports.
type Recorder struct {
	Phases      []PhaseChanged
	Telegraphs  []Telegraph
	Resolutions []Resolution
	Deaths      []Death
}

// Hooks returns Hooks appending to r.
func (r *Recorder) Hooks() Hooks {
	return Hooks{
		PhaseChanged:      func(e PhaseChanged) { r.Phases = append(r.Phases, e) },
		AttackTelegraphed: func(e Telegraph) { r.Telegraphs = append(r.Telegraphs, e) },
		AttackResolved:    func(e Resolution) { r.Resolutions = append(r.Resolutions, e) },
		BossDied:          func(e Death) { r.Deaths = append(r.Deaths, e) },
	}
}

// Total returns the number of events recorded.
func (r *Recorder) Total() int {
	return len(r.Phases) + len(r.Telegraphs) + len(r.Resolutions) + len(r.Deaths)
}
