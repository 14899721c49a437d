package sim

import (
	"time"

	"github.com/cory-johannsen/bossfight/internal/game/combat"
	"github.com/cory-johannsen/bossfight/internal/game/encounter"
	"github.com/cory-johannsen/bossfight/internal/game/event"
)

// Outcome is how a fight ended.
type Outcome string

const (
	OutcomeRunning  Outcome = "running"
	OutcomeBossDied Outcome = "boss_died"
	OutcomeWiped    Outcome = "target_died"
	OutcomeTimeout  Outcome = "timeout"
	OutcomeStopped  Outcome = "stopped"
)

// Report summarises a fight.
type Report struct {
	EncounterID  string
	Boss         string
	Outcome      Outcome
	Duration     time.Duration
	BossHealth   float64
	TargetHealth float64
	Phase        int
	PhaseChanges []event.PhaseChanged
	Attacks      map[string]int
	Resolutions  int
	Hits         int
	DamageToBoss float64
	DamageTaken  float64
	SummonHits   int
	Death        *event.Death
}

// Fight binds an encounter to a dummy target and its allies.
type Fight struct {
	Encounter *encounter.Encounter
	Target    *Dummy
	Allies    []*Ally

	summons []combat.Summon
	report  Report
}

// NewFight creates an unbound Fight. Pass Hooks() into the encounter's options,
// then Bind the encounter.
func NewFight(target *Dummy, allies []*Ally) *Fight {
	f := &Fight{Target: target, Allies: allies}
	for _, a := range allies {
		f.summons = append(f.summons, a)
	}
	f.report = Report{Outcome: OutcomeRunning, Attacks: make(map[string]int)}
	return f
}

// Bind attaches the encounter the fight drives.
//
// Precondition: enc must be non-nil; Bind must be called before Step.
func (f *Fight) Bind(enc *encounter.Encounter) {
	f.Encounter = enc
	f.report.EncounterID = enc.ID()
	f.report.Boss = enc.Name()
}

// Hooks returns encounter hooks that feed the fight report.
func (f *Fight) Hooks() event.Hooks {
	return event.Hooks{
		PhaseChanged: func(e event.PhaseChanged) {
			f.report.PhaseChanges = append(f.report.PhaseChanges, e)
		},
		AttackTelegraphed: func(e event.Telegraph) {
			f.report.Attacks[e.PatternID]++
		},
		AttackResolved: func(e event.Resolution) {
			f.report.Resolutions++
			if e.Hit {
				f.report.Hits++
			}
		},
		BossDied: func(e event.Death) {
			d := e
			f.report.Death = &d
		},
	}
}

// Step advances the dummy, then the encounter, to now.
func (f *Fight) Step(now, delta time.Duration) {
	if f.Done() {
		return
	}
	f.report.DamageToBoss += f.Target.Update(now, delta, f.Encounter)
	f.Encounter.Tick(now, delta, f.Target, f.summons)
	f.report.Duration = now
}

// Done reports whether the boss or the target is dead.
func (f *Fight) Done() bool {
	return f.Encounter.IsDead() || f.Target.Removed()
}

// Report returns the fight summary so far. ifRunning is the outcome recorded when
// neither side has died.
func (f *Fight) Report(ifRunning Outcome) Report {
	r := f.report
	switch {
	case f.Encounter.IsDead():
		r.Outcome = OutcomeBossDied
	case f.Target.Removed():
		r.Outcome = OutcomeWiped
	default:
		r.Outcome = ifRunning
	}
	r.BossHealth = f.Encounter.Health()
	r.TargetHealth = f.Target.Health()
	r.Phase = f.Encounter.Phase()
	r.DamageTaken = f.Target.DamageTaken()
	for _, a := range f.Allies {
		r.SummonHits += a.Hits()
	}
	r.Attacks = make(map[string]int, len(f.report.Attacks))
	for k, v := range f.report.Attacks {
		r.Attacks[k] = v
	}
	return r
}
