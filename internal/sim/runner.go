package sim

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Runner steps a Fight on virtual time as fast as possible.
type Runner struct {
	step        time.Duration
	maxDuration time.Duration
	logger      *zap.Logger
}

// NewRunner creates a Runner.
//
// Precondition: step must be > 0; maxDuration must be >= step.
func NewRunner(step, maxDuration time.Duration, logger *zap.Logger) (*Runner, error) {
	if step <= 0 {
		return nil, fmt.Errorf("sim: step must be > 0, got %s", step)
	}
	if maxDuration < step {
		return nil, fmt.Errorf("sim: max duration %s must be >= step %s", maxDuration, step)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{step: step, maxDuration: maxDuration, logger: logger}, nil
}

// Run steps f from t=0 until a side dies, the max duration elapses or ctx is done.
//
// Precondition: f is bound to an encounter.
// Postcondition: Returns the fight report; the error is ctx.Err() when cancelled.
func (r *Runner) Run(ctx context.Context, f *Fight) (Report, error) {
	for now := time.Duration(0); now <= r.maxDuration; now += r.step {
		if err := ctx.Err(); err != nil {
			return f.Report(OutcomeStopped), err
		}
		f.Step(now, r.step)
		if f.Done() {
			break
		}
	}
	report := f.Report(OutcomeTimeout)
	r.logger.Info("fight finished",
		zap.String("outcome", string(report.Outcome)),
		zap.Duration("duration", report.Duration),
		zap.Float64("boss_health", report.BossHealth),
		zap.Float64("target_health", report.TargetHealth),
		zap.Int("phase", report.Phase),
	)
	return report, nil
}
