package sim

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Loop steps a Fight in real time, one step per ticker interval, on a single goroutine.
type Loop struct {
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewLoop returns a loop that ticks every interval.
//
// Precondition: interval must be > 0.
func NewLoop(interval time.Duration, logger *zap.Logger) *Loop {
	if interval <= 0 {
		panic("sim.NewLoop: interval must be > 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{interval: interval, logger: logger, now: time.Now}
}

// Run ticks f with the wall-clock time elapsed since Run started until the fight
// ends, maxDuration elapses (0 = unbounded) or ctx is cancelled.
//
// Postcondition: Returns the fight report; the error is ctx.Err() when cancelled.
func (l *Loop) Run(ctx context.Context, f *Fight, maxDuration time.Duration) (Report, error) {
	start := l.now()
	var last time.Duration
	f.Step(0, l.interval)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for !f.Done() {
		select {
		case <-ctx.Done():
			l.logger.Info("fight loop stopped", zap.Duration("elapsed", last))
			return f.Report(OutcomeStopped), ctx.Err()
		case <-ticker.C:
			now := l.now().Sub(start)
			if now <= last {
				continue
			}
			f.Step(now, now-last)
			last = now
			if maxDuration > 0 && now >= maxDuration {
				return f.Report(OutcomeTimeout), nil
			}
		}
	}
	return f.Report(OutcomeTimeout), nil
}
