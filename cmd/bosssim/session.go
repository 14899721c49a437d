package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/cory-johannsen/bossfight/internal/config"
	"github.com/cory-johannsen/bossfight/internal/game/encounter"
	"github.com/cory-johannsen/bossfight/internal/scripting"
	"github.com/cory-johannsen/bossfight/internal/sim"
)

// session runs one encounter at a time, restarting it on content changes in watch mode.
type session struct {
	cfg     config.Config
	scripts *scripting.Manager
	logger  *zap.Logger
	out     io.Writer
	reload  <-chan string
}

type outcome struct {
	report sim.Report
	err    error
}

func (s *session) run(ctx context.Context) error {
	for {
		f, release, err := s.build()
		if err != nil {
			if !s.cfg.Content.Watch {
				return err
			}
			s.logger.Error("building encounter, waiting for a content change", zap.Error(err))
			if !s.await(ctx) {
				return nil
			}
			continue
		}

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan outcome, 1)
		go func() {
			r, err := s.fight(runCtx, f)
			done <- outcome{report: r, err: err}
		}()

		restart := false
		select {
		case res := <-done:
			s.finish(res)
		case path := <-s.reload:
			cancel()
			s.finish(<-done)
			s.logger.Info("content changed, restarting encounter", zap.String("path", path))
			restart = true
		case <-ctx.Done():
			cancel()
			s.finish(<-done)
		}
		cancel()
		release()

		if restart {
			continue
		}
		if ctx.Err() != nil || !s.cfg.Content.Watch || !s.await(ctx) {
			return nil
		}
	}
}

// await blocks until a content change or ctx is done.
//
// Postcondition: Returns true on a content change.
func (s *session) await(ctx context.Context) bool {
	select {
	case path := <-s.reload:
		s.logger.Info("content changed, starting encounter", zap.String("path", path))
		return true
	case <-ctx.Done():
		return false
	}
}

// build reloads the boss templates so every encounter sees the current content.
func (s *session) build() (*sim.Fight, func(), error) {
	templates, err := encounter.LoadTemplates(s.cfg.Content.BossDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading boss templates: %w", err)
	}
	tmpl, err := encounter.Find(templates, s.cfg.Simulation.Boss)
	if err != nil {
		return nil, nil, err
	}
	return sim.Setup{
		Template:   tmpl,
		Simulation: s.cfg.Simulation,
		Seed:       s.cfg.Engine.Seed,
		ScriptDir:  s.cfg.Content.ScriptDir,
		Scripts:    s.scripts,
		Logger:     s.logger,
	}.Build()
}

func (s *session) fight(ctx context.Context, f *sim.Fight) (sim.Report, error) {
	if s.cfg.Simulation.Realtime {
		return sim.NewLoop(s.cfg.Engine.TickInterval, s.logger).Run(ctx, f, s.cfg.Engine.MaxDuration)
	}
	r, err := sim.NewRunner(s.cfg.Engine.TickInterval, s.cfg.Engine.MaxDuration, s.logger)
	if err != nil {
		return sim.Report{}, err
	}
	return r.Run(ctx, f)
}

func (s *session) finish(res outcome) {
	if res.err != nil && !errors.Is(res.err, context.Canceled) {
		s.logger.Error("fight failed", zap.Error(res.err))
		return
	}
	if err := sim.WriteReport(s.out, res.report); err != nil {
		s.logger.Warn("writing report", zap.Error(err))
	}
}
