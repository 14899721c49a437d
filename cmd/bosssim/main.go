// Package main provides the headless boss encounter simulator. It loads boss
// templates, pits the configured boss against a scripted dummy and prints a report.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/bossfight/internal/config"
	"github.com/cory-johannsen/bossfight/internal/content"
	"github.com/cory-johannsen/bossfight/internal/observability"
	"github.com/cory-johannsen/bossfight/internal/scripting"
	"github.com/cory-johannsen/bossfight/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file; empty = defaults and environment only")
	boss := flag.String("boss", "", "boss template id; overrides simulation.boss")
	realtime := flag.Bool("realtime", false, "pace the fight against the wall clock")
	watch := flag.Bool("watch", false, "restart the encounter when boss or script files change")
	noScripts := flag.Bool("no-scripts", false, "disable boss Lua scripts")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "boss":
			cfg.Simulation.Boss = *boss
		case "realtime":
			cfg.Simulation.Realtime = *realtime
		case "watch":
			cfg.Content.Watch = *watch
		}
	})

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting boss simulator",
		zap.String("boss", cfg.Simulation.Boss),
		zap.Bool("realtime", cfg.Simulation.Realtime),
		zap.Bool("watch", cfg.Content.Watch),
		zap.Duration("tick_interval", cfg.Engine.TickInterval),
	)

	var scripts *scripting.Manager
	if !*noScripts {
		scripts = scripting.NewManager(cfg.Content.InstructionLimit, logger)
		defer scripts.Close()
	}

	reload := make(chan string, 1)
	sess := &session{cfg: cfg, scripts: scripts, logger: logger, out: os.Stdout, reload: reload}

	lifecycle := server.NewLifecycle(logger)
	if cfg.Content.Watch {
		lifecycle.Add("content-watcher", server.NewContextService(func(ctx context.Context) error {
			return watchContent(ctx, cfg.Content, logger, reload)
		}))
	}
	lifecycle.Add("encounter", server.NewContextService(sess.run))

	logger.Info("simulator initialized", zap.Duration("startup", time.Since(start)))
	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Error("simulator stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// watchContent forwards boss and script edits to reload until ctx is done.
// A pending, unconsumed change absorbs later ones.
func watchContent(ctx context.Context, cfg config.ContentConfig, logger *zap.Logger, reload chan<- string) error {
	w, err := content.NewWatcher(logger, content.DefaultDebounce, cfg.BossDir, cfg.ScriptDir)
	if err != nil {
		return err
	}
	defer w.Close()
	logger.Info("watching content", zap.String("boss_dir", cfg.BossDir), zap.String("script_dir", cfg.ScriptDir))
	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-w.Events:
			if !ok {
				return nil
			}
			select {
			case reload <- path:
			default:
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("content watcher error", zap.Error(err))
		}
	}
}
