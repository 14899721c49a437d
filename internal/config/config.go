// Package config provides Viper-based configuration loading for the boss simulator.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// EngineConfig holds the encounter stepping settings.
type EngineConfig struct {
	// TickInterval is the frame length fed to every encounter Tick.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// Seed seeds the random source; 0 selects a crypto-backed source.
	Seed int64 `mapstructure:"seed"`
	// MaxDuration bounds a simulated fight.
	MaxDuration time.Duration `mapstructure:"max_duration"`
}

// ContentConfig locates boss templates and scripts.
type ContentConfig struct {
	BossDir   string `mapstructure:"boss_dir"`
	ScriptDir string `mapstructure:"script_dir"`
	// InstructionLimit caps the Lua VM instructions of a single hook call. 0 = unlimited.
	InstructionLimit int `mapstructure:"instruction_limit"`
	// Watch restarts the encounter when boss or script files change.
	Watch bool `mapstructure:"watch"`
}

// SimulationConfig describes the scripted opponent of a simulated fight.
type SimulationConfig struct {
	// Boss is the template id to fight.
	Boss string `mapstructure:"boss"`
	// Realtime paces the fight against the wall clock instead of running it flat out.
	Realtime             bool          `mapstructure:"realtime"`
	TargetHP             float64       `mapstructure:"target_hp"`
	TargetAttack         float64       `mapstructure:"target_attack"`
	TargetAttackInterval time.Duration `mapstructure:"target_attack_interval"`
	TargetSpeed          float64       `mapstructure:"target_speed"`
	TargetReach          float64       `mapstructure:"target_reach"`
	TargetKnockback      float64       `mapstructure:"target_knockback"`
	// TargetDistance is how far left of the boss the target starts.
	TargetDistance float64 `mapstructure:"target_distance"`
	// Summons is the number of allied summons placed beside the target.
	Summons  int     `mapstructure:"summons"`
	SummonHP float64 `mapstructure:"summon_hp"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Content    ContentConfig    `mapstructure:"content"`
	Simulation SimulationConfig `mapstructure:"simulation"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	for _, err := range []error{
		validateLogging(c.Logging),
		validateEngine(c.Engine),
		validateContent(c.Content),
		validateSimulation(c.Simulation),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func joined(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s", strings.Join(errs, "; "))
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateEngine(e EngineConfig) error {
	var errs []string
	if e.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("engine.tick_interval must be > 0, got %s", e.TickInterval))
	}
	if e.MaxDuration < e.TickInterval {
		errs = append(errs, fmt.Sprintf("engine.max_duration must be >= engine.tick_interval, got %s", e.MaxDuration))
	}
	return joined(errs)
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.BossDir == "" {
		errs = append(errs, "content.boss_dir must not be empty")
	}
	if c.ScriptDir == "" {
		errs = append(errs, "content.script_dir must not be empty")
	}
	if c.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("content.instruction_limit must be >= 0, got %d", c.InstructionLimit))
	}
	return joined(errs)
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.Boss == "" {
		errs = append(errs, "simulation.boss must not be empty")
	}
	if s.TargetHP <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.target_hp must be > 0, got %v", s.TargetHP))
	}
	if s.TargetAttack < 0 {
		errs = append(errs, fmt.Sprintf("simulation.target_attack must be >= 0, got %v", s.TargetAttack))
	}
	if s.TargetAttackInterval <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.target_attack_interval must be > 0, got %s", s.TargetAttackInterval))
	}
	if s.TargetSpeed < 0 {
		errs = append(errs, fmt.Sprintf("simulation.target_speed must be >= 0, got %v", s.TargetSpeed))
	}
	if s.TargetReach <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.target_reach must be > 0, got %v", s.TargetReach))
	}
	if s.Summons < 0 {
		errs = append(errs, fmt.Sprintf("simulation.summons must be >= 0, got %d", s.Summons))
	}
	if s.Summons > 0 && s.SummonHP <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.summon_hp must be > 0 when summons are placed, got %v", s.SummonHP))
	}
	return joined(errs)
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	}

	// Environment variable overrides with BOSS_ prefix
	v.SetEnvPrefix("BOSS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetDefaults registers the default of every key, which also makes every key
// overridable from the environment.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("engine.tick_interval", "16ms")
	v.SetDefault("engine.seed", 0)
	v.SetDefault("engine.max_duration", "5m")

	v.SetDefault("content.boss_dir", "content/bosses")
	v.SetDefault("content.script_dir", "content/scripts")
	v.SetDefault("content.instruction_limit", 100000)
	v.SetDefault("content.watch", false)

	v.SetDefault("simulation.boss", "ember_tyrant")
	v.SetDefault("simulation.realtime", false)
	v.SetDefault("simulation.target_hp", 2500)
	v.SetDefault("simulation.target_attack", 60)
	v.SetDefault("simulation.target_attack_interval", "400ms")
	v.SetDefault("simulation.target_speed", 120)
	v.SetDefault("simulation.target_reach", 40)
	v.SetDefault("simulation.target_knockback", 8)
	v.SetDefault("simulation.target_distance", 160)
	v.SetDefault("simulation.summons", 1)
	v.SetDefault("simulation.summon_hp", 300)
}
