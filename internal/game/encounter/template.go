package encounter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/bossfight/internal/game/combat"
	"github.com/cory-johannsen/bossfight/internal/game/loot"
	"github.com/cory-johannsen/bossfight/internal/game/pattern"
	"github.com/cory-johannsen/bossfight/internal/game/phase"
)

// Defaults applied to zero template fields.
const (
	DefaultBaseCooldown   = 2 * time.Second
	DefaultSummonRadius   = 40.0
	DefaultSummonCooldown = 1500 * time.Millisecond
	DefaultSummonFactor   = 0.5
)

// SummonContact configures the boss's contact damage against allied summons.
type SummonContact struct {
	Radius       float64       `yaml:"radius"`
	Cooldown     time.Duration `yaml:"cooldown"`
	DamageFactor float64       `yaml:"damage_factor"`
}

// Template is the static constants table of one boss, loaded from YAML.
type Template struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name"`
	MaxHealth  float64 `yaml:"max_health"`
	BaseAttack float64 `yaml:"base_attack"`
	Defense    float64 `yaml:"defense"`
	// Knockback is how far an incoming hit pushes the boss along X. Zero disables it.
	Knockback    float64       `yaml:"knockback"`
	BaseCooldown time.Duration `yaml:"base_cooldown"`
	Position     combat.Vec2   `yaml:"position"`
	// Phases are the escalation tiers; omitted means the default two tiers.
	Phases        []phase.Tier         `yaml:"phases"`
	Patterns      []pattern.Definition `yaml:"patterns"`
	SummonContact *SummonContact       `yaml:"summon_contact"`
	Reward        *loot.Table          `yaml:"reward"`
	// Script is an optional Lua file, relative to the script directory.
	Script string `yaml:"script"`
}

// ApplyDefaults fills zero fields with their defaults.
//
// Postcondition: Phases, BaseCooldown and SummonContact are set.
func (t *Template) ApplyDefaults() {
	if t.Name == "" {
		t.Name = t.ID
	}
	if t.BaseCooldown == 0 {
		t.BaseCooldown = DefaultBaseCooldown
	}
	if t.Phases == nil {
		t.Phases = phase.DefaultTiers()
	}
	sc := SummonContact{Radius: DefaultSummonRadius, Cooldown: DefaultSummonCooldown, DamageFactor: DefaultSummonFactor}
	if t.SummonContact != nil {
		if t.SummonContact.Radius != 0 {
			sc.Radius = t.SummonContact.Radius
		}
		if t.SummonContact.Cooldown != 0 {
			sc.Cooldown = t.SummonContact.Cooldown
		}
		if t.SummonContact.DamageFactor != 0 {
			sc.DamageFactor = t.SummonContact.DamageFactor
		}
	}
	t.SummonContact = &sc
}

// Library builds the template's validated pattern catalog.
func (t *Template) Library() (*pattern.Library, error) {
	return pattern.NewLibrary(t.Patterns)
}

// Validate checks the template and reports every violation.
//
// Precondition: t must not be nil; ApplyDefaults has been called.
// Postcondition: Returns nil iff identity, stats, phase tiers, patterns and reward
// table are all valid.
func (t *Template) Validate() error {
	var errs []string
	if t.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if t.MaxHealth <= 0 {
		errs = append(errs, fmt.Sprintf("max_health must be > 0, got %g", t.MaxHealth))
	}
	if t.BaseAttack < 0 {
		errs = append(errs, "base_attack must be >= 0")
	}
	if t.Defense < 0 {
		errs = append(errs, "defense must be >= 0")
	}
	if t.Knockback < 0 {
		errs = append(errs, "knockback must be >= 0")
	}
	if t.BaseCooldown < 0 {
		errs = append(errs, "base_cooldown must be >= 0")
	}
	if err := phase.ValidateTiers(t.Phases); err != nil {
		errs = append(errs, err.Error())
	}
	if len(t.Patterns) == 0 {
		errs = append(errs, "at least one pattern is required")
	}
	if _, err := t.Library(); err != nil {
		errs = append(errs, strings.ReplaceAll(err.Error(), "\n", "; "))
	}
	if sc := t.SummonContact; sc != nil && (sc.Radius < 0 || sc.Cooldown < 0 || sc.DamageFactor < 0) {
		errs = append(errs, "summon_contact values must be >= 0")
	}
	if t.Reward != nil {
		if err := t.Reward.Validate(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("boss template %q: %s", t.ID, strings.Join(errs, "; "))
	}
	return nil
}

// LoadTemplateFromBytes parses and validates a single boss template. Unknown
// fields are rejected.
//
// Postcondition: Returns a validated *Template with defaults applied, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("parsing boss template YAML: %w", err)
	}
	tmpl.ApplyDefaults()
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads every *.yaml and *.yml file in dir.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns the templates sorted by file name, or an error on the first
// read, parse or validation failure or on a duplicate template id.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading boss dir %q: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var templates []*Template
	seen := make(map[string]string)
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if prev, dup := seen[tmpl.ID]; dup {
			return nil, fmt.Errorf("loading %q: boss template id %q already defined in %q", path, tmpl.ID, prev)
		}
		seen[tmpl.ID] = path
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// ErrUnknownTemplate is returned by Find when no template has the requested id.
var ErrUnknownTemplate = errors.New("unknown boss template")

// Find returns the template with id.
func Find(templates []*Template, id string) (*Template, error) {
	for _, t := range templates {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownTemplate, id)
}
