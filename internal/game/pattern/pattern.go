// Package pattern defines the immutable attack pattern catalog a boss draws from.
package pattern

import (
	"fmt"
	"strings"
	"time"
)

// Kind tags the resolve algorithm a pattern uses.
type Kind string

const (
	MeleeArc       Kind = "melee-arc"
	AoEBurst       Kind = "aoe-burst"
	PullingField   Kind = "pulling-field"
	HomingBolt     Kind = "homing-bolt"
	FallingVolley  Kind = "falling-volley"
	TeleportStrike Kind = "teleport-strike"
	PersistentZone Kind = "persistent-zone"
)

// Kinds lists every known kind in declaration order.
var Kinds = []Kind{MeleeArc, AoEBurst, PullingField, HomingBolt, FallingVolley, TeleportStrike, PersistentZone}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, v := range Kinds {
		if v == k {
			return true
		}
	}
	return false
}

// Center selects where an aoe-burst is centered.
type Center string

const (
	CenterBoss   Center = "boss"
	CenterTarget Center = "target"
)

// Burst is the aoe-burst payload.
type Burst struct {
	// Center is the boss, or the target's position when the telegraph starts.
	Center Center `yaml:"center"`
}

// Pull is the pulling-field payload.
type Pull struct {
	Step     float64       `yaml:"step"`
	Interval time.Duration `yaml:"interval"`
}

// Bolt is the homing-bolt payload. Speed is in units per second.
type Bolt struct {
	Speed        float64       `yaml:"speed"`
	HomingWindow time.Duration `yaml:"homing_window"`
	MaxLifetime  time.Duration `yaml:"max_lifetime"`
	HitRadius    float64       `yaml:"hit_radius"`
}

// Volley is the falling-volley payload. FallSpeed is in units per second.
type Volley struct {
	Count      int           `yaml:"count"`
	Stagger    time.Duration `yaml:"stagger"`
	FallHeight float64       `yaml:"fall_height"`
	FallSpeed  float64       `yaml:"fall_speed"`
	Spread     float64       `yaml:"spread"`
	Radius     float64       `yaml:"radius"`
}

// Teleport is the teleport-strike payload.
type Teleport struct {
	Offset float64       `yaml:"offset"`
	Pause  time.Duration `yaml:"pause"`
}

// Zone is the persistent-zone payload. A zero DamageFactor inherits the pattern's.
type Zone struct {
	Duration     time.Duration `yaml:"duration"`
	TickInterval time.Duration `yaml:"tick_interval"`
	Radius       float64       `yaml:"radius"`
	DamageFactor float64       `yaml:"damage_factor"`
}

// Definition is one attack pattern. Exactly one payload, matching Kind, is set
// after WithDefaults.
type Definition struct {
	ID           string        `yaml:"id"`
	Name         string        `yaml:"name"`
	Kind         Kind          `yaml:"kind"`
	MinPhase     int           `yaml:"min_phase"`
	Telegraph    time.Duration `yaml:"telegraph"`
	ResolveDelay time.Duration `yaml:"resolve_delay"`
	DamageFactor float64       `yaml:"damage_factor"`
	// Range is the melee range or burst radius, depending on Kind.
	Range float64 `yaml:"range"`

	Burst    *Burst    `yaml:"burst,omitempty"`
	Pull     *Pull     `yaml:"pull,omitempty"`
	Bolt     *Bolt     `yaml:"bolt,omitempty"`
	Volley   *Volley   `yaml:"volley,omitempty"`
	Teleport *Teleport `yaml:"teleport,omitempty"`
	Zone     *Zone     `yaml:"zone,omitempty"`
}

// Default payload values.
var (
	DefaultBurst    = Burst{Center: CenterBoss}
	DefaultPull     = Pull{Step: 2, Interval: 50 * time.Millisecond}
	DefaultBolt     = Bolt{Speed: 240, HomingWindow: 1500 * time.Millisecond, MaxLifetime: 4 * time.Second, HitRadius: 24}
	DefaultVolley   = Volley{Count: 5, Stagger: 150 * time.Millisecond, FallHeight: 300, FallSpeed: 600, Spread: 40, Radius: 36}
	DefaultTeleport = Teleport{Offset: 48, Pause: 250 * time.Millisecond}
	DefaultZone     = Zone{Duration: 3 * time.Second, TickInterval: 500 * time.Millisecond, Radius: 80}
)

// WithDefaults returns a copy of d whose payload for its kind is present and has
// every zero field filled from the kind's default. Payloads of other kinds are kept
// so Validate can reject them.
func (d Definition) WithDefaults() Definition {
	if d.Name == "" {
		d.Name = d.ID
	}
	switch d.Kind {
	case AoEBurst:
		p := DefaultBurst
		if d.Burst != nil && d.Burst.Center != "" {
			p.Center = d.Burst.Center
		}
		d.Burst = &p
	case PullingField:
		p := DefaultPull
		if d.Pull != nil {
			p.Step = orFloat(d.Pull.Step, p.Step)
			p.Interval = orDuration(d.Pull.Interval, p.Interval)
		}
		d.Pull = &p
	case HomingBolt:
		p := DefaultBolt
		if d.Bolt != nil {
			p.Speed = orFloat(d.Bolt.Speed, p.Speed)
			p.HomingWindow = orDuration(d.Bolt.HomingWindow, p.HomingWindow)
			p.MaxLifetime = orDuration(d.Bolt.MaxLifetime, p.MaxLifetime)
			p.HitRadius = orFloat(d.Bolt.HitRadius, p.HitRadius)
		}
		d.Bolt = &p
	case FallingVolley:
		p := DefaultVolley
		if d.Volley != nil {
			if d.Volley.Count != 0 {
				p.Count = d.Volley.Count
			}
			p.Stagger = orDuration(d.Volley.Stagger, p.Stagger)
			p.FallHeight = orFloat(d.Volley.FallHeight, p.FallHeight)
			p.FallSpeed = orFloat(d.Volley.FallSpeed, p.FallSpeed)
			p.Spread = orFloat(d.Volley.Spread, p.Spread)
			p.Radius = orFloat(d.Volley.Radius, p.Radius)
		}
		d.Volley = &p
	case TeleportStrike:
		p := DefaultTeleport
		if d.Teleport != nil {
			p.Offset = orFloat(d.Teleport.Offset, p.Offset)
			p.Pause = orDuration(d.Teleport.Pause, p.Pause)
		}
		d.Teleport = &p
	case PersistentZone:
		p := DefaultZone
		if d.Zone != nil {
			p.Duration = orDuration(d.Zone.Duration, p.Duration)
			p.TickInterval = orDuration(d.Zone.TickInterval, p.TickInterval)
			p.Radius = orFloat(d.Zone.Radius, p.Radius)
			p.DamageFactor = d.Zone.DamageFactor
		}
		if p.DamageFactor == 0 {
			p.DamageFactor = d.DamageFactor
		}
		d.Zone = &p
	}
	return d
}

func orFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func orDuration(v, def time.Duration) time.Duration {
	if v == 0 {
		return def
	}
	return v
}

// Radius returns the radius a telegraph for d should advertise.
//
// Precondition: d has been passed through WithDefaults.
func (d Definition) Radius() float64 {
	switch d.Kind {
	case HomingBolt:
		return d.Bolt.HitRadius
	case FallingVolley:
		return d.Volley.Radius
	case PersistentZone:
		return d.Zone.Radius
	default:
		return d.Range
	}
}

// needsRange reports whether the kind resolves against Range.
func (k Kind) needsRange() bool {
	switch k {
	case MeleeArc, AoEBurst, PullingField, TeleportStrike:
		return true
	}
	return false
}

// Validate checks d and reports every violation.
//
// Precondition: d has been passed through WithDefaults.
// Postcondition: Returns nil iff the id is set, the kind is known, timings and
// factors are non-negative, ranges are positive where used, and only the payload
// for d.Kind is present and well formed.
func (d Definition) Validate() error {
	var errs []string
	if d.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if !d.Kind.Valid() {
		errs = append(errs, fmt.Sprintf("unknown kind %q", d.Kind))
	}
	if d.MinPhase < 0 {
		errs = append(errs, fmt.Sprintf("min_phase must be >= 0, got %d", d.MinPhase))
	}
	if d.Telegraph < 0 {
		errs = append(errs, "telegraph must be >= 0")
	}
	if d.ResolveDelay < 0 {
		errs = append(errs, "resolve_delay must be >= 0")
	}
	if d.DamageFactor < 0 {
		errs = append(errs, "damage_factor must be >= 0")
	}
	if d.Kind.needsRange() && d.Range <= 0 {
		errs = append(errs, fmt.Sprintf("%s requires range > 0", d.Kind))
	}
	errs = append(errs, d.payloadErrors()...)
	if len(errs) > 0 {
		return fmt.Errorf("pattern %q: %s", d.ID, strings.Join(errs, "; "))
	}
	return nil
}

func (d Definition) payloadErrors() []string {
	var errs []string
	present := map[Kind]bool{
		AoEBurst:       d.Burst != nil,
		PullingField:   d.Pull != nil,
		HomingBolt:     d.Bolt != nil,
		FallingVolley:  d.Volley != nil,
		TeleportStrike: d.Teleport != nil,
		PersistentZone: d.Zone != nil,
	}
	for _, k := range Kinds {
		if present[k] && k != d.Kind {
			errs = append(errs, fmt.Sprintf("%s payload not allowed on %s pattern", k, d.Kind))
		}
	}
	switch d.Kind {
	case AoEBurst:
		if d.Burst != nil && d.Burst.Center != CenterBoss && d.Burst.Center != CenterTarget {
			errs = append(errs, fmt.Sprintf("burst.center must be %q or %q", CenterBoss, CenterTarget))
		}
	case PullingField:
		if d.Pull != nil && (d.Pull.Step < 0 || d.Pull.Interval <= 0) {
			errs = append(errs, "pull.step must be >= 0 and pull.interval > 0")
		}
	case HomingBolt:
		if d.Bolt != nil && (d.Bolt.Speed <= 0 || d.Bolt.MaxLifetime <= 0 || d.Bolt.HitRadius <= 0 || d.Bolt.HomingWindow < 0) {
			errs = append(errs, "bolt.speed, bolt.max_lifetime and bolt.hit_radius must be > 0")
		}
	case FallingVolley:
		if d.Volley != nil && (d.Volley.Count < 1 || d.Volley.FallSpeed <= 0 || d.Volley.Radius <= 0 || d.Volley.Stagger < 0 || d.Volley.Spread < 0) {
			errs = append(errs, "volley.count must be >= 1 and volley.fall_speed, volley.radius > 0")
		}
	case TeleportStrike:
		if d.Teleport != nil && (d.Teleport.Offset < 0 || d.Teleport.Pause < 0) {
			errs = append(errs, "teleport.offset and teleport.pause must be >= 0")
		}
	case PersistentZone:
		if d.Zone != nil && (d.Zone.Duration <= 0 || d.Zone.TickInterval <= 0 || d.Zone.Radius <= 0 || d.Zone.DamageFactor < 0) {
			errs = append(errs, "zone.duration, zone.tick_interval and zone.radius must be > 0")
		}
	}
	return errs
}
