package pattern

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Library is an ordered, validated catalog of pattern definitions.
// A Library is immutable after construction and safe for concurrent reads.
type Library struct {
	defs []Definition
	byID map[string]int
}

// NewLibrary applies defaults to every definition and validates the catalog.
//
// Postcondition: Returns a Library preserving the order of defs, or an error naming
// every invalid definition and any duplicate id.
func NewLibrary(defs []Definition) (*Library, error) {
	lib := &Library{byID: make(map[string]int, len(defs))}
	var errs []error
	for _, d := range defs {
		d = d.WithDefaults()
		if err := d.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := lib.byID[d.ID]; dup {
			errs = append(errs, fmt.Errorf("pattern %q: duplicate id", d.ID))
			continue
		}
		lib.byID[d.ID] = len(lib.defs)
		lib.defs = append(lib.defs, d)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return lib, nil
}

// ParseDefinitions decodes a YAML list of pattern definitions, rejecting unknown fields.
func ParseDefinitions(data []byte) ([]Definition, error) {
	var defs []Definition
	if err := decodeStrict(data, &defs); err != nil {
		return nil, fmt.Errorf("parsing pattern YAML: %w", err)
	}
	return defs, nil
}

// Len returns the number of patterns.
func (l *Library) Len() int { return len(l.defs) }

// Get returns the definition with id.
func (l *Library) Get(id string) (Definition, bool) {
	i, ok := l.byID[id]
	if !ok {
		return Definition{}, false
	}
	return l.defs[i], true
}

// All returns every definition in catalog order.
func (l *Library) All() []Definition {
	out := make([]Definition, len(l.defs))
	copy(out, l.defs)
	return out
}

// Available returns the definitions selectable in phase, in catalog order.
//
// Postcondition: every returned definition has MinPhase <= phase.
func (l *Library) Available(phase int) []Definition {
	var out []Definition
	for _, d := range l.defs {
		if d.MinPhase <= phase {
			out = append(out, d)
		}
	}
	return out
}

// UnlockedAt returns the ids of the patterns that first become selectable in phase.
func (l *Library) UnlockedAt(phase int) []string {
	var out []string
	for _, d := range l.defs {
		if d.MinPhase == phase {
			out = append(out, d.ID)
		}
	}
	return out
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
