// Package loot defines the reward table a boss drops on death and rolls it.
package loot

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cory-johannsen/bossfight/internal/game/dice"
)

// Range is an inclusive integer range.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Drop is one possible item in a reward table.
type Drop struct {
	ItemID string  `yaml:"item"`
	Chance float64 `yaml:"chance"`
	MinQty int     `yaml:"min_qty"`
	MaxQty int     `yaml:"max_qty"`
}

// Table is the reward a boss grants when it dies.
type Table struct {
	Currency *Range `yaml:"currency"`
	Items    []Drop `yaml:"items"`
}

// Validate checks the table's invariants and reports every violation.
//
// Postcondition: Returns nil iff all currency and item constraints hold;
// an empty table is valid.
func (t *Table) Validate() error {
	var errs []string
	if t.Currency != nil {
		if t.Currency.Min < 0 {
			errs = append(errs, fmt.Sprintf("currency min must be >= 0, got %d", t.Currency.Min))
		}
		if t.Currency.Min > t.Currency.Max {
			errs = append(errs, fmt.Sprintf("currency min (%d) must be <= max (%d)", t.Currency.Min, t.Currency.Max))
		}
	}
	seen := make(map[string]bool, len(t.Items))
	for i, d := range t.Items {
		switch {
		case d.ItemID == "":
			errs = append(errs, fmt.Sprintf("items[%d] must have a non-empty item id", i))
		case seen[d.ItemID]:
			errs = append(errs, fmt.Sprintf("items[%d] duplicates item %q", i, d.ItemID))
		}
		seen[d.ItemID] = true
		if d.Chance <= 0 || d.Chance > 1 {
			errs = append(errs, fmt.Sprintf("items[%d] chance must be in (0, 1], got %g", i, d.Chance))
		}
		if d.MinQty < 1 || d.MinQty > d.MaxQty {
			errs = append(errs, fmt.Sprintf("items[%d] quantity range [%d, %d] is invalid", i, d.MinQty, d.MaxQty))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("reward table: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Item is one dropped item instance.
type Item struct {
	ItemID     string
	InstanceID string
	Quantity   int
}

// Result is a rolled reward.
type Result struct {
	Currency int
	Items    []Item
}

// Empty reports whether the result grants nothing.
func (r Result) Empty() bool {
	return r.Currency == 0 && len(r.Items) == 0
}

// Roll draws a reward from t using src.
//
// Precondition: t must have passed Validate(); src must be non-nil.
// Postcondition: Currency is in [Currency.Min, Currency.Max] when set; every returned
// item passed its chance roll, has a quantity in [MinQty, MaxQty] and a unique InstanceID.
func Roll(t Table, src dice.Source) Result {
	var r Result
	if t.Currency != nil {
		r.Currency = between(src, t.Currency.Min, t.Currency.Max)
	}
	for _, d := range t.Items {
		if src.Float64() >= d.Chance {
			continue
		}
		r.Items = append(r.Items, Item{
			ItemID:     d.ItemID,
			InstanceID: uuid.New().String(),
			Quantity:   between(src, d.MinQty, d.MaxQty),
		})
	}
	return r
}

func between(src dice.Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.Intn(hi-lo+1)
}
