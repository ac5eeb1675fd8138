// Package classify assigns query sequences to recognition categories by the
// references their BLAST hits land on.
package classify

import (
	"fmt"
	"slices"
)

// DefaultMinTotalAlignLength is the minimum summed alignment length for a
// category/direction match when a category does not set its own. An
// explicit zero is honoured.
const DefaultMinTotalAlignLength = 10

// Category is a named bucket owning a disjoint set of references. The
// threshold fields are each optional.
type Category struct {
	ID                  string   `json:"id" yaml:"id"`
	Name                string   `json:"name" yaml:"name,omitempty"`
	References          []string `json:"references" yaml:"references"`
	MaxEValue           *float64 `json:"max_evalue,omitempty" yaml:"max_evalue,omitempty"`
	MinBitScore         *float64 `json:"min_bit_score,omitempty" yaml:"min_bit_score,omitempty"`
	MinScore            *int     `json:"min_score,omitempty" yaml:"min_score,omitempty"`
	MinTotalAlignLength *int     `json:"min_total_align_length,omitempty" yaml:"min_total_align_length,omitempty"`
}

// Filter returns the category's thresholds as a DirectionFilter.
func (c *Category) Filter() DirectionFilter {
	return DirectionFilter{MaxEValue: c.MaxEValue, MinBitScore: c.MinBitScore, MinScore: c.MinScore}
}

func (c *Category) minTotal() int {
	if c.MinTotalAlignLength == nil {
		return DefaultMinTotalAlignLength
	}
	return *c.MinTotalAlignLength
}

// Direction is the strand orientation of a category match.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "REVERSE"
	}
	return "FORWARD"
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "FORWARD":
		*d = Forward
	case "REVERSE":
		*d = Reverse
	default:
		return fmt.Errorf("unknown direction %q", b)
	}
	return nil
}

// Result is one category/direction label. Results compare by value.
type Result struct {
	CategoryID string    `json:"category"`
	Direction  Direction `json:"direction"`
}

func (r Result) String() string {
	return r.CategoryID + "/" + r.Direction.String()
}

// PartitionError reports a category configuration that does not split the
// declared references into disjoint, complete category sets.
type PartitionError struct {
	Reference  string
	Categories []string
	Reason     string
}

func (e *PartitionError) Error() string {
	if len(e.Categories) > 0 {
		return fmt.Sprintf("reference %q %s (categories: %v)", e.Reference, e.Reason, e.Categories)
	}
	return fmt.Sprintf("reference %q %s", e.Reference, e.Reason)
}

// ValidatePartition checks that every declared reference belongs to exactly
// one category and that categories name only declared references.
func ValidatePartition(declared []string, categories []Category) error {
	owners := make(map[string][]string)
	for _, c := range categories {
		for _, ref := range c.References {
			if !slices.Contains(owners[ref], c.ID) {
				owners[ref] = append(owners[ref], c.ID)
			}
		}
	}

	known := make(map[string]bool, len(declared))
	for _, ref := range declared {
		known[ref] = true
		switch n := len(owners[ref]); {
		case n == 0:
			return &PartitionError{Reference: ref, Reason: "is declared but belongs to no category"}
		case n > 1:
			return &PartitionError{Reference: ref, Categories: owners[ref], Reason: "belongs to more than one category"}
		}
	}

	for _, c := range categories {
		for _, ref := range c.References {
			if !known[ref] {
				return &PartitionError{Reference: ref, Categories: []string{c.ID}, Reason: "is not a declared reference"}
			}
		}
	}
	return nil
}
