package blast

import (
	"fmt"
	"math"
	"slices"
	"strconv"
)

// Bound is one end of an option's valid range.
type Bound struct {
	Value     float64
	Inclusive bool
}

// OptionSpec declares a numeric blastn option and its valid range.
type OptionSpec struct {
	Name    string
	Min     *Bound
	Max     *Bound
	Integer bool
}

func inclusive(v float64) *Bound { return &Bound{Value: v, Inclusive: true} }
func exclusive(v float64) *Bound { return &Bound{Value: v} }

// KnownOptions lists the numeric blastn options that may be configured.
var KnownOptions = map[string]OptionSpec{
	"evalue":          {Name: "evalue", Min: exclusive(0)},
	"word_size":       {Name: "word_size", Min: inclusive(4), Integer: true},
	"perc_identity":   {Name: "perc_identity", Min: inclusive(0), Max: inclusive(100)},
	"qcov_hsp_perc":   {Name: "qcov_hsp_perc", Min: inclusive(0), Max: inclusive(100)},
	"max_target_seqs": {Name: "max_target_seqs", Min: inclusive(1), Integer: true},
	"max_hsps":        {Name: "max_hsps", Min: inclusive(1), Integer: true},
	"reward":          {Name: "reward", Min: inclusive(0), Integer: true},
	"penalty":         {Name: "penalty", Max: inclusive(0), Integer: true},
	"gapopen":         {Name: "gapopen", Min: inclusive(0), Integer: true},
	"gapextend":       {Name: "gapextend", Min: inclusive(0), Integer: true},
	"xdrop_gap":       {Name: "xdrop_gap", Min: inclusive(0)},
}

// Check returns an *OptionError when v lies outside the option's range.
func (s OptionSpec) Check(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &OptionError{Name: s.Name, Value: v, Reason: "not a finite number"}
	}
	if s.Integer && v != math.Trunc(v) {
		return &OptionError{Name: s.Name, Value: v, Reason: "must be an integer"}
	}
	if s.Min != nil {
		if v < s.Min.Value || (!s.Min.Inclusive && v == s.Min.Value) {
			return &OptionError{Name: s.Name, Value: v, Reason: "below minimum " + s.Min.describe(">")}
		}
	}
	if s.Max != nil {
		if v > s.Max.Value || (!s.Max.Inclusive && v == s.Max.Value) {
			return &OptionError{Name: s.Name, Value: v, Reason: "above maximum " + s.Max.describe("<")}
		}
	}
	return nil
}

func (b *Bound) describe(op string) string {
	if b.Inclusive {
		op += "="
	}
	return fmt.Sprintf("(%s %v)", op, b.Value)
}

// Option is a validated option value ready to be passed to blastn.
type Option struct {
	Name  string
	Value float64
}

// Args renders the option as a -name value pair.
func (o Option) Args() []string {
	return []string{"-" + o.Name, strconv.FormatFloat(o.Value, 'g', -1, 64)}
}

// ValidateOptions checks configured option values against KnownOptions and
// returns them sorted by name.
func ValidateOptions(values map[string]float64) ([]Option, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)

	opts := make([]Option, 0, len(names))
	for _, name := range names {
		spec, ok := KnownOptions[name]
		if !ok {
			return nil, &OptionError{Name: name, Value: values[name], Reason: "unknown option"}
		}
		if err := spec.Check(values[name]); err != nil {
			return nil, err
		}
		opts = append(opts, Option{Name: name, Value: values[name]})
	}
	return opts, nil
}
