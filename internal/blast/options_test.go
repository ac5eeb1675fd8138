package blast

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestOptionSpec_Check(t *testing.T) {
	tests := []struct {
		name    string
		option  string
		value   float64
		wantErr bool
	}{
		{"evalue positive", "evalue", 1e-10, false},
		{"evalue zero is exclusive", "evalue", 0, true},
		{"word_size at inclusive min", "word_size", 4, false},
		{"word_size below min", "word_size", 3, true},
		{"word_size fractional", "word_size", 11.5, true},
		{"perc_identity at max", "perc_identity", 100, false},
		{"perc_identity above max", "perc_identity", 100.5, true},
		{"penalty negative", "penalty", -3, false},
		{"penalty positive", "penalty", 1, true},
		{"nan", "xdrop_gap", math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := KnownOptions[tt.option].Check(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Check(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOptions(t *testing.T) {
	opts, err := ValidateOptions(map[string]float64{"word_size": 11, "evalue": 0.001})
	if err != nil {
		t.Fatalf("ValidateOptions() error = %v", err)
	}
	var args []string
	for _, o := range opts {
		args = append(args, o.Args()...)
	}
	if got := strings.Join(args, " "); got != "-evalue 0.001 -word_size 11" {
		t.Errorf("args = %q", got)
	}
}

func TestValidateOptions_Rejects(t *testing.T) {
	_, err := ValidateOptions(map[string]float64{"outfmt": 6})
	var optErr *OptionError
	if !errors.As(err, &optErr) || optErr.Name != "outfmt" {
		t.Errorf("ValidateOptions() error = %v, want unknown option outfmt", err)
	}

	_, err = ValidateOptions(map[string]float64{"max_hsps": 0})
	if !errors.As(err, &optErr) || optErr.Name != "max_hsps" {
		t.Errorf("ValidateOptions() error = %v, want range error for max_hsps", err)
	}
}
