package classify

import (
	"testing"

	"github.com/matsen/seqcat/internal/alignment"
)

func ptr[T any](v T) *T { return &v }

func TestForwardAccepts(t *testing.T) {
	tests := []struct {
		name   string
		filter DirectionFilter
		hsp    alignment.HSP
		want   bool
	}{
		{"forward no thresholds", DirectionFilter{}, alignment.HSP{QueryFrom: 1, QueryTo: 20, HitFrom: 1, HitTo: 20}, true},
		{"reversed query", DirectionFilter{}, alignment.HSP{QueryFrom: 20, QueryTo: 1, HitFrom: 1, HitTo: 20}, false},
		{"reversed hit", DirectionFilter{}, alignment.HSP{QueryFrom: 1, QueryTo: 20, HitFrom: 20, HitTo: 1}, false},
		{"single base", DirectionFilter{}, alignment.HSP{QueryFrom: 5, QueryTo: 5, HitFrom: 9, HitTo: 9}, true},
		{"evalue too high", DirectionFilter{MaxEValue: ptr(1e-5)}, alignment.HSP{QueryFrom: 1, QueryTo: 2, HitFrom: 1, HitTo: 2, EValue: 0.1}, false},
		{"evalue at max", DirectionFilter{MaxEValue: ptr(0.1)}, alignment.HSP{QueryFrom: 1, QueryTo: 2, HitFrom: 1, HitTo: 2, EValue: 0.1}, true},
		{"bit score too low", DirectionFilter{MinBitScore: ptr(30.0)}, alignment.HSP{QueryFrom: 1, QueryTo: 2, HitFrom: 1, HitTo: 2, BitScore: 29.9}, false},
		{"score too low", DirectionFilter{MinScore: ptr(10)}, alignment.HSP{QueryFrom: 1, QueryTo: 2, HitFrom: 1, HitTo: 2, Score: 9}, false},
		{"all thresholds pass", DirectionFilter{MaxEValue: ptr(1.0), MinBitScore: ptr(10.0), MinScore: ptr(5)},
			alignment.HSP{QueryFrom: 1, QueryTo: 2, HitFrom: 1, HitTo: 2, EValue: 0.5, BitScore: 11, Score: 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForwardAccepts(tt.filter, &tt.hsp); got != tt.want {
				t.Errorf("ForwardAccepts() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReverseAccepts(t *testing.T) {
	strict := DirectionFilter{MaxEValue: ptr(1e-10), MinBitScore: ptr(100.0), MinScore: ptr(100)}

	tests := []struct {
		name   string
		filter DirectionFilter
		hsp    alignment.HSP
		want   bool
	}{
		{"forward rejected", DirectionFilter{}, alignment.HSP{QueryFrom: 1, QueryTo: 20, HitFrom: 1, HitTo: 20}, false},
		{"reversed query", DirectionFilter{}, alignment.HSP{QueryFrom: 20, QueryTo: 1, HitFrom: 1, HitTo: 20}, true},
		{"reversed hit", DirectionFilter{}, alignment.HSP{QueryFrom: 1, QueryTo: 20, HitFrom: 20, HitTo: 1}, true},
		// Thresholds bind only to the reversed-hit clause.
		{"reversed query bypasses thresholds", strict, alignment.HSP{QueryFrom: 20, QueryTo: 1, HitFrom: 1, HitTo: 20, EValue: 1}, true},
		{"reversed hit checks thresholds", strict, alignment.HSP{QueryFrom: 1, QueryTo: 20, HitFrom: 20, HitTo: 1, EValue: 1}, false},
		{"reversed hit passes thresholds", strict,
			alignment.HSP{QueryFrom: 1, QueryTo: 20, HitFrom: 20, HitTo: 1, EValue: 1e-20, BitScore: 200, Score: 150}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReverseAccepts(tt.filter, &tt.hsp); got != tt.want {
				t.Errorf("ReverseAccepts() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDirectionText(t *testing.T) {
	for _, d := range []Direction{Forward, Reverse} {
		b, err := d.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText() error = %v", err)
		}
		var back Direction
		if err := back.UnmarshalText(b); err != nil || back != d {
			t.Errorf("UnmarshalText(%s) = %v, %v", b, back, err)
		}
	}
	var d Direction
	if err := d.UnmarshalText([]byte("SIDEWAYS")); err == nil {
		t.Error("UnmarshalText should reject unknown directions")
	}
}
