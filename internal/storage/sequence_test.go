package storage

import (
	"testing"
	"time"
)

func TestNormalizeNucleotides(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"upper", "ACGT", "ACGT", false},
		{"lower", "acgtn", "ACGTN", false},
		{"whitespace", "AC GT\nAC\r\n", "ACGTAC", false},
		{"iupac", "RYKMbdhv", "RYKMBDHV", false},
		{"alignment gaps dropped", "AC--GT-", "ACGT", false},
		{"only gaps", "---", "", true},
		{"protein letter", "ACGE", "", true},
		{"digit", "AC1T", "", true},
		{"empty", " \n", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeNucleotides(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeNucleotides(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeNucleotides(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUpsert(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(24 * time.Hour)
	seqs := []Sequence{{ID: "a", Nucleotides: "ACGT", ModifiedAt: t0}}

	seqs, action := Upsert(seqs, Sequence{ID: "a", Nucleotides: "ACGT"}, t1)
	if action != ActionUnchanged || !seqs[0].ModifiedAt.Equal(t0) {
		t.Errorf("identical upsert: action %s, modified %v", action, seqs[0].ModifiedAt)
	}

	seqs, action = Upsert(seqs, Sequence{ID: "a", Nucleotides: "ACGA"}, t1)
	if action != ActionUpdate || seqs[0].Nucleotides != "ACGA" || !seqs[0].ModifiedAt.Equal(t1) {
		t.Errorf("changed upsert: action %s, seq %+v", action, seqs[0])
	}

	seqs, action = Upsert(seqs, Sequence{ID: "b", Nucleotides: "TT"}, t1)
	if action != ActionNew || len(seqs) != 2 || seqs[1].ID != "b" {
		t.Errorf("new upsert: action %s, seqs %+v", action, seqs)
	}
}
