package storage

import (
	"fmt"
	"strings"
	"time"
)

// Sequence is one stored nucleotide sequence. References and other named
// sequences live in sequences.jsonl, one record per line.
type Sequence struct {
	ID          string    `json:"id"`
	Description string    `json:"description,omitempty"`
	Nucleotides string    `json:"nucleotides"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// Len returns the sequence length in bases.
func (s Sequence) Len() int { return len(s.Nucleotides) }

// nucleotideAlphabet is the IUPAC nucleotide code set.
const nucleotideAlphabet = "ACGTURYSWKMBDHVN"

// NormalizeNucleotides upper-cases seq and rejects any character outside the
// IUPAC nucleotide codes. Whitespace and alignment gaps ('-') are dropped so
// stored sequences are raw residues ready for makeblastdb.
func NormalizeNucleotides(seq string) (string, error) {
	var b strings.Builder
	b.Grow(len(seq))
	for i, r := range seq {
		switch r {
		case ' ', '\t', '\r', '\n', '-':
			continue
		}
		up := r
		if up >= 'a' && up <= 'z' {
			up -= 'a' - 'A'
		}
		if !strings.ContainsRune(nucleotideAlphabet, up) {
			return "", fmt.Errorf("invalid nucleotide %q at offset %d", r, i)
		}
		b.WriteRune(up)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("empty sequence")
	}
	return b.String(), nil
}

// ImportAction describes what Upsert did with an incoming sequence.
type ImportAction string

const (
	ActionNew       ImportAction = "new"
	ActionUpdate    ImportAction = "update"
	ActionUnchanged ImportAction = "unchanged"
)

// Upsert merges seq into seqs by id. An existing record is replaced, and its
// ModifiedAt bumped to now, only when its nucleotides or description differ.
func Upsert(seqs []Sequence, seq Sequence, now time.Time) ([]Sequence, ImportAction) {
	if i, ok := FindByID(seqs, seq.ID); ok {
		old := seqs[i]
		if old.Nucleotides == seq.Nucleotides && old.Description == seq.Description {
			return seqs, ActionUnchanged
		}
		seq.ModifiedAt = now
		seqs[i] = seq
		return seqs, ActionUpdate
	}
	seq.ModifiedAt = now
	return append(seqs, seq), ActionNew
}

// FindByID searches for a sequence by ID.
func FindByID(seqs []Sequence, id string) (int, bool) {
	for i, s := range seqs {
		if s.ID == id {
			return i, true
		}
	}
	return -1, false
}
