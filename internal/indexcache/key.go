// Package indexcache keeps on-disk BLAST nucleotide indices keyed by the
// reference set they cover, rebuilding an index when its source sequences
// have changed since it was built.
package indexcache

import (
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Kind tags the variant held by an IndexKey.
type Kind int

const (
	KindSingleReference Kind = iota + 1
	KindMultiReference
	KindTempSingleSequence
	KindTempMultiSequence
)

func (k Kind) String() string {
	switch k {
	case KindSingleReference:
		return "single"
	case KindMultiReference:
		return "multi"
	case KindTempSingleSequence:
		return "temp-single"
	case KindTempMultiSequence:
		return "temp-multi"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IndexKey identifies one index. Keys with equal Identity share one index.
// Build keys with SingleReference, MultiReference, TempSingleSequence or
// TempMultiSequence.
type IndexKey struct {
	kind      Kind
	name      string
	refNames  []string // sorted, unique
	id        uuid.UUID
	seqID     string
	sequences map[string]string
}

// SingleReference keys the index over one stored reference sequence.
func SingleReference(name string) IndexKey {
	return IndexKey{kind: KindSingleReference, name: name}
}

// MultiReference keys the index over a named set of stored references.
func MultiReference(name string, refNames []string) IndexKey {
	refs := slices.Clone(refNames)
	slices.Sort(refs)
	return IndexKey{kind: KindMultiReference, name: name, refNames: slices.Compact(refs)}
}

// TempSingleSequence keys a temporary index over one caller-supplied
// sequence. Each call yields a distinct key.
func TempSingleSequence(id, sequence string) IndexKey {
	return IndexKey{
		kind:      KindTempSingleSequence,
		id:        uuid.New(),
		seqID:     id,
		sequences: map[string]string{id: sequence},
	}
}

// TempMultiSequence keys a temporary index over caller-supplied sequences.
// Each call yields a distinct key.
func TempMultiSequence(sequences map[string]string) IndexKey {
	return IndexKey{
		kind:      KindTempMultiSequence,
		id:        uuid.New(),
		sequences: maps.Clone(sequences),
	}
}

// Kind returns the key variant.
func (k IndexKey) Kind() Kind { return k.kind }

// Name returns the reference or set name of a stable key.
func (k IndexKey) Name() string { return k.name }

// IsTemporary reports whether the key names a caller-owned temporary index.
func (k IndexKey) IsTemporary() bool {
	return k.kind == KindTempSingleSequence || k.kind == KindTempMultiSequence
}

// ReferenceIDs returns the sequence ids the index is built from.
func (k IndexKey) ReferenceIDs() []string {
	switch k.kind {
	case KindSingleReference:
		return []string{k.name}
	case KindMultiReference:
		return slices.Clone(k.refNames)
	default:
		return slices.Sorted(maps.Keys(k.sequences))
	}
}

// Identity returns the canonical string that determines key equality.
func (k IndexKey) Identity() string {
	switch k.kind {
	case KindSingleReference:
		return "single:" + k.name
	case KindMultiReference:
		return "multi:" + k.name + ":" + strings.Join(k.refNames, "\x1f")
	case KindTempSingleSequence:
		return "temp-single:" + k.id.String() + ":" + k.seqID
	case KindTempMultiSequence:
		return "temp-multi:" + k.id.String()
	}
	return ""
}

// Equal reports whether two keys address the same index.
func (k IndexKey) Equal(o IndexKey) bool {
	return k.Identity() == o.Identity()
}

func (k IndexKey) String() string {
	switch k.kind {
	case KindSingleReference, KindMultiReference:
		return k.kind.String() + ":" + k.name
	}
	return k.Identity()
}

// title is the human-readable database title passed to the indexer.
func (k IndexKey) title() string {
	switch k.kind {
	case KindSingleReference, KindMultiReference:
		return k.name
	case KindTempSingleSequence:
		return k.seqID
	}
	return "temp-" + k.id.String()
}

// relDir is the index directory relative to the cache root.
func (k IndexKey) relDir() string {
	switch k.kind {
	case KindSingleReference:
		return filepath.Join("single", sanitize(k.name)+"-"+k.digest())
	case KindMultiReference:
		return filepath.Join("multi", sanitize(k.name)+"-"+k.digest())
	}
	return filepath.Join("temp", k.id.String())
}

// digest disambiguates names that sanitize to the same directory.
func (k IndexKey) digest() string {
	sum := blake2b.Sum256([]byte(k.Identity()))
	return hex.EncodeToString(sum[:6])
}

func (k IndexKey) validate() error {
	switch k.kind {
	case KindSingleReference:
		if k.name == "" {
			return errors.New("single-reference key has no reference name")
		}
	case KindMultiReference:
		if k.name == "" {
			return errors.New("multi-reference key has no name")
		}
		if len(k.refNames) == 0 {
			return fmt.Errorf("multi-reference key %q has no references", k.name)
		}
	case KindTempSingleSequence, KindTempMultiSequence:
		if len(k.sequences) == 0 {
			return fmt.Errorf("temporary key %s has no sequences", k.id)
		}
	default:
		return errors.New("zero IndexKey")
	}
	return nil
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
