package alignment

import (
	"bytes"
	"cmp"
	"slices"

	"golang.org/x/crypto/blake2b"
)

// Compare orders HSPs from best to worst. It returns a negative number when
// a ranks ahead of b, a positive number when b ranks ahead of a, and zero
// only for HSPs with identical scores, coordinates and alignment strings.
//
// Keys, most significant first: bit score (higher first), aligned length
// (higher first), gap count (lower first), leftmost hit position, leftmost
// query position, then a digest of the two alignment strings.
func Compare(a, b *HSP) int {
	if c := cmp.Compare(b.BitScore, a.BitScore); c != 0 {
		return c
	}
	if c := cmp.Compare(b.AlignLen, a.AlignLen); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Gaps, b.Gaps); c != 0 {
		return c
	}
	if c := cmp.Compare(min(a.HitFrom, a.HitTo), min(b.HitFrom, b.HitTo)); c != 0 {
		return c
	}
	if c := cmp.Compare(min(a.QueryFrom, a.QueryTo), min(b.QueryFrom, b.QueryTo)); c != 0 {
		return c
	}
	da, db := alignmentDigest(a), alignmentDigest(b)
	return bytes.Compare(da[:], db[:])
}

func alignmentDigest(h *HSP) [blake2b.Size256]byte {
	buf := make([]byte, 0, len(h.QuerySeq)+len(h.HitSeq)+1)
	buf = append(buf, h.QuerySeq...)
	buf = append(buf, 0)
	buf = append(buf, h.HitSeq...)
	return blake2b.Sum256(buf)
}

// SortHSPs sorts hsps in place, best first.
func SortHSPs(hsps []HSP) {
	slices.SortStableFunc(hsps, func(a, b HSP) int {
		return Compare(&a, &b)
	})
}

// Best returns the top-ranked HSP, or nil for an empty slice.
func Best(hsps []HSP) *HSP {
	if len(hsps) == 0 {
		return nil
	}
	best := &hsps[0]
	for i := 1; i < len(hsps); i++ {
		if Compare(&hsps[i], best) < 0 {
			best = &hsps[i]
		}
	}
	return best
}
