package alignment

import (
	"cmp"
	"slices"
)

// Merge folds segment lists, given highest priority first, into a single
// list sorted by RefStart whose segments never share a reference position.
// A lower-priority segment only contributes the reference positions that no
// higher-priority segment covers; partially covered segments are clipped
// along their diagonal.
func Merge(lists [][]Segment) []Segment {
	var accepted []Segment
	for _, list := range lists {
		sorted := slices.Clone(list)
		slices.SortStableFunc(sorted, byRefStart)
		for _, s := range sorted {
			for _, piece := range uncovered(accepted, s) {
				accepted = insertSorted(accepted, piece)
			}
		}
	}
	return accepted
}

func byRefStart(a, b Segment) int {
	return cmp.Compare(a.RefStart, b.RefStart)
}

// uncovered returns the parts of s whose reference range is not covered by
// accepted, which must be sorted and non-overlapping.
func uncovered(accepted []Segment, s Segment) []Segment {
	// First accepted segment that could reach s.
	i, _ := slices.BinarySearchFunc(accepted, s.RefStart, func(a Segment, pos int) int {
		if a.RefEnd < pos {
			return -1
		}
		return 1
	})

	var pieces []Segment
	cursor := s.RefStart
	for ; i < len(accepted) && accepted[i].RefStart <= s.RefEnd; i++ {
		if accepted[i].RefStart > cursor {
			pieces = append(pieces, clip(s, cursor, accepted[i].RefStart-1))
		}
		cursor = max(cursor, accepted[i].RefEnd+1)
	}
	if cursor <= s.RefEnd {
		pieces = append(pieces, clip(s, cursor, s.RefEnd))
	}
	return pieces
}

// clip restricts s to reference positions [from, to], moving the query
// bounds by the same offsets. Segments whose source runs the two axes in
// opposite directions map the low reference end to the high query end.
func clip(s Segment, from, to int) Segment {
	if from == s.RefStart && to == s.RefEnd {
		return s
	}
	out := s
	out.RefStart, out.RefEnd = from, to
	if antiDiagonal(s) {
		out.QueryStart = s.QueryEnd - (to - s.RefStart)
		out.QueryEnd = s.QueryEnd - (from - s.RefStart)
	} else {
		out.QueryStart = s.QueryStart + (from - s.RefStart)
		out.QueryEnd = s.QueryStart + (to - s.RefStart)
	}
	return out
}

func antiDiagonal(s Segment) bool {
	return s.Source != nil && s.Source.HitReversed() != s.Source.QueryReversed()
}

func insertSorted(segments []Segment, s Segment) []Segment {
	i, _ := slices.BinarySearchFunc(segments, s, byRefStart)
	return slices.Insert(segments, i, s)
}
