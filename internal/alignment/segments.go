package alignment

// SegmentsFromHSP splits a gapped HSP into its maximal ungapped segments,
// ordered as they occur along the alignment.
//
// Both aligned strings must have equal length and neither may start or end
// with a gap. Inside a gap run the reference cursor advances only on
// non-gap hit columns and the query cursor only on non-gap query columns.
// Cursors step backwards along an axis whose To < From.
func SegmentsFromHSP(refName, queryID string, h *HSP) ([]Segment, error) {
	if cond := checkAlignment(h); cond != "" {
		return nil, &UnsupportedAlignmentError{Reference: refName, Query: queryID, Condition: cond}
	}

	refStep, queryStep := 1, 1
	if h.HitReversed() {
		refStep = -1
	}
	if h.QueryReversed() {
		queryStep = -1
	}

	var segments []Segment
	ref, query := h.HitFrom, h.QueryFrom
	open := false
	var runRef, runQuery int // first position of the open run

	closeRun := func(lastRef, lastQuery int) {
		segments = append(segments, newSegment(runRef, lastRef, runQuery, lastQuery, h))
		open = false
	}

	for i := 0; i < len(h.HitSeq); i++ {
		hitGap := h.HitSeq[i] == GapChar
		queryGap := h.QuerySeq[i] == GapChar

		if !hitGap && !queryGap {
			if !open {
				runRef, runQuery = ref, query
				open = true
			}
			ref += refStep
			query += queryStep
			continue
		}

		if open {
			closeRun(ref-refStep, query-queryStep)
		}
		if !hitGap {
			ref += refStep
		}
		if !queryGap {
			query += queryStep
		}
	}
	if open {
		closeRun(ref-refStep, query-queryStep)
	}

	return segments, nil
}

// checkAlignment returns the violated precondition, or "" when h is usable.
func checkAlignment(h *HSP) string {
	switch {
	case len(h.HitSeq) != len(h.QuerySeq):
		return CondLengthMismatch
	case len(h.HitSeq) == 0:
		return CondEmpty
	case h.HitSeq[0] == GapChar || h.QuerySeq[0] == GapChar:
		return CondLeadingGap
	case h.HitSeq[len(h.HitSeq)-1] == GapChar || h.QuerySeq[len(h.QuerySeq)-1] == GapChar:
		return CondTrailingGap
	}
	return ""
}

func newSegment(refA, refB, queryA, queryB int, src *HSP) Segment {
	return Segment{
		RefStart:   min(refA, refB),
		RefEnd:     max(refA, refB),
		QueryStart: min(queryA, queryB),
		QueryEnd:   max(queryA, queryB),
		Source:     src,
	}
}

// GapColumns counts alignment columns containing a gap on either side.
func GapColumns(h *HSP) int {
	n := 0
	for i := 0; i < len(h.HitSeq) && i < len(h.QuerySeq); i++ {
		if h.HitSeq[i] == GapChar || h.QuerySeq[i] == GapChar {
			n++
		}
	}
	return n
}
