package classify

import "github.com/matsen/seqcat/internal/alignment"

// DirectionFilter holds a category's optional HSP thresholds. A nil field
// does not constrain.
type DirectionFilter struct {
	MaxEValue   *float64
	MinBitScore *float64
	MinScore    *int
}

// passesThresholds reports whether h meets every set threshold.
func (f DirectionFilter) passesThresholds(h *alignment.HSP) bool {
	if f.MaxEValue != nil && h.EValue > *f.MaxEValue {
		return false
	}
	if f.MinBitScore != nil && h.BitScore < *f.MinBitScore {
		return false
	}
	if f.MinScore != nil && h.Score < *f.MinScore {
		return false
	}
	return true
}

// ForwardAccepts reports whether h counts toward a FORWARD match: both axes
// run forward and every threshold passes.
func ForwardAccepts(f DirectionFilter, h *alignment.HSP) bool {
	return h.QueryTo >= h.QueryFrom && h.HitTo >= h.HitFrom && f.passesThresholds(h)
}

// ReverseAccepts reports whether h counts toward a REVERSE match.
//
// NOTE: the thresholds bind only to the hit-orientation clause. An HSP whose
// query runs backwards is accepted without any threshold check. This matches
// the established classification behaviour and is kept until the results it
// produces are reviewed; do not regroup the expression.
func ReverseAccepts(f DirectionFilter, h *alignment.HSP) bool {
	return h.QueryTo < h.QueryFrom || (h.HitTo < h.HitFrom && f.passesThresholds(h))
}

// accepts dispatches on direction.
func accepts(d Direction, f DirectionFilter, h *alignment.HSP) bool {
	if d == Reverse {
		return ReverseAccepts(f, h)
	}
	return ForwardAccepts(f, h)
}
