package alignment

import "slices"

// Reconcile converts all HSPs of one query/reference pair into a single
// consistent segment set. HSPs are ranked with Compare and merged so that
// better HSPs win any contested reference positions.
func Reconcile(refName, queryID string, hsps []HSP) ([]Segment, error) {
	ranked := slices.Clone(hsps)
	SortHSPs(ranked)

	lists := make([][]Segment, 0, len(ranked))
	for i := range ranked {
		segs, err := SegmentsFromHSP(refName, queryID, &ranked[i])
		if err != nil {
			return nil, err
		}
		lists = append(lists, segs)
	}
	return Merge(lists), nil
}

// ReconcileHit runs Reconcile over every HSP of hit.
func ReconcileHit(queryID string, hit Hit) ([]Segment, error) {
	return Reconcile(hit.Reference, queryID, hit.HSPs)
}
