// Package alignment holds the hit model produced by a nucleotide search and
// the algorithms that turn gapped HSPs into ungapped coordinate segments.
package alignment

// GapChar is the gap character used in aligned sequence strings.
const GapChar = '-'

// SearchResult holds all hits reported for one query sequence.
// A SearchResult is produced fresh by every search call and never cached.
type SearchResult struct {
	QueryID    string `json:"query_id"`
	QueryTitle string `json:"query_title,omitempty"`
	QueryLen   int    `json:"query_len,omitempty"`
	Hits       []Hit  `json:"hits"`
}

// Hit is one reference sequence matched by a query, with its HSPs in the
// order the search tool reported them.
type Hit struct {
	Reference string `json:"reference"`
	Title     string `json:"title,omitempty"`
	Len       int    `json:"len,omitempty"`
	HSPs      []HSP  `json:"hsps"`
}

// HSP is a high-scoring pair: one local alignment between a query and a
// reference. Coordinates are 1-based and inclusive; a reversed strand is
// encoded by To < From. HSPs are treated as immutable once parsed.
type HSP struct {
	BitScore  float64 `json:"bit_score"`
	Score     int     `json:"score"`
	EValue    float64 `json:"evalue"`
	Identity  int     `json:"identity"` // identical positions
	QueryFrom int     `json:"query_from"`
	QueryTo   int     `json:"query_to"`
	HitFrom   int     `json:"hit_from"`
	HitTo     int     `json:"hit_to"`
	AlignLen  int     `json:"align_len"`
	Gaps      int     `json:"gaps"`
	QuerySeq  string  `json:"qseq"`
	HitSeq    string  `json:"hseq"`
}

// PercentIdentity returns identical positions as a percentage of the
// aligned length, or 0 for an empty alignment.
func (h *HSP) PercentIdentity() float64 {
	if h.AlignLen == 0 {
		return 0
	}
	return 100 * float64(h.Identity) / float64(h.AlignLen)
}

// QueryReversed reports whether the query coordinates run backwards.
func (h *HSP) QueryReversed() bool {
	return h.QueryTo < h.QueryFrom
}

// HitReversed reports whether the reference coordinates run backwards.
func (h *HSP) HitReversed() bool {
	return h.HitTo < h.HitFrom
}

// Segment is a maximal ungapped correspondence between reference and query
// coordinates. Start <= End always holds on both axes; Source points back at
// the HSP the segment was cut from.
type Segment struct {
	RefStart   int  `json:"ref_start"`
	RefEnd     int  `json:"ref_end"`
	QueryStart int  `json:"query_start"`
	QueryEnd   int  `json:"query_end"`
	Source     *HSP `json:"-"`
}

// RefLen returns the number of reference positions the segment covers.
func (s Segment) RefLen() int {
	return s.RefEnd - s.RefStart + 1
}

// Overlaps reports whether two segments share any reference position.
func (s Segment) Overlaps(o Segment) bool {
	return !(s.RefEnd < o.RefStart || o.RefEnd < s.RefStart)
}
