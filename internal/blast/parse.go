package blast

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/matsen/seqcat/internal/alignment"
)

// OutputFormat is the -outfmt value producing single-file JSON.
const OutputFormat = "15"

// document is one top-level JSON value. blastn -outfmt 15 writes a
// BlastOutput2 array; a bare report object is also accepted.
type document struct {
	BlastOutput2 *[]reportEntry `json:"BlastOutput2"`
	Report       *report        `json:"report"`
}

type reportEntry struct {
	Report *report `json:"report"`
}

type report struct {
	Program string   `json:"program"`
	Results *results `json:"results"`
}

type results struct {
	Search *search `json:"search"`
}

type search struct {
	QueryID    string `json:"query_id"`
	QueryTitle string `json:"query_title"`
	QueryLen   int    `json:"query_len"`
	Hits       []hit  `json:"hits"`
	Message    string `json:"message"`
}

type hit struct {
	Num         int           `json:"num"`
	Description []description `json:"description"`
	Len         int           `json:"len"`
	HSPs        []hsp         `json:"hsps"`
}

type description struct {
	ID        string `json:"id"`
	Accession string `json:"accession"`
	Title     string `json:"title"`
}

type hsp struct {
	BitScore  *float64 `json:"bit_score"`
	Score     int      `json:"score"`
	EValue    *float64 `json:"evalue"`
	Identity  int      `json:"identity"`
	QueryFrom *int     `json:"query_from"`
	QueryTo   *int     `json:"query_to"`
	HitFrom   *int     `json:"hit_from"`
	HitTo     *int     `json:"hit_to"`
	AlignLen  int      `json:"align_len"`
	Gaps      int      `json:"gaps"`
	QSeq      string   `json:"qseq"`
	HSeq      string   `json:"hseq"`
}

// Parse decodes every JSON document in r into search results, one per
// query, in output order. Any missing structure fails the whole call.
func Parse(r io.Reader) ([]alignment.SearchResult, error) {
	dec := json.NewDecoder(r)

	var out []alignment.SearchResult
	docs := 0
	for {
		var doc document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &OutputFormatError{Reason: fmt.Sprintf("decoding document %d", docs+1), Err: err}
		}
		docs++

		var reports []*report
		switch {
		case doc.BlastOutput2 != nil:
			for _, e := range *doc.BlastOutput2 {
				reports = append(reports, e.Report)
			}
		case doc.Report != nil:
			reports = append(reports, doc.Report)
		default:
			return nil, &OutputFormatError{Reason: fmt.Sprintf("document %d has neither BlastOutput2 nor report", docs)}
		}

		for i, rep := range reports {
			res, err := convertReport(rep)
			if err != nil {
				return nil, &OutputFormatError{Reason: fmt.Sprintf("document %d, report %d: %v", docs, i+1, err)}
			}
			out = append(out, res)
		}
	}

	if docs == 0 {
		return nil, &OutputFormatError{Reason: "no result documents"}
	}
	return out, nil
}

// ParseBytes is Parse over a byte slice.
func ParseBytes(data []byte) ([]alignment.SearchResult, error) {
	return Parse(bytes.NewReader(data))
}

func convertReport(rep *report) (alignment.SearchResult, error) {
	if rep == nil {
		return alignment.SearchResult{}, errors.New("missing report")
	}
	if rep.Results == nil || rep.Results.Search == nil {
		return alignment.SearchResult{}, errors.New("missing results.search")
	}
	s := rep.Results.Search

	queryID := firstToken(s.QueryTitle)
	if queryID == "" {
		queryID = s.QueryID
	}
	if queryID == "" {
		return alignment.SearchResult{}, errors.New("search has no query identifier")
	}

	res := alignment.SearchResult{
		QueryID:    queryID,
		QueryTitle: s.QueryTitle,
		QueryLen:   s.QueryLen,
		Hits:       make([]alignment.Hit, 0, len(s.Hits)),
	}
	for i, h := range s.Hits {
		converted, err := convertHit(h)
		if err != nil {
			return alignment.SearchResult{}, fmt.Errorf("query %s, hit %d: %w", queryID, i+1, err)
		}
		res.Hits = append(res.Hits, converted)
	}
	return res, nil
}

func convertHit(h hit) (alignment.Hit, error) {
	if len(h.Description) == 0 {
		return alignment.Hit{}, errors.New("hit has no description")
	}
	d := h.Description[0]
	name := referenceName(d)
	if name == "" {
		return alignment.Hit{}, errors.New("hit has no reference name")
	}

	out := alignment.Hit{
		Reference: name,
		Title:     d.Title,
		Len:       h.Len,
		HSPs:      make([]alignment.HSP, 0, len(h.HSPs)),
	}
	for i, x := range h.HSPs {
		if x.BitScore == nil || x.EValue == nil || x.QueryFrom == nil || x.QueryTo == nil || x.HitFrom == nil || x.HitTo == nil {
			return alignment.Hit{}, fmt.Errorf("reference %s, hsp %d: missing score or coordinate fields", name, i+1)
		}
		out.HSPs = append(out.HSPs, alignment.HSP{
			BitScore:  *x.BitScore,
			Score:     x.Score,
			EValue:    *x.EValue,
			Identity:  x.Identity,
			QueryFrom: *x.QueryFrom,
			QueryTo:   *x.QueryTo,
			HitFrom:   *x.HitFrom,
			HitTo:     *x.HitTo,
			AlignLen:  x.AlignLen,
			Gaps:      x.Gaps,
			QuerySeq:  x.QSeq,
			HitSeq:    x.HSeq,
		})
	}
	return out, nil
}

// referenceName picks the sequence id the index was built with. Without
// -parse_seqids makeblastdb keeps the FASTA id only in the title.
func referenceName(d description) string {
	if name := firstToken(d.Title); name != "" {
		return name
	}
	if d.Accession != "" {
		return d.Accession
	}
	return firstToken(d.ID)
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
