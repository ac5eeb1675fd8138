package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/seqcat/internal/alignment"
	"github.com/matsen/seqcat/internal/fasta"
	"github.com/matsen/seqcat/internal/indexcache"
)

var (
	searchRefs     []string
	searchCategory string
	searchSubject  string
	searchSegments bool
)

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringSliceVar(&searchRefs, "refs", nil, "Search against these stored references (comma-separated)")
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "Search against one category's references")
	searchCmd.Flags().StringVar(&searchSubject, "subject", "", "Search against the sequences of this FASTA file")
	searchCmd.Flags().BoolVar(&searchSegments, "segments", false, "Reconcile each hit into reference/query coordinate segments")
	searchCmd.MarkFlagsMutuallyExclusive("refs", "category", "subject")
}

var searchCmd = &cobra.Command{
	Use:   "search <query.fasta>",
	Short: "Search query sequences with blastn",
	Long: `Search the sequences of a FASTA file against a BLAST database.

The database is one of:
  (default)          every declared reference
  --refs a,b         the named stored references
  --category id      one category's references
  --subject x.fasta  the sequences of another FASTA file, indexed for this
                     search only and removed afterwards

Usage:
  seqcat search reads.fasta
  seqcat search reads.fasta --refs ref1,ref2 --segments
  seqcat search reads.fasta --subject contigs.fasta --human`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

// SearchHit is one reference hit in search output.
type SearchHit struct {
	alignment.Hit
	Segments     []alignment.Segment `json:"segments,omitempty"`
	SegmentError string              `json:"segment_error,omitempty"`
}

// SearchOutput is one query's search output.
type SearchOutput struct {
	QueryID string      `json:"query_id"`
	Hits    []SearchHit `json:"hits"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	queries := mustReadFASTA(args[0])

	stack := mustOpenSearchStack()
	defer stack.Close()

	var key indexcache.IndexKey
	var err error
	switch {
	case searchSubject != "":
		subjects := mustReadFASTA(searchSubject)
		key = subjectKey(subjects)
	case len(searchRefs) > 0:
		key, err = referencesKey(searchRefs)
	case searchCategory != "":
		key, err = categoryKey(stack.cfg, searchCategory)
	default:
		key, err = recognitionKey(stack.cfg)
	}
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	results, err := searchIndex(ctx, stack, key, queries)
	if key.IsTemporary() {
		stack.cache.ReleaseTemporary(key)
	}
	if err != nil {
		exitWithErr("searching", err)
	}

	out := buildSearchOutput(queries, results, searchSegments)
	if humanOutput {
		printSearchHuman(out)
	} else {
		outputJSON(out)
	}
	return nil
}

// searchIndex holds the index for the duration of one search.
func searchIndex(ctx context.Context, stack *searchStack, key indexcache.IndexKey, queries []fasta.Record) ([]alignment.SearchResult, error) {
	h, err := stack.cache.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer h.Release()
	return stack.runner.Run(ctx, h, fasta.Encode(queries))
}

// subjectKey keys a temporary index over ad-hoc subject sequences.
func subjectKey(subjects []fasta.Record) indexcache.IndexKey {
	if len(subjects) == 1 {
		return indexcache.TempSingleSequence(subjects[0].ID, subjects[0].Sequence)
	}
	seqs := make(map[string]string, len(subjects))
	for _, s := range subjects {
		seqs[s.ID] = s.Sequence
	}
	return indexcache.TempMultiSequence(seqs)
}

// buildSearchOutput lists every query in input order, with the hits the
// search reported for it.
func buildSearchOutput(queries []fasta.Record, results []alignment.SearchResult, withSegments bool) []SearchOutput {
	byQuery := make(map[string]alignment.SearchResult, len(results))
	for _, r := range results {
		byQuery[r.QueryID] = r
	}

	out := make([]SearchOutput, 0, len(queries))
	for _, q := range queries {
		so := SearchOutput{QueryID: q.ID, Hits: []SearchHit{}}
		for _, hit := range byQuery[q.ID].Hits {
			sh := SearchHit{Hit: hit}
			if withSegments {
				segs, err := alignment.ReconcileHit(q.ID, hit)
				if err != nil {
					sh.SegmentError = err.Error()
				} else {
					sh.Segments = segs
				}
			}
			so.Hits = append(so.Hits, sh)
		}
		out = append(out, so)
	}
	return out
}

func printSearchHuman(out []SearchOutput) {
	for _, q := range out {
		if len(q.Hits) == 0 {
			fmt.Printf("%s: no hits\n\n", q.QueryID)
			continue
		}
		fmt.Printf("%s: %d hits\n", q.QueryID, len(q.Hits))
		for _, h := range q.Hits {
			best := alignment.Best(h.HSPs)
			if best == nil {
				continue
			}
			fmt.Printf("  %-24s bits %7.1f  evalue %-9.2g  ident %5.1f%%  query %d-%d  ref %d-%d  (%d HSPs)\n",
				h.Reference, best.BitScore, best.EValue, best.PercentIdentity(),
				best.QueryFrom, best.QueryTo, best.HitFrom, best.HitTo, len(h.HSPs))
			for _, s := range h.Segments {
				fmt.Printf("      ref %d-%d <- query %d-%d\n", s.RefStart, s.RefEnd, s.QueryStart, s.QueryEnd)
			}
			if h.SegmentError != "" {
				fmt.Printf("      segments: %s\n", h.SegmentError)
			}
		}
		fmt.Println()
	}
}

// mustReadFASTA reads a non-empty FASTA file with unique record ids.
func mustReadFASTA(path string) []fasta.Record {
	f, err := os.Open(path)
	if err != nil {
		exitWithError(ExitError, "opening %s: %v", path, err)
	}
	defer f.Close()

	records, err := fasta.Read(f)
	if err == nil {
		err = checkRecords(records)
	}
	if err != nil {
		exitWithError(ExitDataError, "reading %s: %v", path, err)
	}
	return records
}

func checkRecords(records []fasta.Record) error {
	if len(records) == 0 {
		return errors.New("no sequences")
	}
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if seen[r.ID] {
			return fmt.Errorf("duplicate sequence id %q", r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}
