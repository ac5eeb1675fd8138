package classify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/matsen/seqcat/internal/alignment"
	"github.com/matsen/seqcat/internal/fasta"
	"github.com/matsen/seqcat/internal/indexcache"
)

// DefaultIndexName names the index built over all category references.
const DefaultIndexName = "recognition"

// Searcher runs one batch search against an acquired index.
type Searcher interface {
	Run(ctx context.Context, h *indexcache.Handle, queryFASTA []byte) ([]alignment.SearchResult, error)
}

// Classifier labels queries with the categories their hits fall in.
type Classifier struct {
	cache      *indexcache.Cache
	searcher   Searcher
	categories []Category
	byRef      map[string]*Category
	indexName  string
	logger     *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithIndexName overrides DefaultIndexName.
func WithIndexName(name string) Option {
	return func(c *Classifier) {
		if name != "" {
			c.indexName = name
		}
	}
}

// WithLogger sets the classifier's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a classifier over categories, which must not share references.
func New(cache *indexcache.Cache, searcher Searcher, categories []Category, opts ...Option) (*Classifier, error) {
	c := &Classifier{
		cache:      cache,
		searcher:   searcher,
		categories: slices.Clone(categories),
		byRef:      make(map[string]*Category),
		indexName:  DefaultIndexName,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}

	for i := range c.categories {
		cat := &c.categories[i]
		for _, ref := range cat.References {
			if other, ok := c.byRef[ref]; ok && other.ID != cat.ID {
				return nil, &PartitionError{Reference: ref, Categories: []string{other.ID, cat.ID}, Reason: "belongs to more than one category"}
			}
			c.byRef[ref] = cat
		}
	}
	if len(c.byRef) == 0 {
		return nil, fmt.Errorf("no category declares any reference")
	}
	return c, nil
}

// Categories returns the configured categories.
func (c *Classifier) Categories() []Category {
	return slices.Clone(c.categories)
}

// CategoryFor returns the category owning ref.
func (c *Classifier) CategoryFor(ref string) (*Category, bool) {
	cat, ok := c.byRef[ref]
	return cat, ok
}

// IndexKey returns the key of the index spanning every category reference.
func (c *Classifier) IndexKey() indexcache.IndexKey {
	refs := make([]string, 0, len(c.byRef))
	for ref := range c.byRef {
		refs = append(refs, ref)
	}
	return indexcache.MultiReference(c.indexName, refs)
}

// Classify searches all queries in one batch and returns, per query id, the
// category/direction labels in the order they were first satisfied while
// scanning hits as the search reported them. Every input query has an
// entry, empty when nothing matched.
func (c *Classifier) Classify(ctx context.Context, queries map[string]string) (map[string][]Result, error) {
	out := make(map[string][]Result, len(queries))
	for id := range queries {
		out[id] = []Result{}
	}
	if len(queries) == 0 {
		return out, nil
	}

	h, err := c.cache.Acquire(ctx, c.IndexKey())
	if err != nil {
		return nil, fmt.Errorf("acquiring recognition index: %w", err)
	}
	defer h.Release()

	results, err := c.searcher.Run(ctx, h, fasta.Encode(fasta.FromMap(queries)))
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		if _, ok := out[res.QueryID]; !ok {
			return nil, fmt.Errorf("search reported query %q, which was not submitted", res.QueryID)
		}
		labels, err := c.classifyResult(res)
		if err != nil {
			return nil, err
		}
		for _, l := range labels {
			if !slices.Contains(out[res.QueryID], l) {
				out[res.QueryID] = append(out[res.QueryID], l)
			}
		}
	}

	c.logger.Debug("classified queries", "queries", len(queries), "results", len(results))
	return out, nil
}

// classifyResult labels one query's hits.
func (c *Classifier) classifyResult(res alignment.SearchResult) ([]Result, error) {
	labels := []Result{}
	seen := make(map[Result]bool)
	totals := make(map[Result]int)
	matched := make(map[Result]bool)

	for _, hit := range res.Hits {
		cat, ok := c.byRef[hit.Reference]
		if !ok {
			return nil, fmt.Errorf("query %s: hit on reference %q outside every category", res.QueryID, hit.Reference)
		}
		filter := cat.Filter()

		for _, dir := range []Direction{Forward, Reverse} {
			key := Result{CategoryID: cat.ID, Direction: dir}
			for i := range hit.HSPs {
				if accepts(dir, filter, &hit.HSPs[i]) {
					matched[key] = true
					totals[key] += hit.HSPs[i].AlignLen
				}
			}
			// A direction needs at least one accepted HSP, even with a zero minimum.
			if matched[key] && !seen[key] && totals[key] >= cat.minTotal() {
				seen[key] = true
				labels = append(labels, key)
			}
		}
	}
	return labels, nil
}
