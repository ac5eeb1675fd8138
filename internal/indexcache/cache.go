package indexcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/matsen/seqcat/internal/process"
	"golang.org/x/sync/errgroup"
)

// PrefixName is the base name of the index files inside an index directory.
const PrefixName = "index"

// artifactSuffixes are the files whose presence marks a finished nucleotide
// index: a single volume writes .nin, a multi-volume alias writes .nal.
var artifactSuffixes = []string{".nin", ".nal"}

// Provider supplies reference sequences and their modification times.
type Provider interface {
	// Nucleotides returns the sequence stored under id.
	Nucleotides(ctx context.Context, id string) (string, error)
	// LastModified returns the latest modification time among ids.
	LastModified(ctx context.Context, ids []string) (time.Time, error)
}

// SearchIndex is one on-disk index. Its lock is held for writing while the
// index is checked and rebuilt and for reading while a search uses it.
type SearchIndex struct {
	key   IndexKey
	dir   string
	title string

	mu         sync.RWMutex
	verifiedAt time.Time // last time the index was confirmed fresh
	released   bool
}

// Prefix returns the path prefix passed to the indexer and searcher.
func (s *SearchIndex) Prefix() string {
	return filepath.Join(s.dir, PrefixName)
}

// artifactModTime returns the modification time of the index artifact.
func (s *SearchIndex) artifactModTime() (time.Time, bool) {
	for _, suffix := range artifactSuffixes {
		if info, err := os.Stat(s.Prefix() + suffix); err == nil {
			return info.ModTime(), true
		}
	}
	return time.Time{}, false
}

// Cache owns every SearchIndex under one root directory. Construct one per
// process and share it; it is safe for concurrent use.
type Cache struct {
	root     string
	indexer  string
	provider Provider
	exec     process.Executor
	logger   *slog.Logger
	now      func() time.Time

	entries registry
}

// Option configures a Cache.
type Option func(*Cache)

// WithIndexer sets the path of the makeblastdb executable.
func WithIndexer(path string) Option {
	return func(c *Cache) {
		c.indexer = path
	}
}

// WithLogger sets the logger used for cache events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a cache rooted at root, creating the directory if needed.
func New(root string, provider Provider, exec process.Executor, opts ...Option) (*Cache, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating index root: %w", err)
	}
	c := &Cache{
		root:     root,
		provider: provider,
		exec:     exec,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Root returns the cache root directory.
func (c *Cache) Root() string { return c.root }

// Handle is a read-locked view of an index, valid until Release.
type Handle struct {
	index *SearchIndex
	once  sync.Once
}

// Path returns the index path prefix for the searcher's -db argument.
func (h *Handle) Path() string { return h.index.Prefix() }

// Dir returns the directory holding the index files.
func (h *Handle) Dir() string { return h.index.dir }

// Title returns the index title.
func (h *Handle) Title() string { return h.index.title }

// Key returns the key the index was acquired under.
func (h *Handle) Key() IndexKey { return h.index.key }

// Release drops the read lock. It is safe to call more than once.
func (h *Handle) Release() {
	h.once.Do(h.index.mu.RUnlock)
}

// Acquire returns a read-locked handle to the index for key, building or
// rebuilding it first when it is missing or older than its sources. The
// caller must Release the handle once its search is done.
//
// Concurrent first-time calls for one key insert a single entry and run the
// indexer once: the check-and-rebuild happens under the index write lock.
func (c *Cache) Acquire(ctx context.Context, key IndexKey) (*Handle, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}

	idx, inserted := c.entries.getOrInsert(key, func() *SearchIndex {
		return &SearchIndex{
			key:   key,
			dir:   filepath.Join(c.root, key.relDir()),
			title: key.title(),
		}
	})
	if inserted {
		c.logger.Debug("index cache miss", "key", key.String(), "dir", idx.dir)
	}

	idx.mu.Lock()
	err := c.ensureFresh(ctx, idx)
	idx.mu.Unlock()
	if err != nil {
		return nil, err
	}

	idx.mu.RLock()
	if idx.released {
		idx.mu.RUnlock()
		return nil, fmt.Errorf("%s: %w", key, ErrReleased)
	}
	return &Handle{index: idx}, nil
}

// ReleaseTemporary removes a temporary index and deletes its directory,
// waiting for in-flight searches on it to finish. It reports whether an
// index was removed; stable keys are never removed.
func (c *Cache) ReleaseTemporary(key IndexKey) bool {
	if !key.IsTemporary() {
		return false
	}
	idx, ok := c.entries.remove(key)
	if !ok {
		return false
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.released = true
	if err := os.RemoveAll(idx.dir); err != nil {
		c.logger.Warn("removing temporary index", "key", key.String(), "dir", idx.dir, "error", err)
	}
	c.logger.Debug("released temporary index", "key", key.String())
	return true
}

// Warm acquires and immediately releases each key, building stale indices
// with up to workers builds in flight.
func (c *Cache) Warm(ctx context.Context, keys []IndexKey, workers int) error {
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, key := range keys {
		g.Go(func() error {
			h, err := c.Acquire(ctx, key)
			if err != nil {
				return err
			}
			h.Release()
			return nil
		})
	}
	return g.Wait()
}

// Status describes an index without building it.
type Status struct {
	Key          string    `json:"key"`
	Dir          string    `json:"dir"`
	Title        string    `json:"title"`
	Exists       bool      `json:"exists"`
	Stale        bool      `json:"stale"`
	BuiltAt      time.Time `json:"built_at,omitempty"`
	SourceMTime  time.Time `json:"source_modified_at,omitempty"`
	SizeBytes    int64     `json:"size_bytes"`
	References   int       `json:"references"`
	LastVerified time.Time `json:"last_verified,omitempty"`
}

// Inspect reports whether the index for key exists and is fresh, without
// rebuilding it.
func (c *Cache) Inspect(ctx context.Context, key IndexKey) (*Status, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	idx, _ := c.entries.getOrInsert(key, func() *SearchIndex {
		return &SearchIndex{key: key, dir: filepath.Join(c.root, key.relDir()), title: key.title()}
	})

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	source, err := c.sourceLastModified(ctx, key)
	if err != nil {
		return nil, err
	}
	st := &Status{
		Key:          key.String(),
		Dir:          idx.dir,
		Title:        idx.title,
		SourceMTime:  source,
		References:   len(key.ReferenceIDs()),
		LastVerified: idx.verifiedAt,
	}
	if built, ok := idx.artifactModTime(); ok {
		st.Exists = true
		st.BuiltAt = built
		st.Stale = built.Before(source)
		st.SizeBytes = artifactSize(idx.Prefix())
	} else {
		st.Stale = true
	}
	return st, nil
}

// ensureFresh rebuilds idx when its artifact is missing or older than its
// sources. The caller holds idx.mu for writing.
func (c *Cache) ensureFresh(ctx context.Context, idx *SearchIndex) error {
	if idx.released {
		return fmt.Errorf("%s: %w", idx.key, ErrReleased)
	}

	source, err := c.sourceLastModified(ctx, idx.key)
	if err != nil {
		return err
	}
	if built, ok := idx.artifactModTime(); ok && !built.Before(source) {
		idx.verifiedAt = c.now()
		return nil
	}

	if err := c.rebuild(ctx, idx); err != nil {
		return err
	}
	idx.verifiedAt = c.now()
	return nil
}

func (c *Cache) sourceLastModified(ctx context.Context, key IndexKey) (time.Time, error) {
	if key.IsTemporary() {
		// Caller-supplied sequences never change under a key.
		return time.Time{}, nil
	}
	t, err := c.provider.LastModified(ctx, key.ReferenceIDs())
	if err != nil {
		return time.Time{}, fmt.Errorf("checking sources of %s: %w", key, err)
	}
	return t, nil
}

// removeArtifacts deletes every file written under prefix.
func removeArtifacts(prefix string) error {
	matches, err := filepath.Glob(prefix + ".*")
	if err != nil {
		return err
	}
	var errs []error
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func artifactSize(prefix string) int64 {
	matches, _ := filepath.Glob(prefix + ".*")
	var total int64
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil {
			total += info.Size()
		}
	}
	return total
}
