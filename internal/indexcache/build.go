package indexcache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/matsen/seqcat/internal/fasta"
	"github.com/matsen/seqcat/internal/process"
)

// rebuild runs the indexer for idx with the reference FASTA on stdin. The
// caller holds idx.mu for writing. On failure no index files are left.
func (c *Cache) rebuild(ctx context.Context, idx *SearchIndex) error {
	if c.indexer == "" {
		return ErrIndexerNotConfigured
	}

	records, err := c.referenceRecords(ctx, idx.key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(idx.dir, 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	prefix := idx.Prefix()
	if err := removeArtifacts(prefix); err != nil {
		return fmt.Errorf("clearing stale index files: %w", err)
	}

	cmd := process.Command{
		Path: c.indexer,
		Args: []string{
			"-in", "-",
			"-dbtype", "nucl",
			"-title", idx.title,
			"-out", prefix,
		},
		Stdin: bytes.NewReader(fasta.Encode(records)),
	}

	c.logger.Info("building index", "key", idx.key.String(), "dir", idx.dir, "sequences", len(records))
	start := time.Now()

	res, err := c.exec.Run(ctx, cmd)
	if err != nil {
		buildErr := &BuildError{Dir: idx.dir, Title: idx.title}
		var exitErr *process.ExitError
		if errors.As(err, &exitErr) {
			buildErr.ExitCode = exitErr.ExitCode
			buildErr.Stderr = exitErr.Stderr
		} else {
			buildErr.Err = err
			if res != nil {
				buildErr.Stderr = string(res.Stderr)
			}
		}
		c.cleanupFailedBuild(idx)
		c.logger.Error("index build failed", "key", idx.key.String(), "error", buildErr)
		return buildErr
	}

	if _, ok := idx.artifactModTime(); !ok {
		c.cleanupFailedBuild(idx)
		return &BuildError{Dir: idx.dir, Title: idx.title, Stderr: string(res.Stderr), Err: ErrArtifactMissing}
	}

	c.logger.Info("built index", "key", idx.key.String(), "duration", time.Since(start))
	return nil
}

func (c *Cache) cleanupFailedBuild(idx *SearchIndex) {
	if err := removeArtifacts(idx.Prefix()); err != nil {
		c.logger.Warn("removing partial index files", "dir", idx.dir, "error", err)
	}
}

// referenceRecords collects the sequences an index is built from.
func (c *Cache) referenceRecords(ctx context.Context, key IndexKey) ([]fasta.Record, error) {
	if key.IsTemporary() {
		return fasta.FromMap(key.sequences), nil
	}

	ids := key.ReferenceIDs()
	records := make([]fasta.Record, 0, len(ids))
	for _, id := range ids {
		seq, err := c.provider.Nucleotides(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading reference %s: %w", id, err)
		}
		records = append(records, fasta.Record{ID: id, Sequence: seq})
	}
	return records, nil
}
