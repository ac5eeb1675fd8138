package blast

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"

	"github.com/matsen/seqcat/internal/alignment"
	"github.com/matsen/seqcat/internal/indexcache"
	"github.com/matsen/seqcat/internal/process"
)

// RunnerConfig holds the search settings resolved from configuration.
// Options must already have passed ValidateOptions.
type RunnerConfig struct {
	Executable string
	Threads    int
	Options    []Option
	Logger     *slog.Logger
}

// Runner invokes blastn against cached indices.
type Runner struct {
	exec   process.Executor
	cfg    RunnerConfig
	logger *slog.Logger
}

// NewRunner creates a search runner.
func NewRunner(exec process.Executor, cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{exec: exec, cfg: cfg, logger: logger}
}

// Args builds the blastn argument vector for an index path prefix.
func (r *Runner) Args(indexPrefix string) []string {
	args := []string{"-db", indexPrefix, "-outfmt", OutputFormat}
	if r.cfg.Threads > 0 {
		args = append(args, "-num_threads", strconv.Itoa(r.cfg.Threads))
	}
	for _, opt := range r.cfg.Options {
		args = append(args, opt.Args()...)
	}
	return args
}

// Run searches queryFASTA against the index behind h and returns one result
// per query that blastn reported. The caller keeps h acquired for the whole
// call so the index cannot be rebuilt underneath the search.
func (r *Runner) Run(ctx context.Context, h *indexcache.Handle, queryFASTA []byte) ([]alignment.SearchResult, error) {
	if r.cfg.Executable == "" {
		return nil, &ExecutionError{Err: ErrExecutableNotConfigured}
	}

	cmd := process.Command{
		Path:  r.cfg.Executable,
		Args:  r.Args(h.Path()),
		Stdin: bytes.NewReader(queryFASTA),
	}
	r.logger.Debug("running search", "index", h.Title(), "command", cmd.String())

	res, err := r.exec.Run(ctx, cmd)
	if err != nil {
		execErr := &ExecutionError{Command: r.cfg.Executable}
		var exitErr *process.ExitError
		if errors.As(err, &exitErr) {
			execErr.ExitCode = exitErr.ExitCode
			execErr.Stderr = exitErr.Stderr
		} else {
			execErr.Err = err
		}
		return nil, execErr
	}

	results, err := ParseBytes(res.Stdout)
	if err != nil {
		stderr := string(res.Stderr)
		r.logger.Error("unparsable search output", "index", h.Title(), "error", err, "stderr", stderr)
		var formatErr *OutputFormatError
		if errors.As(err, &formatErr) {
			formatErr.Stderr = stderr
			return nil, formatErr
		}
		return nil, &OutputFormatError{Reason: "decoding output", Stderr: stderr, Err: err}
	}

	r.logger.Debug("search finished", "index", h.Title(), "queries", len(results), "duration", res.Duration)
	return results, nil
}
