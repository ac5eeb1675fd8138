package indexcache

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIndexerNotConfigured is returned when no indexer executable is set.
	ErrIndexerNotConfigured = errors.New("indexer executable not configured")

	// ErrArtifactMissing means the indexer exited cleanly but left no index.
	ErrArtifactMissing = errors.New("indexer produced no index files")

	// ErrReleased is returned when a temporary index is released while a
	// caller is still acquiring it.
	ErrReleased = errors.New("temporary index was released")

	// ErrBuild is matched by every *BuildError.
	ErrBuild = errors.New("index build failed")
)

// BuildError reports a failed indexer run. Any partially written index
// files have already been removed when it is returned.
type BuildError struct {
	Dir      string
	Title    string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *BuildError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "building index %q in %s", e.Title, e.Dir)
	if e.ExitCode != 0 {
		fmt.Fprintf(&sb, ": exit code %d", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		fmt.Fprintf(&sb, "\nstderr: %s", stderr)
	}
	return sb.String()
}

func (e *BuildError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrBuild) true.
func (e *BuildError) Is(target error) bool { return target == ErrBuild }
