package main

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/matsen/seqcat/internal/alignment"
	"github.com/matsen/seqcat/internal/blast"
	"github.com/matsen/seqcat/internal/classify"
	"github.com/matsen/seqcat/internal/config"
	"github.com/matsen/seqcat/internal/indexcache"
	"github.com/matsen/seqcat/internal/storage"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"blastn not configured", &blast.ExecutionError{Err: blast.ErrExecutableNotConfigured}, ExitConfigError},
		{"makeblastdb not configured", fmt.Errorf("acquiring: %w", indexcache.ErrIndexerNotConfigured), ExitConfigError},
		{"config error", &config.ConfigError{Path: "c.yml", Err: errors.New("bad")}, ExitConfigError},
		{"partition error", &classify.PartitionError{Reference: "r", Reason: "x"}, ExitConfigError},
		{"option error", &blast.OptionError{Name: "evalue", Value: -1, Reason: "x"}, ExitConfigError},
		{"build error", fmt.Errorf("warming: %w", &indexcache.BuildError{Dir: "d", ExitCode: 2}), ExitBuildError},
		{"search exit", &blast.ExecutionError{Command: "blastn", ExitCode: 1}, ExitSearchError},
		{"bad output", &blast.OutputFormatError{Reason: "truncated"}, ExitSearchError},
		{"missing sequence", fmt.Errorf("loading: %w", storage.ErrNotFound), ExitDataError},
		{"bad alignment", &alignment.UnsupportedAlignmentError{Condition: alignment.CondEmpty}, ExitDataError},
		{"other", errors.New("boom"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("short", 10); got != "short" {
		t.Errorf("truncateString(short) = %q", got)
	}
	if got := truncateString("a much longer description", 10); got != "a much ..." {
		t.Errorf("truncateString(long) = %q", got)
	}
}

func TestFormatters(t *testing.T) {
	if got := formatAge(time.Time{}); got != "never" {
		t.Errorf("formatAge(zero) = %q, want never", got)
	}
	if got := formatBytes(-5); got != "0 B" {
		t.Errorf("formatBytes(-5) = %q, want 0 B", got)
	}
	if got := formatBytes(2_000_000); got != "2.0 MB" {
		t.Errorf("formatBytes(2e6) = %q, want 2.0 MB", got)
	}
	if got := formatDuration(90 * time.Second); got != "1m 30s" {
		t.Errorf("formatDuration(90s) = %q", got)
	}
	if got := formatLabels(nil); got != "(none)" {
		t.Errorf("formatLabels(nil) = %q", got)
	}
	labels := []classify.Result{{CategoryID: "a", Direction: classify.Forward}, {CategoryID: "b", Direction: classify.Reverse}}
	if got := formatLabels(labels); got != "a/FORWARD, b/REVERSE" {
		t.Errorf("formatLabels() = %q", got)
	}
}
