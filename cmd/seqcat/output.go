package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/matsen/seqcat/internal/alignment"
	"github.com/matsen/seqcat/internal/blast"
	"github.com/matsen/seqcat/internal/classify"
	"github.com/matsen/seqcat/internal/config"
	"github.com/matsen/seqcat/internal/indexcache"
	"github.com/matsen/seqcat/internal/storage"
)

// DescriptionMaxLen bounds descriptions in human list output.
const DescriptionMaxLen = 50

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg, Code: code})
	}
	os.Exit(code)
}

// exitWithErr exits with the code matching err's kind.
func exitWithErr(action string, err error) {
	code := exitCodeFor(err)
	if code == ExitConfigError && (errors.Is(err, blast.ErrExecutableNotConfigured) || errors.Is(err, indexcache.ErrIndexerNotConfigured)) {
		exitWithError(code, "%s: %v\n\n%s", action, err, config.HelpfulConfigMessage())
	}
	exitWithError(code, "%s: %v", action, err)
}

// exitCodeFor maps library errors to exit codes.
func exitCodeFor(err error) int {
	var (
		configErr    *config.ConfigError
		partitionErr *classify.PartitionError
		optionErr    *blast.OptionError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, blast.ErrExecutableNotConfigured),
		errors.Is(err, indexcache.ErrIndexerNotConfigured),
		errors.As(err, &configErr),
		errors.As(err, &partitionErr),
		errors.As(err, &optionErr):
		return ExitConfigError
	case errors.Is(err, indexcache.ErrBuild):
		return ExitBuildError
	case errors.Is(err, blast.ErrExecution), errors.Is(err, blast.ErrOutputFormat):
		return ExitSearchError
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, alignment.ErrUnsupportedAlignment):
		return ExitDataError
	}
	return ExitError
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatAge renders t relative to now, or "never" for the zero time.
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// formatBytes formats a byte count in a human-readable way.
func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

// formatLabels renders classification labels as "cat/DIRECTION, ...".
func formatLabels(labels []classify.Result) string {
	if len(labels) == 0 {
		return "(none)"
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = l.String()
	}
	return strings.Join(parts, ", ")
}
