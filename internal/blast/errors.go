// Package blast runs blastn against a cached index and decodes its JSON
// output into the alignment hit model.
package blast

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExecutableNotConfigured is returned when no blastn path is set.
	ErrExecutableNotConfigured = errors.New("search executable not configured")

	// ErrExecution is matched by every *ExecutionError.
	ErrExecution = errors.New("search execution failed")

	// ErrOutputFormat is matched by every *OutputFormatError.
	ErrOutputFormat = errors.New("unparsable search output")
)

// ExecutionError reports a search process that could not be run or exited
// with a failure status.
type ExecutionError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecutionError) Error() string {
	var sb strings.Builder
	sb.WriteString("running search")
	if e.Command != "" {
		fmt.Fprintf(&sb, " %s", e.Command)
	}
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

func (e *ExecutionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrExecution) true.
func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }

// OutputFormatError reports structured output that does not match the
// expected document layout. Stderr carries the search tool's diagnostics
// when the output came from a process.
type OutputFormatError struct {
	Reason string
	Stderr string
	Err    error
}

func (e *OutputFormatError) Error() string {
	msg := "parsing search output: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\nstderr: " + stderr
	}
	return msg
}

func (e *OutputFormatError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrOutputFormat) true.
func (e *OutputFormatError) Is(target error) bool { return target == ErrOutputFormat }

// OptionError reports a search option outside its declared range.
type OptionError struct {
	Name   string
	Value  float64
	Reason string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("search option -%s=%v: %s", e.Name, e.Value, e.Reason)
}
