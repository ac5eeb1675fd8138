// Package process runs external command-line tools with stdin piped in and
// stdout/stderr captured. The index cache and search runner launch
// makeblastdb and blastn only through an Executor; timeouts and launch
// limits are applied here.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrNotStarted is matched by errors from commands that never ran.
var ErrNotStarted = errors.New("process did not start")

// Command describes one invocation of an external tool.
type Command struct {
	Path  string
	Args  []string
	Stdin io.Reader
	Dir   string
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// ExitError reports a process that ran but exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s: exit status %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s: exit status %d: %s", e.Command, e.ExitCode, msg)
}

// StartError reports a process that could not be launched.
type StartError struct {
	Command string
	Err     error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("starting %s: %v", e.Command, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrNotStarted) true.
func (e *StartError) Is(target error) bool { return target == ErrNotStarted }

// Executor runs a command to completion. Implementations return a non-nil
// Result alongside an *ExitError so callers can inspect captured stderr.
type Executor interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, cmd Command) (*Result, error)

// Run implements Executor.
func (f ExecutorFunc) Run(ctx context.Context, cmd Command) (*Result, error) {
	return f(ctx, cmd)
}

// OSExecutor runs commands with os/exec.
type OSExecutor struct {
	limiter *rate.Limiter
	timeout time.Duration
}

// Option configures an OSExecutor.
type Option func(*OSExecutor)

// WithRateLimit caps process launches per second. A non-positive rate
// leaves launches unlimited.
func WithRateLimit(perSecond float64) Option {
	return func(e *OSExecutor) {
		if perSecond > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithTimeout kills processes that run longer than d. Zero disables the
// timeout, which is the default: a hung tool blocks its caller.
func WithTimeout(d time.Duration) Option {
	return func(e *OSExecutor) {
		e.timeout = d
	}
}

// NewOSExecutor creates an executor backed by os/exec.
func NewOSExecutor(opts ...Option) *OSExecutor {
	e := &OSExecutor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run implements Executor.
func (e *OSExecutor) Run(ctx context.Context, cmd Command) (*Result, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, &StartError{Command: cmd.Path, Err: err}
		}
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdin = cmd.Stdin
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if e.timeout > 0 {
		c.WaitDelay = time.Second
	}

	start := time.Now()
	err := c.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, &ExitError{Command: cmd.Path, ExitCode: res.ExitCode, Stderr: stderr.String()}
		}
		return nil, &StartError{Command: cmd.Path, Err: err}
	}
	return res, nil
}
