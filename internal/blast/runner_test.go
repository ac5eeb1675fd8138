package blast

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/matsen/seqcat/internal/indexcache"
	"github.com/matsen/seqcat/internal/process"
)

type staticProvider struct{}

func (staticProvider) Nucleotides(context.Context, string) (string, error) { return "ACGTACGT", nil }
func (staticProvider) LastModified(context.Context, []string) (time.Time, error) {
	return time.Now().Add(-time.Hour), nil
}

// fakeIndexer writes an index artifact at the -out prefix.
var fakeIndexer = process.ExecutorFunc(func(_ context.Context, cmd process.Command) (*process.Result, error) {
	for i := 0; i+1 < len(cmd.Args); i++ {
		if cmd.Args[i] == "-out" {
			return &process.Result{}, os.WriteFile(cmd.Args[i+1]+".nin", []byte("x"), 0644)
		}
	}
	return &process.Result{}, nil
})

func acquireTestIndex(t *testing.T) *indexcache.Handle {
	t.Helper()
	cache, err := indexcache.New(t.TempDir(), staticProvider{}, fakeIndexer, indexcache.WithIndexer("makeblastdb"))
	if err != nil {
		t.Fatalf("indexcache.New() error = %v", err)
	}
	h, err := cache.Acquire(context.Background(), indexcache.SingleReference("ref1"))
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	t.Cleanup(h.Release)
	return h
}

func TestRunner_Run(t *testing.T) {
	h := acquireTestIndex(t)

	var gotCmd process.Command
	var gotStdin string
	exec := process.ExecutorFunc(func(_ context.Context, cmd process.Command) (*process.Result, error) {
		gotCmd = cmd
		data, _ := io.ReadAll(cmd.Stdin)
		gotStdin = string(data)
		return &process.Result{Stdout: []byte(sampleOutput)}, nil
	})

	opts, err := ValidateOptions(map[string]float64{"evalue": 10, "word_size": 7})
	if err != nil {
		t.Fatalf("ValidateOptions() error = %v", err)
	}
	r := NewRunner(exec, RunnerConfig{Executable: "/opt/blast/bin/blastn", Threads: 4, Options: opts})

	results, err := r.Run(context.Background(), h, []byte(">q1\nACGT\n"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Run() returned %d results, want 2", len(results))
	}

	if gotCmd.Path != "/opt/blast/bin/blastn" {
		t.Errorf("Path = %q", gotCmd.Path)
	}
	wantArgs := "-db " + h.Path() + " -outfmt 15 -num_threads 4 -evalue 10 -word_size 7"
	if got := strings.Join(gotCmd.Args, " "); got != wantArgs {
		t.Errorf("Args = %q, want %q", got, wantArgs)
	}
	if gotStdin != ">q1\nACGT\n" {
		t.Errorf("stdin = %q", gotStdin)
	}
}

func TestRunner_NotConfigured(t *testing.T) {
	h := acquireTestIndex(t)
	r := NewRunner(process.ExecutorFunc(func(context.Context, process.Command) (*process.Result, error) {
		t.Fatal("executor should not run without an executable")
		return nil, nil
	}), RunnerConfig{})

	_, err := r.Run(context.Background(), h, nil)
	if !errors.Is(err, ErrExecutableNotConfigured) || !errors.Is(err, ErrExecution) {
		t.Errorf("Run() error = %v, want ErrExecutableNotConfigured", err)
	}
}

func TestRunner_ProcessFailure(t *testing.T) {
	h := acquireTestIndex(t)

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"non-zero exit", &process.ExitError{Command: "blastn", ExitCode: 2, Stderr: "BLAST query error"}, 2},
		{"failed start", &process.StartError{Command: "blastn", Err: os.ErrNotExist}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner(process.ExecutorFunc(func(context.Context, process.Command) (*process.Result, error) {
				return &process.Result{ExitCode: tt.wantCode}, tt.err
			}), RunnerConfig{Executable: "blastn"})

			_, err := r.Run(context.Background(), h, []byte(">q\nA\n"))
			var execErr *ExecutionError
			if !errors.As(err, &execErr) {
				t.Fatalf("Run() error = %v, want *ExecutionError", err)
			}
			if execErr.ExitCode != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d", execErr.ExitCode, tt.wantCode)
			}
		})
	}
}

func TestRunner_UnparsableOutputCarriesStderr(t *testing.T) {
	h := acquireTestIndex(t)
	r := NewRunner(process.ExecutorFunc(func(context.Context, process.Command) (*process.Result, error) {
		return &process.Result{Stdout: []byte("<html>"), Stderr: []byte("Warning: something odd")}, nil
	}), RunnerConfig{Executable: "blastn"})

	_, err := r.Run(context.Background(), h, []byte(">q\nA\n"))
	var formatErr *OutputFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("Run() error = %v, want *OutputFormatError", err)
	}
	if formatErr.Stderr != "Warning: something odd" {
		t.Errorf("Stderr = %q", formatErr.Stderr)
	}
}
