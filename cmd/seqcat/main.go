// Package main provides the seqcat CLI entry point.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/seqcat/internal/blast"
	"github.com/matsen/seqcat/internal/config"
	"github.com/matsen/seqcat/internal/indexcache"
	"github.com/matsen/seqcat/internal/process"
	"github.com/matsen/seqcat/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	verbose     bool
	repoFlag    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "seqcat",
	Short: "Categorize nucleotide sequences by BLAST similarity to references",
	Long: `seqcat searches query sequences against cached BLAST databases built
from a repository of reference sequences, and assigns queries to
configured recognition categories.

Reference sequences are stored in git-versionable JSONL with an ephemeral
SQLite cache. BLAST databases are built on demand and rebuilt when their
references change. All commands output JSON by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(verbose))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log cache and search activity to stderr")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "", "Repository root (default: search upward from the working directory)")
	rootCmd.Version = Version
}

// newLogger returns a stderr logger; debug records only when verbose.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// getStartingDirectory returns the directory to start searching for a repository.
// Checks --repo, then global config repo_path, then the working directory.
func getStartingDirectory() string {
	if repoFlag != "" {
		return repoFlag
	}
	if root, err := config.DefaultRepository(); err == nil {
		return root
	}
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}
	return cwd
}

// mustFindRepository finds the repository and loads its .env file, exits on
// error.
func mustFindRepository() string {
	repoRoot, err := config.FindRepository(getStartingDirectory())
	if err != nil {
		exitWithError(ExitConfigError, "%v\n\nRun 'seqcat init' to create one.", err)
	}
	if err := config.LoadDotEnv(repoRoot); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return repoRoot
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustResolveExecutables loads the global config and applies env overrides.
func mustResolveExecutables() config.Executables {
	g, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading global config: %v", err)
	}
	return config.ResolveExecutables(g)
}

// mustOpenDatabase opens the SQLite database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(repoRoot string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(repoRoot), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(config.DBPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// searchStack is everything a search or classification needs.
type searchStack struct {
	root   string
	cfg    *config.Config
	db     *storage.DB
	cache  *indexcache.Cache
	runner *blast.Runner
}

func (s *searchStack) Close() error { return s.db.Close() }

// mustOpenSearchStack wires the executor, index cache and search runner for
// the current repository. The caller must Close the stack.
func mustOpenSearchStack() *searchStack {
	root := mustFindRepository()
	cfg := mustLoadConfig(root)
	tools := mustResolveExecutables()
	logger := slog.Default()

	opts, err := cfg.SearchOptions()
	if err != nil {
		exitWithError(ExitConfigError, "search options: %v", err)
	}

	exec := process.NewOSExecutor(process.WithRateLimit(cfg.ProcessRate))
	db := mustOpenDatabase(root)

	cache, err := indexcache.New(config.IndexRoot(root), db, exec,
		indexcache.WithIndexer(tools.Makeblastdb),
		indexcache.WithLogger(logger.With("component", "indexcache")),
	)
	if err != nil {
		db.Close()
		exitWithError(ExitError, "opening index cache: %v", err)
	}

	runner := blast.NewRunner(exec, blast.RunnerConfig{
		Executable: tools.Blastn,
		Threads:    cfg.Threads,
		Options:    opts,
		Logger:     logger.With("component", "blast"),
	})

	return &searchStack{root: root, cfg: cfg, db: db, cache: cache, runner: runner}
}
