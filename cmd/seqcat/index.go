package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/matsen/seqcat/internal/config"
	"github.com/matsen/seqcat/internal/indexcache"
	"github.com/matsen/seqcat/internal/storage"
)

var (
	buildCategory string
	buildAll      bool
)

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexStatusCmd)
	indexCmd.AddCommand(indexWatchCmd)

	indexBuildCmd.Flags().StringVar(&buildCategory, "category", "", "Build only the index for this category")
	indexBuildCmd.Flags().BoolVar(&buildAll, "all", false, "Also build every category and single-reference index")
	indexWatchCmd.Flags().StringVar(&buildCategory, "category", "", "Keep only the index for this category fresh")
	indexWatchCmd.Flags().BoolVar(&buildAll, "all", false, "Also keep every category and single-reference index fresh")
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage cached BLAST databases",
	Long: `Commands for building and inspecting the cached BLAST databases.

Indices are built on demand by search and classify; building them ahead
of time moves the makeblastdb cost out of the first search.`,
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build stale or missing indices",
	Long: `Build the recognition index (all declared references), or the selected
indices, rebuilding any whose references changed since they were built.
Up to 'threads' builds run at once.`,
	Args: cobra.NoArgs,
	RunE: runIndexBuild,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which indices exist and whether they are stale",
	Args:  cobra.NoArgs,
	RunE:  runIndexStatus,
}

var indexWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild indices whenever sequences.jsonl changes",
	Long: `Watch sequences.jsonl (for example across git pulls or imports from
another shell), and on each change rebuild the query database and any stale
indices. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runIndexWatch,
}

// IndexBuildResult is the response for index build command.
type IndexBuildResult struct {
	Status          string               `json:"status"`
	DurationSeconds float64              `json:"duration_seconds"`
	Indices         []*indexcache.Status `json:"indices"`
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	stack := mustOpenSearchStack()
	defer stack.Close()

	keys, err := buildKeys(stack.cfg, buildCategory, buildAll)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	start := time.Now()
	if err := stack.cache.Warm(ctx, keys, stack.cfg.Workers()); err != nil {
		exitWithErr("building indices", err)
	}
	elapsed := time.Since(start)

	statuses := mustInspect(ctx, stack.cache, keys)

	if humanOutput {
		fmt.Printf("Built %d indices in %s\n", len(statuses), formatDuration(elapsed))
		printStatusesHuman(statuses)
	} else {
		outputJSON(IndexBuildResult{
			Status:          "complete",
			DurationSeconds: elapsed.Seconds(),
			Indices:         statuses,
		})
	}
	return nil
}

func runIndexStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	stack := mustOpenSearchStack()
	defer stack.Close()

	statuses := mustInspect(ctx, stack.cache, knownKeys(stack.cfg))

	if humanOutput {
		if len(statuses) == 0 {
			fmt.Println("No references declared in config.yml.")
			return nil
		}
		printStatusesHuman(statuses)
	} else {
		outputJSON(statuses)
	}
	return nil
}

func mustInspect(ctx context.Context, cache *indexcache.Cache, keys []indexcache.IndexKey) []*indexcache.Status {
	statuses := make([]*indexcache.Status, 0, len(keys))
	for _, key := range keys {
		st, err := cache.Inspect(ctx, key)
		if err != nil {
			exitWithErr("inspecting "+key.String(), err)
		}
		statuses = append(statuses, st)
	}
	return statuses
}

func printStatusesHuman(statuses []*indexcache.Status) {
	for _, st := range statuses {
		state := "fresh"
		switch {
		case !st.Exists:
			state = "missing"
		case st.Stale:
			state = "stale"
		}
		fmt.Printf("%-32s %-8s %3d refs  %9s  built %s\n",
			st.Key, state, st.References, formatBytes(st.SizeBytes), formatAge(st.BuiltAt))
	}
}

func runIndexWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack := mustOpenSearchStack()
	defer stack.Close()

	keys, err := buildKeys(stack.cfg, buildCategory, buildAll)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	logger := slog.Default().With("component", "watch")
	seqPath := config.SequencesPath(stack.root)

	refresh := func(ctx context.Context) error {
		n, err := stack.db.RebuildFromJSONL(seqPath)
		if err != nil {
			return fmt.Errorf("rebuilding database: %w", err)
		}
		start := time.Now()
		if err := stack.cache.Warm(ctx, keys, stack.cfg.Workers()); err != nil {
			return err
		}
		if humanOutput {
			fmt.Printf("%s  %d sequences, %d indices fresh (%s)\n",
				time.Now().Format(time.TimeOnly), n, len(keys), formatDuration(time.Since(start)))
		} else {
			outputJSON(WatchEvent{Time: time.Now(), Sequences: n, Indices: len(keys)})
		}
		return nil
	}

	if err := refresh(ctx); err != nil {
		exitWithErr("initial build", err)
	}
	logger.Info("watching", "path", seqPath)
	if err := storage.Watch(ctx, seqPath, storage.DefaultWatchDebounce, logger, refresh); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return nil
}

// WatchEvent is emitted after each refresh by index watch.
type WatchEvent struct {
	Time      time.Time `json:"time"`
	Sequences int       `json:"sequences"`
	Indices   int       `json:"indices"`
}
