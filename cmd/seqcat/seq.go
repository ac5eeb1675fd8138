package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matsen/seqcat/internal/config"
	"github.com/matsen/seqcat/internal/fasta"
	"github.com/matsen/seqcat/internal/storage"
)

var (
	importDryRun bool
	listLimit    int
)

func init() {
	rootCmd.AddCommand(seqCmd)
	seqCmd.AddCommand(seqImportCmd)
	seqCmd.AddCommand(seqRebuildCmd)
	seqCmd.AddCommand(seqListCmd)

	seqImportCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Show what would be imported without writing")
	seqListCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum sequences to list (0 = all)")
}

var seqCmd = &cobra.Command{
	Use:   "seq",
	Short: "Manage stored reference sequences",
}

var seqImportCmd = &cobra.Command{
	Use:   "import <fasta>",
	Short: "Import sequences from a FASTA file",
	Long: `Import sequences from a FASTA file into sequences.jsonl and rebuild the
query database. Records are matched by id; a changed sequence is replaced
and marks every index built from it as stale.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeqImport,
}

var seqRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query database from sequences.jsonl",
	Long: `Rebuild the SQLite query database from the JSONL source file.

Use this after pulling changes from git or if the database becomes corrupted.`,
	Args: cobra.NoArgs,
	RunE: runSeqRebuild,
}

var seqListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sequences",
	Args:  cobra.NoArgs,
	RunE:  runSeqList,
}

// ImportResult represents the result of an import operation.
type ImportResult struct {
	New       int            `json:"new"`
	Updated   int            `json:"updated"`
	Unchanged int            `json:"unchanged"`
	DryRun    bool           `json:"dry_run,omitempty"`
	Details   []ImportDetail `json:"details,omitempty"`
}

// ImportDetail describes a single import action.
type ImportDetail struct {
	ID     string               `json:"id"`
	Action storage.ImportAction `json:"action"`
	Length int                  `json:"length"`
}

// mergeImport folds FASTA records into the stored sequences.
func mergeImport(existing []storage.Sequence, records []fasta.Record, now time.Time) ([]storage.Sequence, ImportResult, error) {
	seen := make(map[string]bool, len(records))
	var result ImportResult
	for _, rec := range records {
		if seen[rec.ID] {
			return nil, ImportResult{}, fmt.Errorf("duplicate record id %q in input", rec.ID)
		}
		seen[rec.ID] = true

		nt, err := storage.NormalizeNucleotides(rec.Sequence)
		if err != nil {
			return nil, ImportResult{}, fmt.Errorf("record %s: %w", rec.ID, err)
		}

		var action storage.ImportAction
		existing, action = storage.Upsert(existing, storage.Sequence{
			ID:          rec.ID,
			Description: rec.Description,
			Nucleotides: nt,
		}, now)

		switch action {
		case storage.ActionNew:
			result.New++
		case storage.ActionUpdate:
			result.Updated++
		default:
			result.Unchanged++
		}
		result.Details = append(result.Details, ImportDetail{ID: rec.ID, Action: action, Length: len(nt)})
	}
	return existing, result, nil
}

func runSeqImport(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()

	f, err := os.Open(args[0])
	if err != nil {
		exitWithError(ExitError, "opening FASTA: %v", err)
	}
	records, err := fasta.Read(f)
	f.Close()
	if err != nil {
		exitWithError(ExitDataError, "reading FASTA: %v", err)
	}

	seqPath := config.SequencesPath(repoRoot)
	persisted, err := storage.ReadAll(seqPath)
	if err != nil {
		exitWithError(ExitDataError, "reading existing sequences: %v", err)
	}

	merged, result, err := mergeImport(persisted, records, time.Now().UTC())
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	result.DryRun = importDryRun

	if !importDryRun {
		if err := storage.WriteAll(seqPath, merged); err != nil {
			exitWithError(ExitError, "writing sequences: %v", err)
		}
		db := mustOpenDatabase(repoRoot)
		defer db.Close()
		if _, err := db.RebuildFromJSONL(seqPath); err != nil {
			exitWithError(ExitDataError, "rebuilding database: %v", err)
		}
	}

	if humanOutput {
		verb := "Imported"
		if importDryRun {
			verb = "Would import"
		}
		fmt.Printf("%s %d new, %d updated, %d unchanged\n", verb, result.New, result.Updated, result.Unchanged)
		for _, d := range result.Details {
			if d.Action != storage.ActionUnchanged {
				fmt.Printf("  %-8s %s (%d bp)\n", d.Action, d.ID, d.Length)
			}
		}
	} else {
		outputJSON(result)
	}
	return nil
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status    string `json:"status"`
	Sequences int    `json:"sequences"`
}

func runSeqRebuild(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()

	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	n, err := db.RebuildFromJSONL(config.SequencesPath(repoRoot))
	if err != nil {
		exitWithError(ExitDataError, "rebuilding database: %v", err)
	}

	if humanOutput {
		fmt.Printf("Rebuilt query database with %d sequences\n", n)
	} else {
		outputJSON(RebuildResult{Status: "rebuilt", Sequences: n})
	}
	return nil
}

func runSeqList(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()

	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	seqs, err := db.ListAll(context.Background(), listLimit)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if seqs == nil {
		seqs = []storage.Summary{}
	}

	if !humanOutput {
		outputJSON(seqs)
		return nil
	}
	if len(seqs) == 0 {
		fmt.Println("No sequences. Import some with 'seqcat seq import <fasta>'.")
		return nil
	}
	for _, s := range seqs {
		fmt.Printf("%-24s %8d bp  %-12s %s\n", s.ID, s.Length, formatAge(s.ModifiedAt), truncateString(s.Description, DescriptionMaxLen))
	}
	return nil
}
