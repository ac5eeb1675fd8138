package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/seqcat/internal/config"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a new seqcat repository",
	Long: `Create a .seqcat directory with an empty sequence store and a starter
config.yml. Defaults to the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

// .gitignore inside .seqcat keeps the rebuildable cache out of version control.
const seqcatGitignore = "cache/\n"

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		exitWithError(ExitError, "resolving path: %v", err)
	}

	if config.IsRepository(root) {
		exitWithError(ExitConfigError, "already a seqcat repository: %s", root)
	}

	if err := os.MkdirAll(config.IndexRoot(root), 0755); err != nil {
		exitWithError(ExitError, "creating %s: %v", config.SeqcatDir, err)
	}
	if err := os.WriteFile(config.SequencesPath(root), nil, 0644); err != nil {
		exitWithError(ExitError, "creating sequence store: %v", err)
	}
	if err := os.WriteFile(filepath.Join(config.SeqcatPath(root), ".gitignore"), []byte(seqcatGitignore), 0644); err != nil {
		exitWithError(ExitError, "writing .gitignore: %v", err)
	}

	cfg := &config.Config{Threads: config.DefaultThreads}
	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized seqcat repository in %s\n", config.SeqcatPath(root))
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: config.SeqcatPath(root)})
	}
	return nil
}
