package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/matsen/seqcat/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCheckCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate config.yml and locate the BLAST+ executables",
	Long: `Validate the repository config.yml (references, category partition,
search options) and check that blastn and makeblastdb are configured and
executable. Exits with the configuration error code if anything is wrong.

Executables come from the global config (` + "`~/.config/seqcat/config.yml`" + `),
overridden by SEQCAT_BLASTN and SEQCAT_MAKEBLASTDB.`,
	Args: cobra.NoArgs,
	RunE: runConfigCheck,
}

// ToolCheck reports on one external executable.
type ToolCheck struct {
	Name       string `json:"name"`
	Configured string `json:"configured"`
	Resolved   string `json:"resolved,omitempty"`
	Problem    string `json:"problem,omitempty"`
}

// ConfigCheckResult is the response for config check.
type ConfigCheckResult struct {
	Status     string      `json:"status"`
	Repository string      `json:"repository"`
	References int         `json:"references"`
	Categories int         `json:"categories"`
	Tools      []ToolCheck `json:"tools"`
	Problems   []string    `json:"problems,omitempty"`
}

// checkTool resolves path the way the executor will launch it.
func checkTool(name, path string) ToolCheck {
	tc := ToolCheck{Name: name, Configured: path}
	if path == "" {
		tc.Problem = "not configured"
		return tc
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		tc.Problem = err.Error()
		return tc
	}
	tc.Resolved = resolved
	return tc
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()
	res := ConfigCheckResult{Status: "ok", Repository: root}

	cfg, err := config.Load(root)
	if err != nil {
		res.Problems = append(res.Problems, err.Error())
	} else {
		res.References = len(cfg.References)
		res.Categories = len(cfg.Categories)
	}

	tools := mustResolveExecutables()
	for _, tc := range []ToolCheck{checkTool("blastn", tools.Blastn), checkTool("makeblastdb", tools.Makeblastdb)} {
		res.Tools = append(res.Tools, tc)
		if tc.Problem != "" {
			res.Problems = append(res.Problems, tc.Name+": "+tc.Problem)
		}
	}
	if len(res.Problems) > 0 {
		res.Status = "invalid"
	}

	if humanOutput {
		fmt.Printf("repository:  %s\n", res.Repository)
		fmt.Printf("references:  %d\n", res.References)
		fmt.Printf("categories:  %d\n", res.Categories)
		for _, tc := range res.Tools {
			loc := tc.Resolved
			if tc.Problem != "" {
				loc = "(" + tc.Problem + ")"
			}
			fmt.Printf("%-12s %s\n", tc.Name+":", loc)
		}
		for _, p := range res.Problems {
			fmt.Printf("problem: %s\n", p)
		}
	} else {
		outputJSON(res)
	}

	if len(res.Problems) > 0 {
		os.Exit(ExitConfigError)
	}
	return nil
}
