package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/matsen/seqcat/internal/classify"
	"github.com/matsen/seqcat/internal/fasta"
)

func init() {
	rootCmd.AddCommand(classifyCmd)
}

var classifyCmd = &cobra.Command{
	Use:   "classify <query.fasta>",
	Short: "Assign query sequences to recognition categories",
	Long: `Search every query against the recognition index (all declared
references) and label it with each category whose references it aligns to,
per strand, over at least the category's minimum total alignment length.

A query may carry several labels, or none.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

// ClassifyOutput is one query's classification.
type ClassifyOutput struct {
	QueryID    string            `json:"query_id"`
	Categories []classify.Result `json:"categories"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	records := mustReadFASTA(args[0])

	stack := mustOpenSearchStack()
	defer stack.Close()

	if len(stack.cfg.Categories) == 0 {
		exitWithError(ExitConfigError, "no categories configured in config.yml")
	}
	c, err := classify.New(stack.cache, stack.runner, stack.cfg.Categories,
		classify.WithLogger(slog.Default().With("component", "classify")))
	if err != nil {
		exitWithErr("configuring classifier", err)
	}

	labels, err := c.Classify(ctx, queryMap(records))
	if err != nil {
		exitWithErr("classifying", err)
	}

	out := classifyOutput(records, labels)
	if humanOutput {
		for _, o := range out {
			fmt.Printf("%s\t%s\n", o.QueryID, formatLabels(o.Categories))
		}
	} else {
		outputJSON(out)
	}
	return nil
}

func queryMap(records []fasta.Record) map[string]string {
	m := make(map[string]string, len(records))
	for _, r := range records {
		m[r.ID] = r.Sequence
	}
	return m
}

// classifyOutput orders labels by the queries' input order.
func classifyOutput(records []fasta.Record, labels map[string][]classify.Result) []ClassifyOutput {
	out := make([]ClassifyOutput, 0, len(records))
	for _, r := range records {
		ls := labels[r.ID]
		if ls == nil {
			ls = []classify.Result{}
		}
		out = append(out, ClassifyOutput{QueryID: r.ID, Categories: ls})
	}
	return out
}
