package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"scrawl/internal/extract"
)

var clauseKindNames = map[extract.ClauseKind]string{
	extract.ClauseSetBuilder:    "set-builder",
	extract.ClauseExclusionList: "exclusion-list",
	extract.ClauseTrailingValue: "trailing-value",
	extract.ClauseMarked:        "marked",
}

func newPatternCommand() *cobra.Command {
	var fileFlag string

	cmd := &cobra.Command{
		Use:         "pattern [text]",
		Short:       "Run the deterministic pattern scan over segment text",
		Long:        "Runs the no-network pattern fallback and prints every candidate clause in priority order. Useful for checking what the extractor would fall back to.",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			switch {
			case fileFlag != "":
				data, err := os.ReadFile(fileFlag)
				if err != nil {
					return fmt.Errorf("read file: %w", err)
				}
				text = string(data)
			case len(args) == 1:
				text = args[0]
			default:
				return fmt.Errorf("provide text or --file")
			}

			clauses := extract.ScanClauses(text)
			out := cmd.OutOrStdout()
			if len(clauses) == 0 {
				fmt.Fprintln(out, "No clauses found.")
				return nil
			}
			rows := make([][]string, 0, len(clauses))
			for _, clause := range clauses {
				rows = append(rows, []string{clauseKindNames[clause.Kind], clause.Text})
			}
			fmt.Fprintln(out, renderTable([]column{{title: "Kind"}, {title: "Clause"}}, rows))
			best, _ := extract.MatchPattern(text)
			fmt.Fprintf(out, "Selected: %s\n", strings.TrimSpace(best.Text))
			return nil
		},
	}

	cmd.Flags().StringVar(&fileFlag, "file", "", "Read segment text from a file")
	return cmd
}
