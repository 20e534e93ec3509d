package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"scrawl/internal/runstore"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect persisted extraction runs",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	return runsCmd
}

func withStore(ctx *commandContext, fn func(*runstore.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := runstore.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store *runstore.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limitFlag)
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.ID,
						run.Document,
						run.Backend,
						fmt.Sprintf("%.2f", run.Confidence),
						run.Duration.Round(time.Millisecond).String(),
						run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
					{title: "Run"},
					{title: "Document"},
					{title: "Backend"},
					{title: "Confidence", numeric: true},
					{title: "Duration", numeric: true},
					{title: "Created"},
				}, rows))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum number of runs to list")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit runs as JSON")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool
	var transcriptFlag bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store *runstore.Store) error {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, run)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s\n", run.ID)
				fmt.Fprintf(out, "Document:       %s\n", run.Document)
				fmt.Fprintf(out, "Backend:        %s (%s)\n", run.Backend, run.Variant)
				fmt.Fprintf(out, "Confidence:     %.2f\n", run.Confidence)
				fmt.Fprintf(out, "Low confidence: %s\n", yesNo(run.LowConfidence))
				fmt.Fprintf(out, "Reinterpreted:  %s\n", yesNo(run.Reinterpreted))
				fmt.Fprintf(out, "Duration:       %s\n\n", run.Duration.Round(time.Millisecond))

				if transcriptFlag {
					fmt.Fprintln(out, run.Transcript)
					fmt.Fprintln(out)
				}

				rows := make([][]string, 0, len(run.Answers))
				for _, a := range run.Answers {
					rows = append(rows, []string{
						a.QuestionNumber,
						a.Answer,
						a.Tier,
						fmt.Sprintf("%.2f", a.MatchConfidence),
						yesNo(a.Corrected),
						yesNo(a.Verified),
					})
				}
				fmt.Fprintln(out, renderTable(answerColumns, rows))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the run as JSON")
	cmd.Flags().BoolVar(&transcriptFlag, "transcript", false, "Include the full transcript")
	return cmd
}
