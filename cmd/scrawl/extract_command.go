package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scrawl/internal/extract"
	"scrawl/internal/pipeline"
	"scrawl/internal/runstore"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var (
		textFlag     string
		textFileFlag string
		expectedFlag string
		timeoutFlag  int
		jsonFlag     bool
		noSaveFlag   bool
	)

	cmd := &cobra.Command{
		Use:   "extract [image-path]",
		Short: "Extract answers from a handwritten page or pasted text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := pipeline.Document{Text: textFlag}
			if len(args) == 1 {
				doc.ImagePath = args[0]
			}
			if textFileFlag != "" {
				data, err := os.ReadFile(textFileFlag)
				if err != nil {
					return fmt.Errorf("read text file: %w", err)
				}
				doc.Text = string(data)
			}
			if doc.ImagePath == "" && strings.TrimSpace(doc.Text) == "" {
				return fmt.Errorf("provide an image path, --text, or --text-file")
			}

			var expected map[string]string
			if expectedFlag != "" {
				loaded, err := loadExpectedAnswers(expectedFlag)
				if err != nil {
					return err
				}
				expected = loaded
			}

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			p, err := ctx.buildPipeline(logger)
			if err != nil {
				return err
			}

			runCtx := cmd.Context()
			if timeoutFlag > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(runCtx, time.Duration(timeoutFlag)*time.Second)
				defer cancel()
			}

			outcome, err := p.Extract(runCtx, doc, expected)
			if err != nil {
				return err
			}

			if !noSaveFlag {
				if err := saveOutcome(runCtx, ctx, outcome); err != nil {
					logger.Warn("run not persisted", "error", err)
				}
			}

			if jsonFlag {
				return writeJSON(cmd, outcome)
			}
			renderOutcome(cmd, outcome)
			return nil
		},
	}

	cmd.Flags().StringVar(&textFlag, "text", "", "Raw transcript text (bypasses recognition)")
	cmd.Flags().StringVar(&textFileFlag, "text-file", "", "File containing raw transcript text")
	cmd.Flags().StringVar(&expectedFlag, "expected", "", "TOML file of expected answers keyed by question number")
	cmd.Flags().IntVar(&timeoutFlag, "timeout", 0, "Overall deadline in seconds (0 uses the configured phase budgets)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the full outcome as JSON")
	cmd.Flags().BoolVar(&noSaveFlag, "no-save", false, "Do not persist the run")

	return cmd
}

func saveOutcome(ctx context.Context, cmdCtx *commandContext, outcome pipeline.Outcome) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := runstore.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveOutcome(ctx, outcome)
}

func renderOutcome(cmd *cobra.Command, outcome pipeline.Outcome) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (%s backend, confidence %.2f", outcome.RunID, outcome.Transcript.Backend, outcome.Transcript.Confidence)
	if outcome.Transcript.Reinterpreted {
		fmt.Fprint(out, ", reinterpreted")
	}
	fmt.Fprintf(out, ") finished in %s\n\n", outcome.Duration.Round(time.Millisecond))

	if len(outcome.Answers) == 0 {
		fmt.Fprintln(out, "No questions found in the transcript.")
		return
	}

	rows := make([][]string, 0, len(outcome.Answers))
	for _, a := range outcome.Answers {
		answer := a.Answer
		if a.TierUsed == extract.TierNone {
			answer = "(no answer found)"
		}
		rows = append(rows, []string{
			a.QuestionNumber,
			answer,
			string(a.TierUsed),
			fmt.Sprintf("%.2f", a.MatchConfidence),
			yesNo(a.Corrected),
			yesNo(a.Verified),
		})
	}
	fmt.Fprintln(out, renderTable(answerColumns, rows))

	diag := outcome.Diagnostics
	if len(diag.ExhaustedQuestions) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "No answer found for: %s\n", strings.Join(diag.ExhaustedQuestions, ", "))
	}
	if len(diag.UnverifiedQuestions) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Unverified answers for: %s\n", strings.Join(diag.UnverifiedQuestions, ", "))
	}
}
