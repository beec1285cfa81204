package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ArxivTranslator/internal/infrastructure/storage"
)

func newHistoryCommand() *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent translation runs from the run-history store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if !cfg.History.Enabled() {
				return fmt.Errorf("run history is disabled: set history.dsn in the config or ARXIV_TRANSLATOR_HISTORY_DSN")
			}

			repo, err := storage.OpenHistory(cmd.Context(), cfg.History)
			if err != nil {
				return err
			}
			defer repo.Close()

			if runID != "" {
				items, err := repo.RunItems(cmd.Context(), runID)
				if err != nil {
					return err
				}
				return printRunItems(cmd.OutOrStdout(), items)
			}

			runs, err := repo.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printRuns(cmd.OutOrStdout(), runs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show")
	cmd.Flags().StringVar(&runID, "run", "", "show the papers of one run instead of the run list")
	return cmd
}

func printRuns(w io.Writer, runs []storage.RunRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tSUBJECT\tMODE\tMODEL\tDATE\tTRANSLATED\tSKIPPED\tFAILED\tOUTPUT")
	for _, run := range runs {
		date := run.PublishedOn
		if run.AlreadyDone {
			date += " (done)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			run.RunID, run.StartedAt.Format("2006-01-02 15:04:05"), run.Subject, run.Mode, run.Model, date,
			run.Translated, run.Skipped, run.Failed, run.OutputPath)
	}
	return tw.Flush()
}

func printRunItems(w io.Writer, items []storage.ItemRecord) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "no papers recorded for this run")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSTATUS\tURL\tTITLE\tREASON")
	for _, item := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", item.Position, item.Status, item.URL, item.Title, item.Reason)
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(newHistoryCommand())
}
