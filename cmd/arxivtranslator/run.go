package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ArxivTranslator/internal/app"
	"ArxivTranslator/internal/config"
	"ArxivTranslator/internal/domain"
	"ArxivTranslator/internal/logging"
)

// keepConfiguredKey in place of the api-key argument defers to config/env.
const keepConfiguredKey = "-"

func newRunCommand(mode domain.ListingMode, short string) *cobra.Command {
	var maxCount int

	cmd := &cobra.Command{
		Use:   string(mode) + " <subject> <model> <api-key>",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if !cmd.Flags().Changed("num-max") {
				maxCount = defaultMaxCount(cfg, mode)
			}
			return runTranslation(cmd, cfg, mode, args, maxCount)
		},
	}
	cmd.Flags().IntVar(&maxCount, "num-max", 0, "maximum number of papers to attempt (new: unlimited, recent: 3)")
	return cmd
}

func defaultMaxCount(cfg config.Config, mode domain.ListingMode) int {
	if mode == domain.ModeRecent {
		return cfg.Run.RecentMaxCount
	}
	return cfg.Run.NewMaxCount
}

func runTranslation(cmd *cobra.Command, cfg config.Config, mode domain.ListingMode, args []string, maxCount int) error {
	subject, model, apiKey := args[0], args[1], args[2]
	if apiKey != keepConfiguredKey {
		cfg.ChatGPT.APIKey = apiKey
	}
	if maxCount < 0 {
		return fmt.Errorf("--num-max must not be negative, got %d", maxCount)
	}

	ctx := cmd.Context()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, cmd.OutOrStdout())

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	summary, err := application.Run(ctx, subject, mode, model, maxCount)
	out := cmd.OutOrStdout()
	if err != nil {
		if domain.IsInvalidSubject(err) || domain.IsListingDateError(err) {
			fmt.Fprintln(out, err)
			return nil
		}
		return err
	}

	printSummary(out, summary)
	return nil
}

func printSummary(w io.Writer, summary domain.RunSummary) {
	if summary.AlreadyDone {
		fmt.Fprintf(w, "Translation file for %s already exists. Skipping...\n", stampLabel(summary))
		return
	}

	fmt.Fprintf(w, "Finished processing. Translations saved in %s\n", summary.OutputPath)
	fmt.Fprintf(w, "translated=%d skipped=%d failed=%d",
		summary.Count(domain.StatusTranslated),
		summary.Count(domain.StatusSkipped),
		summary.Count(domain.StatusFailed))
	if summary.PublishedOn != nil {
		fmt.Fprintf(w, " date=%s", summary.PublishedOn.Format("2006-01-02"))
	}
	fmt.Fprintln(w)

	for _, item := range summary.Items {
		if item.Status == domain.StatusFailed {
			fmt.Fprintf(w, "  failed #%d %s: %s\n", item.Position, item.URL, item.Reason())
		}
	}
}

func stampLabel(summary domain.RunSummary) string {
	if summary.PublishedOn != nil {
		return summary.PublishedOn.Format("2006-01-02")
	}
	return summary.StartedAt.Format("2006-01-02")
}

func init() {
	rootCmd.AddCommand(newRunCommand(domain.ModeNew, "Translate today's new submissions for a subject"))
	rootCmd.AddCommand(newRunCommand(domain.ModeRecent, "Translate the most recent submissions for a subject"))
}
