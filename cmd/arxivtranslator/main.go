// Command arxivtranslator scrapes arXiv listings, translates abstracts with a
// chat completion model and appends the results to text logs.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"ArxivTranslator/internal/config"
	"ArxivTranslator/internal/logging"
)

var (
	flagConfig    string
	flagLogLevel  string
	flagOutputDir string
)

var rootCmd = &cobra.Command{
	Use:   "arxivtranslator",
	Short: "Translate new arXiv abstracts into plain-spoken summaries",
	Long: `arxivtranslator reads an arXiv listing for one subject (RO or CV), fetches
every paper's abstract, asks a chat completion model to translate it and appends
the original/translated pair to a text file under the output directory.

Use "new" for the day's new submissions (one file per listing date) and
"recent" for the rolling window of recent submissions (one file per run).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: $XDG_CONFIG_HOME/arxiv-translator/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagOutputDir, "output-dir", "", "directory for translation files (default: daily-db)")
}

// loadConfig applies command-line overrides on top of the config file.
func loadConfig() config.Config {
	cfg := config.Load(flagConfig)
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
	if flagOutputDir != "" {
		cfg.Output.Dir = flagOutputDir
	}
	return cfg
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.New("error", "", os.Stderr).Error("arxivtranslator stopped", "error", err)
		os.Exit(1)
	}
}
