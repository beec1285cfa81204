package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ArxivTranslator/internal/config"
	"ArxivTranslator/internal/domain"
	"ArxivTranslator/internal/infrastructure/llm"
	"ArxivTranslator/internal/infrastructure/parser"
	"ArxivTranslator/internal/infrastructure/storage"
	"ArxivTranslator/internal/listing"
	"ArxivTranslator/internal/logging"
	"ArxivTranslator/internal/ports"
	"ArxivTranslator/internal/usecase"
)

// Application wires configs to the translation pipeline.
type Application struct {
	cfg       config.Config
	startedAt time.Time
	pipeline  *usecase.Pipeline
	history   *storage.HistoryRepository
	logger    *slog.Logger
}

// New builds a runnable application. The translation credential is taken
// from cfg.ChatGPT.APIKey.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format, nil)
	}

	scanner, err := parser.NewArxivScanner(nil, cfg.Arxiv, baseLogger.With("component", "parser.arxiv"))
	if err != nil {
		return nil, err
	}

	a := &Application{
		cfg:       cfg,
		startedAt: time.Now(),
		logger:    baseLogger,
	}

	var history ports.RunHistory
	if cfg.History.Enabled() {
		repo, err := storage.OpenHistory(ctx, cfg.History)
		if err != nil {
			return nil, fmt.Errorf("open run history: %w", err)
		}
		a.history = repo
		history = repo
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Locator:    listing.NewRegistry(cfg.Arxiv),
		Listings:   scanner,
		Details:    scanner,
		Translator: llm.NewChatGPTClient(cfg.ChatGPT, baseLogger.With("component", "llm.chatgpt")),
		Recorder:   storage.NewTextLog(cfg.Output.Dir),
		History:    history,
		Logger:     baseLogger.With("component", "pipeline"),
		NewRunID:   uuid.NewString,
	})
	return a, nil
}

// Run executes one pipeline pass. A zero model falls back to the configured one.
func (a *Application) Run(ctx context.Context, subject string, mode domain.ListingMode, model string, maxCount int) (domain.RunSummary, error) {
	if model == "" {
		model = a.cfg.ChatGPT.Model
	}
	return a.pipeline.Run(ctx, usecase.RunConfig{
		Subject:   subject,
		Mode:      mode,
		Model:     model,
		MaxCount:  maxCount,
		StartedAt: a.startedAt,
	})
}

// History exposes the run-history store; nil when it is disabled.
func (a *Application) History() *storage.HistoryRepository {
	return a.history
}

// Close releases resources held by the application.
func (a *Application) Close() error {
	if a.history == nil {
		return nil
	}
	return a.history.Close()
}
