package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"ArxivTranslator/internal/domain"
	"ArxivTranslator/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Locator    ports.Locator
	Listings   ports.ListingSource
	Details    ports.DetailSource
	Translator ports.Translator
	Recorder   ports.Recorder
	History    ports.RunHistory
	Logger     *slog.Logger
	NewRunID   func() string
	Now        func() time.Time
}

// RunConfig describes a single run.
type RunConfig struct {
	Subject string
	Mode    domain.ListingMode
	// Model is passed through to the translator verbatim.
	Model string
	// MaxCount bounds the number of papers attempted; zero means no limit.
	// Papers without an abstract still count as attempted.
	MaxCount int
	// StartedAt names recent-mode output; defaults to the pipeline clock.
	StartedAt time.Time
}

// Validate checks the run parameters before any I/O happens. Subject codes,
// blank ones included, are checked by the locator.
func (c RunConfig) Validate() error {
	var problems []string
	if !c.Mode.Valid() {
		problems = append(problems, fmt.Sprintf("unknown listing mode %q", c.Mode))
	}
	if strings.TrimSpace(c.Model) == "" {
		problems = append(problems, "model is required")
	}
	if c.MaxCount < 0 {
		problems = append(problems, "max count must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid run config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Pipeline implements the listing → detail → translate → record workflow.
type Pipeline struct {
	locator    ports.Locator
	listings   ports.ListingSource
	details    ports.DetailSource
	translator ports.Translator
	recorder   ports.Recorder
	history    ports.RunHistory
	logger     *slog.Logger
	newRunID   func() string
	now        func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		locator:    deps.Locator,
		listings:   deps.Listings,
		details:    deps.Details,
		translator: deps.Translator,
		recorder:   deps.Recorder,
		history:    deps.History,
		logger:     deps.Logger,
		newRunID:   deps.NewRunID,
		now:        deps.Now,
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if p.newRunID == nil {
		p.newRunID = func() string { return "" }
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Run resolves and fetches the listing, then translates papers one by one.
// Listing-level problems abort the run; per-paper problems are recorded in
// the summary and the loop moves on.
func (p *Pipeline) Run(ctx context.Context, cfg RunConfig) (domain.RunSummary, error) {
	if err := cfg.Validate(); err != nil {
		return domain.RunSummary{}, err
	}
	if err := p.checkDeps(); err != nil {
		return domain.RunSummary{}, err
	}

	if cfg.StartedAt.IsZero() {
		cfg.StartedAt = p.now()
	}

	summary := domain.RunSummary{
		RunID:     p.newRunID(),
		Subject:   cfg.Subject,
		Mode:      cfg.Mode,
		Model:     cfg.Model,
		StartedAt: cfg.StartedAt,
	}
	logger := p.logger.With("run_id", summary.RunID, "subject", cfg.Subject, "mode", string(cfg.Mode))

	listingURL, err := p.locator.Resolve(cfg.Subject, cfg.Mode)
	if err != nil {
		return summary, err
	}
	summary.ListingURL = listingURL

	listing, err := p.listings.FetchListing(ctx, listingURL, cfg.Mode)
	if err != nil {
		return summary, fmt.Errorf("load listing: %w", err)
	}
	summary.PublishedOn = listing.PublishedOn

	stamp := cfg.StartedAt
	if listing.PublishedOn != nil {
		stamp = *listing.PublishedOn
	}
	summary.OutputPath = p.recorder.Path(cfg.Subject, cfg.Mode, stamp, cfg.Model)

	if cfg.Mode == domain.ModeNew {
		exists, err := p.recorder.Exists(summary.OutputPath)
		if err != nil {
			return summary, fmt.Errorf("check output: %w", err)
		}
		if exists {
			summary.AlreadyDone = true
			summary.FinishedAt = p.now()
			logger.Info("translation file already exists, skipping",
				"date", stamp.Format("2006-01-02"), "path", summary.OutputPath)
			p.saveHistory(ctx, logger, summary)
			return summary, nil
		}
	}

	logger.Info("listing loaded", "url", listingURL, "papers", len(listing.Papers), "max", cfg.MaxCount)

	for i, paperURL := range listing.Papers {
		if cfg.MaxCount > 0 && i >= cfg.MaxCount {
			break
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result := p.processPaper(ctx, logger, cfg, summary.OutputPath, paperURL)
		result.Position = i + 1
		summary.Items = append(summary.Items, result)
	}

	summary.FinishedAt = p.now()
	logger.Info("run finished",
		"translated", summary.Count(domain.StatusTranslated),
		"skipped", summary.Count(domain.StatusSkipped),
		"failed", summary.Count(domain.StatusFailed),
		"path", summary.OutputPath)

	p.saveHistory(ctx, logger, summary)
	return summary, nil
}

func (p *Pipeline) processPaper(ctx context.Context, logger *slog.Logger, cfg RunConfig, outputPath, paperURL string) domain.ItemResult {
	result := domain.ItemResult{URL: paperURL}

	fail := func(err error) domain.ItemResult {
		result.Status = domain.StatusFailed
		result.Err = err
		logger.Error("error processing paper", "url", paperURL, "error", err)
		return result
	}

	paper, err := p.details.FetchDetail(ctx, paperURL)
	if err != nil {
		return fail(err)
	}
	result.Title = paper.Title
	logger.Info("paper loaded", "url", paperURL, "title", paper.Title)

	if !paper.HasAbstract() {
		result.Status = domain.StatusSkipped
		logger.Info("paper has no abstract", "url", paperURL)
		return result
	}
	logger.Info("original abstract", "url", paperURL, "abstract", paper.Abstract)

	logger.Info("translating abstract", "url", paperURL, "model", cfg.Model)
	translated, err := p.translator.Translate(ctx, paper.Abstract, cfg.Model)
	if err != nil {
		return fail(err)
	}
	logger.Info("translated abstract", "url", paperURL, "translation", translated)

	source := paperURL
	if cfg.Mode == domain.ModeNew {
		source = domain.PDFURL(paperURL)
	}

	if err := p.recorder.Append(outputPath, domain.Entry{
		SourceURL:  source,
		Title:      paper.Title,
		Original:   paper.Abstract,
		Translated: translated,
	}); err != nil {
		return fail(fmt.Errorf("record translation: %w", err))
	}

	result.Status = domain.StatusTranslated
	return result
}

func (p *Pipeline) saveHistory(ctx context.Context, logger *slog.Logger, summary domain.RunSummary) {
	if p.history == nil {
		return
	}
	if err := p.history.SaveRun(ctx, summary); err != nil {
		logger.Warn("cannot save run history", "error", err)
	}
}

func (p *Pipeline) checkDeps() error {
	var missing []string
	if p.locator == nil {
		missing = append(missing, "locator")
	}
	if p.listings == nil {
		missing = append(missing, "listing source")
	}
	if p.details == nil {
		missing = append(missing, "detail source")
	}
	if p.translator == nil {
		missing = append(missing, "translator")
	}
	if p.recorder == nil {
		missing = append(missing, "recorder")
	}
	if len(missing) > 0 {
		return fmt.Errorf("pipeline is missing dependencies: %s", strings.Join(missing, ", "))
	}
	return nil
}
