package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"ArxivTranslator/internal/config"
	"ArxivTranslator/internal/domain"
	"ArxivTranslator/internal/ports"
)

// Supported history drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	runsTable  = "translation_runs"
	itemsTable = "translation_items"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS translation_runs (
		run_id       TEXT PRIMARY KEY,
		subject      TEXT NOT NULL,
		mode         TEXT NOT NULL,
		model        TEXT NOT NULL,
		listing_url  TEXT NOT NULL,
		published_on TEXT,
		output_path  TEXT NOT NULL,
		already_done BOOLEAN NOT NULL,
		translated   INTEGER NOT NULL,
		skipped      INTEGER NOT NULL,
		failed       INTEGER NOT NULL,
		started_at   TIMESTAMP NOT NULL,
		finished_at  TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS translation_items (
		run_id   TEXT NOT NULL,
		position INTEGER NOT NULL,
		url      TEXT NOT NULL,
		title    TEXT NOT NULL,
		status   TEXT NOT NULL,
		reason   TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	)`,
}

// RunRecord is one row of the run history.
type RunRecord struct {
	RunID       string
	Subject     string
	Mode        domain.ListingMode
	Model       string
	PublishedOn string
	OutputPath  string
	AlreadyDone bool
	Translated  int
	Skipped     int
	Failed      int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// ItemRecord is one attempted paper of a stored run.
type ItemRecord struct {
	Position int
	URL      string
	Title    string
	Status   domain.ItemStatus
	Reason   string
}

// HistoryRepository persists run summaries for auditing. It is never used
// to decide whether a paper should be translated.
type HistoryRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.RunHistory = (*HistoryRepository)(nil)

// OpenHistory connects to the configured database and ensures the schema.
func OpenHistory(ctx context.Context, cfg config.HistoryConfig) (*HistoryRepository, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}

	repo := NewHistoryRepository(db, driver)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// NewHistoryRepository wires a sql.DB; driver selects the placeholder style.
func NewHistoryRepository(db *sql.DB, driver string) *HistoryRepository {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if driver == DriverPostgres {
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return &HistoryRepository{db: db, builder: builder}
}

// EnsureSchema creates the history tables when missing.
func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create history schema: %w", err)
		}
	}
	return nil
}

// SaveRun stores the summary row and one row per attempted paper.
func (r *HistoryRepository) SaveRun(ctx context.Context, summary domain.RunSummary) (err error) {
	if r.db == nil {
		return nil
	}

	var publishedOn sql.NullString
	if summary.PublishedOn != nil {
		publishedOn = sql.NullString{String: summary.PublishedOn.Format(dateLayout), Valid: true}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query, args, err := r.builder.Insert(runsTable).
		Columns("run_id", "subject", "mode", "model", "listing_url", "published_on", "output_path",
			"already_done", "translated", "skipped", "failed", "started_at", "finished_at").
		Values(summary.RunID, summary.Subject, string(summary.Mode), summary.Model, summary.ListingURL, publishedOn,
			summary.OutputPath, summary.AlreadyDone,
			summary.Count(domain.StatusTranslated), summary.Count(domain.StatusSkipped), summary.Count(domain.StatusFailed),
			summary.StartedAt.UTC(), summary.FinishedAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run %s: %w", summary.RunID, err)
	}

	if len(summary.Items) > 0 {
		insert := r.builder.Insert(itemsTable).Columns("run_id", "position", "url", "title", "status", "reason")
		for _, item := range summary.Items {
			insert = insert.Values(summary.RunID, item.Position, item.URL, item.Title, string(item.Status), item.Reason())
		}
		query, args, err = insert.ToSql()
		if err != nil {
			return fmt.Errorf("build item insert: %w", err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert items for run %s: %w", summary.RunID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit history tx: %w", err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first.
func (r *HistoryRepository) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query, args, err := r.builder.
		Select("run_id", "subject", "mode", "model", "published_on", "output_path",
			"already_done", "translated", "skipped", "failed", "started_at", "finished_at").
		From(runsTable).
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build runs query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			rec         RunRecord
			mode        string
			publishedOn sql.NullString
		)
		if err := rows.Scan(&rec.RunID, &rec.Subject, &mode, &rec.Model, &publishedOn, &rec.OutputPath,
			&rec.AlreadyDone, &rec.Translated, &rec.Skipped, &rec.Failed, &rec.StartedAt, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Mode = domain.ListingMode(mode)
		rec.PublishedOn = publishedOn.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return records, nil
}

// RunItems returns the recorded papers of one run in listing order.
func (r *HistoryRepository) RunItems(ctx context.Context, runID string) ([]ItemRecord, error) {
	query, args, err := r.builder.Select("position", "url", "title", "status", "reason").
		From(itemsTable).
		Where(sq.Eq{"run_id": runID}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []ItemRecord
	for rows.Next() {
		var (
			item   ItemRecord
			status string
		)
		if err := rows.Scan(&item.Position, &item.URL, &item.Title, &status, &item.Reason); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.Status = domain.ItemStatus(status)
		items = append(items, item)
	}
	return items, rows.Err()
}

// Close releases the database connection.
func (r *HistoryRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
