package ports

import (
	"context"
	"time"

	"ArxivTranslator/internal/domain"
)

// Locator maps a subject code to the listing URL for a mode.
type Locator interface {
	Resolve(subject string, mode domain.ListingMode) (string, error)
}

// ListingSource fetches a listing page and returns its paper references.
type ListingSource interface {
	FetchListing(ctx context.Context, listingURL string, mode domain.ListingMode) (domain.Listing, error)
}

// DetailSource fetches one paper's detail page.
type DetailSource interface {
	FetchDetail(ctx context.Context, paperURL string) (domain.Paper, error)
}

// Translator turns an abstract into translated text with the given model.
type Translator interface {
	Translate(ctx context.Context, abstract, model string) (string, error)
}

// Recorder owns the naming and append-only writes of translation logs.
type Recorder interface {
	Path(subject string, mode domain.ListingMode, stamp time.Time, model string) string
	Exists(path string) (bool, error)
	Append(path string, entry domain.Entry) error
}

// RunHistory keeps an audit trail of finished runs.
type RunHistory interface {
	SaveRun(ctx context.Context, summary domain.RunSummary) error
}
