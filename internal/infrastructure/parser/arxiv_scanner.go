package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ArxivTranslator/internal/config"
	"ArxivTranslator/internal/domain"
	"ArxivTranslator/internal/ports"
)

const (
	defaultTimeout   = 20 * time.Second
	defaultUserAgent = "ArxivTranslator/1.0"

	headingDateLayout = "Monday, 2 January 2006"

	abstractLinkSelector = `a[title="Abstract"]`
	titleSelector        = "h1.title.mathjax"
	abstractSelector     = "blockquote.abstract.mathjax"

	titlePrefix    = "Title:"
	abstractPrefix = "Abstract:"
)

var headingDateExpr = regexp.MustCompile(`New submissions for (.*) \(`)

// ArxivScanner reads arXiv listing and abstract pages.
type ArxivScanner struct {
	client    *http.Client
	origin    *url.URL
	userAgent string
	logger    *slog.Logger
}

var (
	_ ports.ListingSource = (*ArxivScanner)(nil)
	_ ports.DetailSource  = (*ArxivScanner)(nil)
)

// NewArxivScanner wires an HTTP client; a nil client gets the configured timeout.
// Relative links on listing pages are resolved against cfg.BaseURL.
func NewArxivScanner(client *http.Client, cfg config.ArxivConfig, logger *slog.Logger) (*ArxivScanner, error) {
	origin, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid arxiv base url %q: %w", cfg.BaseURL, err)
	}
	if !origin.IsAbs() {
		return nil, fmt.Errorf("arxiv base url %q must be absolute", cfg.BaseURL)
	}

	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &ArxivScanner{client: client, origin: origin, userAgent: userAgent, logger: logger}, nil
}

// FetchListing downloads a listing page and extracts its abstract links.
// In ModeNew the announcement date in the page heading is required.
func (a *ArxivScanner) FetchListing(ctx context.Context, listingURL string, mode domain.ListingMode) (domain.Listing, error) {
	doc, err := a.fetchDocument(ctx, listingURL)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("fetch listing %s: %w", listingURL, err)
	}

	listing, err := parseListing(doc, mode, a.origin)
	if err != nil {
		return domain.Listing{}, err
	}
	listing.URL = listingURL

	a.debug("listing parsed", "url", listingURL, "papers", len(listing.Papers))
	return listing, nil
}

// FetchDetail downloads an abstract page and extracts title and abstract.
func (a *ArxivScanner) FetchDetail(ctx context.Context, paperURL string) (domain.Paper, error) {
	doc, err := a.fetchDocument(ctx, paperURL)
	if err != nil {
		return domain.Paper{}, fmt.Errorf("fetch detail %s: %w", paperURL, err)
	}

	paper := parseDetail(doc)
	paper.URL = paperURL
	return paper, nil
}

func (a *ArxivScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func parseListing(doc *goquery.Document, mode domain.ListingMode, origin *url.URL) (domain.Listing, error) {
	var listing domain.Listing

	if mode == domain.ModeNew {
		published, err := parseHeadingDate(doc)
		if err != nil {
			return domain.Listing{}, err
		}
		listing.PublishedOn = &published
	}

	listing.Papers = make([]string, 0)
	doc.Find(abstractLinkSelector).Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		listing.Papers = append(listing.Papers, origin.ResolveReference(ref).String())
	})

	return listing, nil
}

func parseHeadingDate(doc *goquery.Document) (time.Time, error) {
	heading := doc.Find("h3").First()
	if heading.Length() == 0 {
		return time.Time{}, domain.ErrDateNotFound
	}

	text := strings.TrimSpace(heading.Text())
	match := headingDateExpr.FindStringSubmatch(text)
	if match == nil {
		return time.Time{}, fmt.Errorf("%w in: %s", domain.ErrDateFormatInvalid, text)
	}

	published, err := time.Parse(headingDateLayout, strings.TrimSpace(match[1]))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w in: %s: %v", domain.ErrDateFormatInvalid, text, err)
	}
	return published, nil
}

func parseDetail(doc *goquery.Document) domain.Paper {
	paper := domain.Paper{Title: domain.MissingTitle}

	if title := doc.Find(titleSelector).First(); title.Length() > 0 {
		paper.Title = stripLabel(title.Text(), titlePrefix)
	}

	if abstract := doc.Find(abstractSelector).First(); abstract.Length() > 0 {
		paper.Abstract = stripLabel(abstract.Text(), abstractPrefix)
	}

	return paper
}

func stripLabel(text, label string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, label)
	return strings.TrimSpace(text)
}

func (a *ArxivScanner) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
