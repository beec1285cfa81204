package domain

import (
	"strings"
	"time"
)

// MissingTitle is stored when a detail page carries no title element.
const MissingTitle = "No title found"

// ListingMode selects which arXiv listing a run reads.
type ListingMode string

const (
	// ModeNew reads the day's "new submissions" page and names output by its date.
	ModeNew ListingMode = "new"
	// ModeRecent reads the rolling "recent" window and names output by run time.
	ModeRecent ListingMode = "recent"
)

// Valid reports whether the mode is one of the supported listing modes.
func (m ListingMode) Valid() bool {
	return m == ModeNew || m == ModeRecent
}

// Listing is the parsed content of a listing page.
type Listing struct {
	URL string
	// Papers keeps detail-page URLs in document order.
	Papers      []string
	PublishedOn *time.Time
}

// Paper is what a detail page yields. An empty Abstract means the page has none.
type Paper struct {
	URL      string
	Title    string
	Abstract string
}

// HasAbstract reports whether the detail page carried an abstract.
func (p Paper) HasAbstract() bool {
	return p.Abstract != ""
}

// Entry is one translated record handed to the recorder.
type Entry struct {
	SourceURL  string
	Title      string
	Original   string
	Translated string
}

// PDFURL rewrites an abstract-page URL into its downloadable document form.
func PDFURL(absURL string) string {
	return strings.Replace(absURL, "/abs/", "/pdf/", 1) + ".pdf"
}
