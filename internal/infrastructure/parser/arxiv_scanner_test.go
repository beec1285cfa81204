package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArxivTranslator/internal/config"
	"ArxivTranslator/internal/domain"
)

const newListingHTML = `
<html><body>
  <h1>Robotics</h1>
  <h3>New submissions for Monday, 3 June 2024 (showing 3 of 3 entries)</h3>
  <dl>
    <dt>
      <a name="item1">[1]</a>
      <a href="/abs/2406.00001" title="Abstract">arXiv:2406.00001</a>
      [<a href="/pdf/2406.00001" title="Download PDF">pdf</a>]
    </dt>
    <dd><div class="list-title mathjax">Title: First</div></dd>
    <dt>
      <a href="/abs/2406.00002" title="Abstract">arXiv:2406.00002</a>
    </dt>
    <dd><div class="list-title mathjax">Title: Second</div></dd>
    <dt>
      <a href="https://arxiv.org/abs/2406.00003" title="Abstract">arXiv:2406.00003</a>
    </dt>
    <dd><div class="list-title mathjax">Title: Third</div></dd>
  </dl>
</body></html>`

const detailHTML = `
<html><body>
  <h1 class="title mathjax"><span class="descriptor">Title:</span>
    Learning to Grasp Anything
  </h1>
  <blockquote class="abstract mathjax">
    <span class="descriptor">Abstract:</span>
    We present a method for grasping.
  </blockquote>
</body></html>`

func mustDocument(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func mustOrigin(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestParseListingNewMode(t *testing.T) {
	t.Parallel()

	listing, err := parseListing(mustDocument(t, newListingHTML), domain.ModeNew, mustOrigin(t, "https://arxiv.org/"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://arxiv.org/abs/2406.00001",
		"https://arxiv.org/abs/2406.00002",
		"https://arxiv.org/abs/2406.00003",
	}, listing.Papers)

	require.NotNil(t, listing.PublishedOn)
	assert.Equal(t, time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC), *listing.PublishedOn)
}

func TestParseListingRecentModeIgnoresHeading(t *testing.T) {
	t.Parallel()

	html := `<h3>Fri, 7 Jun 2024 (showing 2 of 2 entries)</h3>
	<a href="/abs/1" title="Abstract">1</a>
	<a href="/abs/2" title="Other">2</a>
	<a href="/abs/3" title="Abstract">3</a>`

	listing, err := parseListing(mustDocument(t, html), domain.ModeRecent, mustOrigin(t, "https://arxiv.org/"))
	require.NoError(t, err)

	assert.Nil(t, listing.PublishedOn)
	assert.Equal(t, []string{"https://arxiv.org/abs/1", "https://arxiv.org/abs/3"}, listing.Papers)
}

func TestParseListingEmpty(t *testing.T) {
	t.Parallel()

	listing, err := parseListing(mustDocument(t, "<p>nothing here</p>"), domain.ModeRecent, mustOrigin(t, "https://arxiv.org/"))
	require.NoError(t, err)
	assert.NotNil(t, listing.Papers)
	assert.Empty(t, listing.Papers)
}

func TestParseHeadingDateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want error
	}{
		{"no heading", `<h1>Robotics</h1>`, domain.ErrDateNotFound},
		{"no phrase", `<h3>Replacement submissions (showing 4 of 4 entries)</h3>`, domain.ErrDateFormatInvalid},
		{"bad date", `<h3>New submissions for Someday, 33 Smarch 2024 (showing 1 of 1 entries)</h3>`, domain.ErrDateFormatInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseListing(mustDocument(t, tt.html), domain.ModeNew, mustOrigin(t, "https://arxiv.org/"))
			require.ErrorIs(t, err, tt.want)
			assert.True(t, domain.IsListingDateError(err))
		})
	}
}

func TestParseDetail(t *testing.T) {
	t.Parallel()

	paper := parseDetail(mustDocument(t, detailHTML))

	assert.Equal(t, "Learning to Grasp Anything", paper.Title)
	assert.Equal(t, "We present a method for grasping.", paper.Abstract)
	assert.True(t, paper.HasAbstract())
}

func TestParseDetailWithoutAbstract(t *testing.T) {
	t.Parallel()

	paper := parseDetail(mustDocument(t, `<h1 class="title mathjax">Title: Withdrawn Paper</h1>`))

	assert.Equal(t, "Withdrawn Paper", paper.Title)
	assert.False(t, paper.HasAbstract())
}

func TestParseDetailWithoutTitle(t *testing.T) {
	t.Parallel()

	paper := parseDetail(mustDocument(t, `<blockquote class="abstract mathjax">Abstract: Only text.</blockquote>`))

	assert.Equal(t, domain.MissingTitle, paper.Title)
	assert.Equal(t, "Only text.", paper.Abstract)
}

func TestArxivScannerFetch(t *testing.T) {
	t.Parallel()

	var (
		mu         sync.Mutex
		userAgents []string
	)
	serve := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			userAgents = append(userAgents, r.UserAgent())
			mu.Unlock()
			_, _ = w.Write([]byte(body))
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/list/cs.RO/new", serve(newListingHTML))
	mux.HandleFunc("/abs/2406.00001", serve(detailHTML))
	server := httptest.NewServer(mux)
	defer server.Close()

	sc, err := NewArxivScanner(server.Client(), config.ArxivConfig{BaseURL: server.URL, UserAgent: "test-agent"}, nil)
	require.NoError(t, err)

	ctx := context.Background()
	listing, err := sc.FetchListing(ctx, server.URL+"/list/cs.RO/new", domain.ModeNew)
	require.NoError(t, err)
	require.Len(t, listing.Papers, 3)
	assert.Equal(t, server.URL+"/abs/2406.00001", listing.Papers[0])
	assert.Equal(t, "https://arxiv.org/abs/2406.00003", listing.Papers[2])
	assert.Equal(t, server.URL+"/list/cs.RO/new", listing.URL)

	paper, err := sc.FetchDetail(ctx, listing.Papers[0])
	require.NoError(t, err)
	assert.Equal(t, listing.Papers[0], paper.URL)
	assert.Equal(t, "Learning to Grasp Anything", paper.Title)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"test-agent", "test-agent"}, userAgents)
}

func TestArxivScannerFetchNonOK(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	sc, err := NewArxivScanner(server.Client(), config.ArxivConfig{BaseURL: server.URL}, nil)
	require.NoError(t, err)

	_, err = sc.FetchListing(context.Background(), server.URL+"/list/cs.CV/recent", domain.ModeRecent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	_, err = sc.FetchDetail(context.Background(), server.URL+"/abs/1")
	require.Error(t, err)
}

func TestNewArxivScannerRejectsRelativeBase(t *testing.T) {
	t.Parallel()

	_, err := NewArxivScanner(nil, config.ArxivConfig{BaseURL: "arxiv.org"}, nil)
	require.Error(t, err)
}
