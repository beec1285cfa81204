package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArxivTranslator/internal/config"
	"ArxivTranslator/internal/domain"
	"ArxivTranslator/internal/logging"
)

const listingPage = `<html><body>
<h3>New submissions for Monday, 3 June 2024 (showing 2 of 2 entries)</h3>
<dl>
  <dt><a href="/abs/2406.00001" title="Abstract">arXiv:2406.00001</a></dt>
  <dt><a href="/abs/2406.00002" title="Abstract">arXiv:2406.00002</a></dt>
</dl>
</body></html>`

type arxivStub struct {
	server      *httptest.Server
	detailHits  atomic.Int32
	chatHits    atomic.Int32
	listingHits atomic.Int32
}

func newArxivStub(t *testing.T) *arxivStub {
	t.Helper()

	stub := &arxivStub{}
	mux := http.NewServeMux()
	mux.HandleFunc("/list/cs.RO/new", func(w http.ResponseWriter, r *http.Request) {
		stub.listingHits.Add(1)
		_, _ = w.Write([]byte(listingPage))
	})
	mux.HandleFunc("/abs/2406.00001", func(w http.ResponseWriter, r *http.Request) {
		stub.detailHits.Add(1)
		_, _ = w.Write([]byte(`<h1 class="title mathjax">Title: Grasping</h1>
			<blockquote class="abstract mathjax">Abstract: We grasp things.</blockquote>`))
	})
	mux.HandleFunc("/abs/2406.00002", func(w http.ResponseWriter, r *http.Request) {
		stub.detailHits.Add(1)
		_, _ = w.Write([]byte(`<h1 class="title mathjax">Title: Withdrawn</h1>`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		stub.chatHits.Add(1)
		if r.Header.Get("Authorization") != "Bearer test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"우리는 물건을 잡는다."}}]}`))
	})
	stub.server = httptest.NewServer(mux)
	t.Cleanup(stub.server.Close)
	return stub
}

func testConfig(t *testing.T, stub *arxivStub) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		Logging: config.LoggingConfig{Level: "error"},
		Arxiv: config.ArxivConfig{
			BaseURL:  stub.server.URL,
			Timeout:  5 * time.Second,
			Subjects: []config.SubjectConfig{{Code: "RO", Archive: "cs.RO"}},
		},
		ChatGPT: config.ChatGPTConfig{
			Endpoint: stub.server.URL + "/v1/chat/completions",
			Model:    "gpt-4o-mini",
			APIKey:   "test-key",
		},
		Output:  config.OutputConfig{Dir: filepath.Join(dir, "daily-db")},
		History: config.HistoryConfig{Driver: "sqlite3", DSN: filepath.Join(dir, "history.db")},
	}
}

func TestApplicationRunNewMode(t *testing.T) {
	t.Parallel()

	stub := newArxivStub(t)
	ctx := context.Background()
	cfg := testConfig(t, stub)

	application, err := New(ctx, cfg, logging.Discard())
	require.NoError(t, err)
	defer application.Close()

	summary, err := application.Run(ctx, "RO", domain.ModeNew, "", 0)
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "gpt-4o-mini", summary.Model)
	assert.Equal(t, filepath.Join(cfg.Output.Dir, "translated_abstracts_RO_2024-06-03_gpt-4o-mini.txt"), summary.OutputPath)
	assert.Equal(t, 1, summary.Count(domain.StatusTranslated))
	assert.Equal(t, 1, summary.Count(domain.StatusSkipped))
	assert.Equal(t, int32(1), stub.chatHits.Load())

	raw, err := os.ReadFile(summary.OutputPath)
	require.NoError(t, err)
	out := string(raw)
	assert.True(t, strings.HasPrefix(out, "URL:\n"+stub.server.URL+"/pdf/2406.00001.pdf\n\nTitle: Grasping\n\n"))
	assert.Contains(t, out, "Original Abstract:\nWe grasp things.\n\n")
	assert.Contains(t, out, "Translated Abstract:\n우리는 물건을 잡는다.\n\n")

	runs, err := application.History().RecentRuns(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, summary.RunID, runs[0].RunID)
	assert.Equal(t, "2024-06-03", runs[0].PublishedOn)

	// Second run for the same subject, date and model is already done.
	again, err := application.Run(ctx, "RO", domain.ModeNew, "", 0)
	require.NoError(t, err)
	assert.True(t, again.AlreadyDone)
	assert.Equal(t, int32(2), stub.detailHits.Load())
	assert.Equal(t, int32(1), stub.chatHits.Load())

	after, err := os.ReadFile(summary.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, out, string(after))
}

func TestApplicationWithoutHistory(t *testing.T) {
	t.Parallel()

	stub := newArxivStub(t)
	cfg := testConfig(t, stub)
	cfg.History = config.HistoryConfig{}

	application, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	assert.Nil(t, application.History())
	assert.NoError(t, application.Close())
}

func TestApplicationRejectsBadBaseURL(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), config.Config{Arxiv: config.ArxivConfig{BaseURL: "not a url"}}, logging.Discard())
	require.Error(t, err)
}
