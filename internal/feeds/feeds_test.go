package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/seenimoa/sastocks/internal/ingest"
	"github.com/seenimoa/sastocks/internal/logging"
	"github.com/seenimoa/sastocks/internal/store"
	"github.com/seenimoa/sastocks/pkg/models"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Yahoo! Finance: AAPL News</title>
  <item>
    <title>Apple beats estimates</title>
    <link>https://x/beat</link>
    <description>&lt;p&gt;Strong &lt;b&gt;iPhone&lt;/b&gt; sales&lt;/p&gt;</description>
    <pubDate>Tue, 30 Mar 2021 14:00:00 +0000</pubDate>
    <category>earnings</category>
    <category>iphone</category>
  </item>
  <item>
    <title>Old news</title>
    <link>https://x/old</link>
    <pubDate>Mon, 29 Mar 2021 09:00:00 +0000</pubDate>
  </item>
  <item>
    <title>No date</title>
    <link>https://x/undated</link>
  </item>
  <item>
    <title>No link</title>
    <pubDate>Tue, 30 Mar 2021 15:00:00 +0000</pubDate>
  </item>
</channel>
</rss>`

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func newFeedServer(t *testing.T, body string) (*httptest.Server, *atomic.Int32, *atomic.Value) {
	t.Helper()
	calls := &atomic.Int32{}
	query := &atomic.Value{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		query.Store(r.URL.Query().Get("s"))
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, calls, query
}

// ════════════════════════════════════════════════════════════════════
// Source
// ════════════════════════════════════════════════════════════════════

func TestFeedURL(t *testing.T) {
	s := New(Options{URLTemplate: "https://feeds.example/rss?s={ticker}&lang=en"}, logging.Discard())
	if got := s.FeedURL("BRK B"); got != "https://feeds.example/rss?s=BRK+B&lang=en" {
		t.Errorf("FeedURL: got %q", got)
	}
}

func TestArticlesFiltersAndNormalises(t *testing.T) {
	srv, _, query := newFeedServer(t, sampleRSS)
	s := New(Options{URLTemplate: srv.URL + "/rss?s={ticker}"}, logging.Discard())

	arts, err := s.Articles(context.Background(), models.Symbol{ID: 1, Ticker: "AAPL"}, "2021-03-30")
	if err != nil {
		t.Fatalf("Articles: %v", err)
	}
	if q, _ := query.Load().(string); q != "AAPL" {
		t.Errorf("ticker param: got %q, want AAPL", q)
	}
	if len(arts) != 1 {
		t.Fatalf("articles: got %d, want 1 (%+v)", len(arts), arts)
	}

	a := arts[0]
	if a.URL != "https://x/beat" {
		t.Errorf("URL: got %q", a.URL)
	}
	if a.PublishedOn != "2021-03-30" {
		t.Errorf("PublishedOn: got %q", a.PublishedOn)
	}
	if a.Description != "<p>Strong <b>iPhone</b> sales</p>" {
		t.Errorf("Description: got %q", a.Description)
	}
	if a.Keywords != "earnings, iphone" {
		t.Errorf("Keywords: got %q", a.Keywords)
	}
	if a.Author != models.UnknownName {
		t.Errorf("Author: got %q", a.Author)
	}
	if a.Publisher != "Yahoo! Finance: AAPL News" {
		t.Errorf("Publisher: got %q", a.Publisher)
	}
}

func TestArticlesCachesFeed(t *testing.T) {
	srv, calls, _ := newFeedServer(t, sampleRSS)
	s := New(Options{URLTemplate: srv.URL + "/rss?s={ticker}"}, logging.Discard())
	sym := models.Symbol{ID: 1, Ticker: "AAPL"}

	for _, day := range []string{"2021-03-29", "2021-03-30"} {
		if _, err := s.Articles(context.Background(), sym, day); err != nil {
			t.Fatalf("Articles(%s): %v", day, err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("requests: got %d, want 1", calls.Load())
	}
}

func TestArticlesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	s := New(Options{URLTemplate: srv.URL + "/{ticker}"}, logging.Discard())

	if _, err := s.Articles(context.Background(), models.Symbol{Ticker: "AAPL"}, "2021-03-30"); err == nil {
		t.Error("expected error for HTTP 503")
	}
}

func TestArticlesMalformedFeed(t *testing.T) {
	srv, _, _ := newFeedServer(t, "not a feed")
	s := New(Options{URLTemplate: srv.URL + "/{ticker}"}, logging.Discard())

	if _, err := s.Articles(context.Background(), models.Symbol{Ticker: "AAPL"}, "2021-03-30"); err == nil {
		t.Error("expected parse error")
	}
}

// ════════════════════════════════════════════════════════════════════
// Ingestion through the feed source
// ════════════════════════════════════════════════════════════════════

func TestFeedItemsDedupAgainstStoredArticles(t *testing.T) {
	srv, _, _ := newFeedServer(t, sampleRSS)
	st, err := store.Open(store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	ctx := context.Background()

	sym := &models.Symbol{Ticker: "AAPL", Name: "Apple Inc."}
	if err := st.CreateSymbol(ctx, sym); err != nil {
		t.Fatalf("CreateSymbol: %v", err)
	}
	// Already ingested from the provider.
	if err := st.CreateArticle(ctx, &models.Article{URL: "https://x/beat", Title: "provider copy", PublishedOn: "2021-03-30", SymbolID: sym.ID}); err != nil {
		t.Fatalf("CreateArticle: %v", err)
	}

	src := New(Options{URLTemplate: srv.URL + "/rss?s={ticker}"}, logging.Discard())
	ing := ingest.NewNewsIngestor(src, st, 1, logging.Discard())

	rep, err := ing.PullNews(ctx, "2021-03-29", "2021-03-30")
	if err != nil {
		t.Fatalf("PullNews: %v", err)
	}
	if rep.Created != 1 {
		t.Errorf("created: got %d, want 1 (https://x/old)", rep.Created)
	}
	if rep.Skipped != 2 {
		t.Errorf("skipped: got %d, want 2", rep.Skipped)
	}

	stored, err := st.ArticleByURL(ctx, "https://x/beat")
	if err != nil || stored == nil {
		t.Fatalf("ArticleByURL: a=%v err=%v", stored, err)
	}
	if stored.Title != "provider copy" {
		t.Errorf("existing article overwritten: title %q", stored.Title)
	}
}
