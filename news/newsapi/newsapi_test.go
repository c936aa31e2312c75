package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"newsagent/models"
	"newsagent/news/query"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func mustQuery(t *testing.T, p query.Params) *query.UserQuery {
	t.Helper()
	uq, err := query.New(p)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return uq
}

func article(n int) Article {
	return Article{
		Title: fmt.Sprintf("title %d", n),
		URL:   fmt.Sprintf("https://example.com/%d", n),
	}
}

func articlesPage(from, count int) []Article {
	out := make([]Article, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, article(from+i))
	}
	return out
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestSearchEverythingMissingQuery(t *testing.T) {
	c := New("key", "http://unused", 0, WithLogger(testLogger()))
	_, err := c.SearchEverything(context.Background(), mustQuery(t, query.Params{Languages: []string{"en"}}))
	if !errors.Is(err, models.ErrMissingQuery) {
		t.Fatalf("expected ErrMissingQuery, got %v", err)
	}
}

func TestSearchEverythingPaginates(t *testing.T) {
	// 2 full pages of 100 then a short page of 50; total 250.
	var pagesServed []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/everything" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "key" {
			t.Errorf("X-Api-Key = %q", got)
		}
		page := r.URL.Query().Get("page")
		pagesServed = append(pagesServed, page)
		switch page {
		case "1":
			writeJSON(t, w, ArticlesResult{Status: "ok", TotalResults: 250, Articles: articlesPage(0, 100)})
		case "2":
			writeJSON(t, w, ArticlesResult{Status: "ok", TotalResults: 250, Articles: articlesPage(100, 100)})
		case "3":
			writeJSON(t, w, ArticlesResult{Status: "ok", TotalResults: 250, Articles: articlesPage(200, 50)})
		default:
			t.Errorf("unexpected page %s", page)
		}
	}))
	defer ts.Close()

	c := New("key", ts.URL, 0, WithLogger(testLogger()))
	uq := mustQuery(t, query.Params{Q: "ai", MaxResults: 300})
	result, err := c.SearchEverything(context.Background(), uq)
	if err != nil {
		t.Fatalf("SearchEverything: %v", err)
	}
	if result.Status != StatusOK {
		t.Fatalf("status = %q", result.Status)
	}
	if len(pagesServed) != 3 {
		t.Fatalf("pages served = %v, want 3 pages", pagesServed)
	}
	if result.TotalResults != 250 || len(result.Articles) != 250 {
		t.Fatalf("got %d articles (total %d), want 250", len(result.Articles), result.TotalResults)
	}
}

func TestSearchEverythingStopsAtMaxResults(t *testing.T) {
	requests := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeJSON(t, w, ArticlesResult{Status: "ok", TotalResults: 1000, Articles: articlesPage((requests-1)*100, 100)})
	}))
	defer ts.Close()

	c := New("key", ts.URL, 0, WithLogger(testLogger()))
	uq := mustQuery(t, query.Params{Q: "ai", MaxResults: 150})
	result, err := c.SearchEverything(context.Background(), uq)
	if err != nil {
		t.Fatalf("SearchEverything: %v", err)
	}
	if requests != 2 {
		t.Fatalf("issued %d requests, want 2", requests)
	}
	if len(result.Articles) != 150 {
		t.Fatalf("got %d articles, want truncation to 150", len(result.Articles))
	}
}

func TestSearchEverythingDeduplicates(t *testing.T) {
	// Two languages produce two request variants returning overlapping pages.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, ArticlesResult{Status: "ok", TotalResults: 3, Articles: []Article{
			article(1), article(2), {Title: "keyless"},
		}})
	}))
	defer ts.Close()

	c := New("key", ts.URL, 0, WithLogger(testLogger()))
	uq := mustQuery(t, query.Params{Q: "ai", Languages: []string{"en", "de"}})
	result, err := c.SearchEverything(context.Background(), uq)
	if err != nil {
		t.Fatalf("SearchEverything: %v", err)
	}
	if len(result.Articles) != 2 {
		t.Fatalf("got %d articles, want 2 after dedup and keyless drop", len(result.Articles))
	}
	if result.Articles[0].URL != "https://example.com/1" {
		t.Errorf("first article = %q, first-seen order not preserved", result.Articles[0].URL)
	}
}

func TestSearchEverythingProviderErrorFirstPage(t *testing.T) {
	// First variant fails on page 1, second succeeds; the failed variant is
	// abandoned without killing the operation.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("language") == "en" {
			writeJSON(t, w, map[string]string{"status": "error", "code": "rateLimited", "message": "slow down"})
			return
		}
		writeJSON(t, w, ArticlesResult{Status: "ok", TotalResults: 1, Articles: []Article{article(1)}})
	}))
	defer ts.Close()

	c := New("key", ts.URL, 0, WithLogger(testLogger()))
	uq := mustQuery(t, query.Params{Q: "ai", Languages: []string{"en", "de"}})
	result, err := c.SearchEverything(context.Background(), uq)
	if err != nil {
		t.Fatalf("SearchEverything: %v", err)
	}
	if result.Status != StatusOK || len(result.Articles) != 1 {
		t.Fatalf("got status %q with %d articles, want ok with 1", result.Status, len(result.Articles))
	}
}

func TestSearchEverythingProviderErrorLaterPageKeepsPartial(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			writeJSON(t, w, ArticlesResult{Status: "ok", TotalResults: 200, Articles: articlesPage(0, 100)})
			return
		}
		writeJSON(t, w, map[string]string{"status": "error", "code": "rateLimited", "message": "slow down"})
	}))
	defer ts.Close()

	c := New("key", ts.URL, 0, WithLogger(testLogger()))
	uq := mustQuery(t, query.Params{Q: "ai", MaxResults: 200})
	result, err := c.SearchEverything(context.Background(), uq)
	if err != nil {
		t.Fatalf("SearchEverything: %v", err)
	}
	if result.Status != StatusOK || len(result.Articles) != 100 {
		t.Fatalf("got status %q with %d articles, want partial page kept", result.Status, len(result.Articles))
	}
}

type failingTransport struct{}

func (failingTransport) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestSearchEverythingTransportError(t *testing.T) {
	c := New("key", "http://unreachable", 0, WithHTTPClient(failingTransport{}), WithLogger(testLogger()))
	result, err := c.SearchEverything(context.Background(), mustQuery(t, query.Params{Q: "ai"}))
	if err != nil {
		t.Fatalf("transport failures must not surface as errors, got %v", err)
	}
	if result.Status != StatusError {
		t.Fatalf("status = %q, want error", result.Status)
	}
	if len(result.Articles) != 0 {
		t.Fatalf("expected empty result, got %d articles", len(result.Articles))
	}
}

func TestTopHeadlinesExpandsCombinations(t *testing.T) {
	var seen []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Query().Get("country")+"/"+r.URL.Query().Get("category"))
		writeJSON(t, w, ArticlesResult{Status: "ok", TotalResults: 1, Articles: []Article{
			article(len(seen)),
		}})
	}))
	defer ts.Close()

	c := New("key", ts.URL, 0, WithLogger(testLogger()))
	uq := mustQuery(t, query.Params{Countries: []string{"us", "gb"}, Categories: []string{"technology"}})
	result, err := c.TopHeadlines(context.Background(), uq)
	if err != nil {
		t.Fatalf("TopHeadlines: %v", err)
	}
	want := []string{"us/technology", "gb/technology"}
	if len(seen) != 2 || seen[0] != want[0] || seen[1] != want[1] {
		t.Fatalf("requests = %v, want %v", seen, want)
	}
	if len(result.Articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(result.Articles))
	}
}

func TestSourcesDeduplicatesAndSkipsFailedCombos(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/top-headlines/sources" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		calls++
		if r.URL.Query().Get("category") == "health" {
			writeJSON(t, w, map[string]string{"status": "error", "code": "parameterInvalid", "message": "bad combo"})
			return
		}
		writeJSON(t, w, SourcesResult{Status: "ok", Sources: []Source{
			{ID: "bbc-news", Name: "BBC News"},
			{ID: "cnn", Name: "CNN"},
			{Name: "keyless"},
		}})
	}))
	defer ts.Close()

	c := New("key", ts.URL, 0, WithLogger(testLogger()))
	uq := mustQuery(t, query.Params{Categories: []string{"science", "health"}, Languages: []string{"en", "de"}})
	result, err := c.Sources(context.Background(), uq)
	if err != nil {
		t.Fatalf("Sources: %v", err)
	}
	if calls != 4 {
		t.Fatalf("issued %d requests, want 4 combinations", calls)
	}
	if result.Status != StatusOK {
		t.Fatalf("status = %q", result.Status)
	}
	if len(result.Sources) != 2 {
		t.Fatalf("got %d sources, want 2 unique with key", len(result.Sources))
	}
}
