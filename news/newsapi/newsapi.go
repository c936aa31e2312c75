package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"newsagent/news/query"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

var requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "newsagent_newsapi_requests_total",
	Help: "Number of HTTP requests issued to NewsAPI, by endpoint.",
}, []string{"endpoint"})

func init() {
	prometheus.MustRegister(requestsTotal)
}

// Article is one fetched news record. Identity key: URL.
type Article struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string    `json:"author,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"urlToImage,omitempty"`
	PublishedAt time.Time `json:"publishedAt,omitempty"`
	Content     string    `json:"content,omitempty"`
}

// Source is one news outlet known to the provider. Identity key: ID.
type Source struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Category    string `json:"category,omitempty"`
	Language    string `json:"language,omitempty"`
	Country     string `json:"country,omitempty"`
}

// ArticlesResult mirrors the provider's response envelope for article
// endpoints. A transport failure surfaces as Status "error" with no articles.
type ArticlesResult struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
}

// SourcesResult mirrors the provider's response envelope for the sources endpoint.
type SourcesResult struct {
	Status  string   `json:"status"`
	Sources []Source `json:"sources"`
}

type apiResponse struct {
	Status       string    `json:"status"`
	Code         string    `json:"code,omitempty"`
	Message      string    `json:"message,omitempty"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
	Sources      []Source  `json:"sources"`
}

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the NewsAPI endpoint family, expanding multi-valued user
// queries into API-legal requests and paginating each one.
type Client struct {
	apiKey   string
	endpoint string
	client   HTTPClient
	logger   *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the internal HTTP client (useful for tests).
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) { c.client = hc }
}

// WithLogger overrides the default logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a NewsAPI client. The endpoint defaults to the public v2 base
// URL when empty.
func New(apiKey, endpoint string, timeout time.Duration, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = "https://newsapi.org/v2"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   log.New(log.Writer(), "[NEWSAPI] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchEverything searches historical articles via the /everything endpoint,
// paginating every expanded request and merging the results. The only error
// return is a failed expansion (missing query string); provider and transport
// failures degrade to a Status "error" result.
func (c *Client) SearchEverything(ctx context.Context, uq *query.UserQuery) (ArticlesResult, error) {
	reqs, err := uq.ExpandSearch()
	if err != nil {
		return ArticlesResult{Status: StatusError, Articles: []Article{}}, err
	}
	descs := make([]paged, 0, len(reqs))
	for _, r := range reqs {
		descs = append(descs, paged{values: r.Values(), pageSize: r.PageSize})
	}
	return c.collectArticles(ctx, "everything", descs, uq.MaxResults), nil
}

// TopHeadlines fetches current headlines via the /top-headlines endpoint.
func (c *Client) TopHeadlines(ctx context.Context, uq *query.UserQuery) (ArticlesResult, error) {
	reqs := uq.ExpandHeadlines()
	descs := make([]paged, 0, len(reqs))
	for _, r := range reqs {
		descs = append(descs, paged{values: r.Values(), pageSize: r.PageSize})
	}
	return c.collectArticles(ctx, "top-headlines", descs, uq.MaxResults), nil
}

// Sources fetches the available outlets via the /top-headlines/sources
// endpoint. Sources are not paginated and not capped.
func (c *Client) Sources(ctx context.Context, uq *query.UserQuery) (SourcesResult, error) {
	var all []Source
	for _, r := range uq.ExpandSources() {
		resp, err := c.get(ctx, "top-headlines/sources", r.Values())
		if err != nil {
			c.logger.Printf("error fetching sources: %v", err)
			return SourcesResult{Status: StatusError, Sources: []Source{}}, nil
		}
		if resp.Status != StatusOK {
			c.logger.Printf("provider error: %s: %s", resp.Code, resp.Message)
			continue // skip this combination, try the next one
		}
		all = append(all, resp.Sources...)
	}
	merged := dedupeSources(all)
	c.logger.Printf("total: %d unique sources (removed %d duplicates)", len(merged), len(all)-len(merged))
	return SourcesResult{Status: StatusOK, Sources: merged}, nil
}

type paged struct {
	values   url.Values
	pageSize int
}

// collectArticles iterates the expanded request descriptors sequentially,
// paginating each one, then deduplicates by URL and truncates to maxResults.
func (c *Client) collectArticles(ctx context.Context, endpoint string, reqs []paged, maxResults int) ArticlesResult {
	var all []Article
	for _, req := range reqs {
		got, err := c.fetchPages(ctx, endpoint, req, len(all), maxResults)
		if err != nil {
			// Transport failures abandon the whole operation; callers see an
			// empty error result, never a crash.
			c.logger.Printf("error fetching from /%s: %v", endpoint, err)
			return ArticlesResult{Status: StatusError, Articles: []Article{}}
		}
		all = append(all, got...)
		c.logger.Printf("collected %d articles from this request variant", len(got))
		if len(all) >= maxResults {
			c.logger.Printf("reached max results limit of %d", maxResults)
			break
		}
	}

	merged := dedupeArticles(all)
	if len(merged) > maxResults {
		merged = merged[:maxResults]
		c.logger.Printf("truncated to max results limit of %d", maxResults)
	}
	c.logger.Printf("total: %d unique articles (removed %d duplicates)", len(merged), len(all)-len(merged))
	return ArticlesResult{Status: StatusOK, TotalResults: len(merged), Articles: merged}
}

// fetchPages paginates one expanded request. Pagination continues only while
// the last page was full, the provider-reported total has not been reached,
// and the global accumulation is still below maxResults. A provider error on
// page 1 abandons the request; on a later page, accumulated pages are kept.
func (c *Client) fetchPages(ctx context.Context, endpoint string, req paged, collected, maxResults int) ([]Article, error) {
	var articles []Article
	for page := 1; ; page++ {
		req.values.Set("page", fmt.Sprint(page))
		resp, err := c.get(ctx, endpoint, req.values)
		if err != nil {
			return nil, err
		}
		if resp.Status != StatusOK {
			c.logger.Printf("provider error: %s: %s", resp.Code, resp.Message)
			if page > 1 {
				c.logger.Printf("error on page %d, stopping pagination for this request", page)
			}
			break
		}
		articles = append(articles, resp.Articles...)
		c.logger.Printf("page %d: retrieved %d articles", page, len(resp.Articles))
		if len(resp.Articles) < req.pageSize ||
			len(articles) >= resp.TotalResults ||
			collected+len(articles) >= maxResults {
			break
		}
	}
	return articles, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (*apiResponse, error) {
	reqURL := fmt.Sprintf("%s/%s?%s", c.endpoint, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("User-Agent", "newsagent/1.0")

	requestsTotal.WithLabelValues(endpoint).Inc()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}
	defer resp.Body.Close()

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// dedupeArticles removes duplicates by URL, first-seen-wins. Records without
// a URL cannot be deduplicated and are dropped.
func dedupeArticles(in []Article) []Article {
	seen := make(map[string]struct{}, len(in))
	out := make([]Article, 0, len(in))
	for _, a := range in {
		if a.URL == "" {
			continue
		}
		if _, dup := seen[a.URL]; dup {
			continue
		}
		seen[a.URL] = struct{}{}
		out = append(out, a)
	}
	return out
}

// dedupeSources removes duplicates by source ID, first-seen-wins.
func dedupeSources(in []Source) []Source {
	seen := make(map[string]struct{}, len(in))
	out := make([]Source, 0, len(in))
	for _, s := range in {
		if s.ID == "" {
			continue
		}
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}
