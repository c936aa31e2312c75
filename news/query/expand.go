package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"newsagent/models"
)

// SearchRequest is a single API-legal request against the full-text search
// endpoint: one language at most, at most MaxSourcesPerRequest sources.
// Instances are produced only by expansion.
type SearchRequest struct {
	Q              string
	SearchIn       []string
	Sources        []string
	Domains        []string
	ExcludeDomains []string
	From           time.Time
	To             time.Time
	Language       string
	SortBy         string
	PageSize       int
	Page           int
}

// HeadlinesRequest is a single API-legal request against the top-headlines
// endpoint. Sources are mutually exclusive with country/category.
type HeadlinesRequest struct {
	Q        string
	Country  string
	Category string
	Sources  []string
	PageSize int
	Page     int
}

// SourcesRequest is a filter triple for the sources endpoint; any or all
// fields may be absent.
type SourcesRequest struct {
	Category string
	Language string
	Country  string
}

func (r SearchRequest) Values() url.Values {
	v := url.Values{}
	v.Set("q", r.Q)
	if len(r.SearchIn) > 0 {
		v.Set("searchIn", strings.Join(r.SearchIn, ","))
	}
	if len(r.Sources) > 0 {
		v.Set("sources", strings.Join(r.Sources, ","))
	}
	if len(r.Domains) > 0 {
		v.Set("domains", strings.Join(r.Domains, ","))
	}
	if len(r.ExcludeDomains) > 0 {
		v.Set("excludeDomains", strings.Join(r.ExcludeDomains, ","))
	}
	if !r.From.IsZero() {
		v.Set("from", r.From.Format(time.RFC3339))
	}
	if !r.To.IsZero() {
		v.Set("to", r.To.Format(time.RFC3339))
	}
	if r.Language != "" {
		v.Set("language", r.Language)
	}
	if r.SortBy != "" {
		v.Set("sortBy", r.SortBy)
	}
	v.Set("pageSize", strconv.Itoa(r.PageSize))
	v.Set("page", strconv.Itoa(r.Page))
	return v
}

func (r HeadlinesRequest) Values() url.Values {
	v := url.Values{}
	if r.Q != "" {
		v.Set("q", r.Q)
	}
	if r.Country != "" {
		v.Set("country", r.Country)
	}
	if r.Category != "" {
		v.Set("category", r.Category)
	}
	if len(r.Sources) > 0 {
		v.Set("sources", strings.Join(r.Sources, ","))
	}
	v.Set("pageSize", strconv.Itoa(r.PageSize))
	v.Set("page", strconv.Itoa(r.Page))
	return v
}

func (r SourcesRequest) Values() url.Values {
	v := url.Values{}
	if r.Category != "" {
		v.Set("category", r.Category)
	}
	if r.Language != "" {
		v.Set("language", r.Language)
	}
	if r.Country != "" {
		v.Set("country", r.Country)
	}
	return v
}

// ExpandSearch translates the multi-valued query into an ordered sequence of
// search requests: one per {language} x {source chunk} combination. Unioning
// the results of the sequence is equivalent to one multi-valued request
// against a provider that supported multi-valued fields natively.
func (q *UserQuery) ExpandSearch() ([]SearchRequest, error) {
	if q.Q == "" {
		return nil, models.ErrMissingQuery
	}
	var out []SearchRequest
	for _, lang := range orPlaceholder(q.Languages) {
		for _, sources := range chunkOrPlaceholder(q.Sources, MaxSourcesPerRequest) {
			out = append(out, SearchRequest{
				Q:              q.Q,
				SearchIn:       q.SearchIn,
				Sources:        sources,
				Domains:        q.Domains,
				ExcludeDomains: q.ExcludeDomains,
				From:           q.From,
				To:             q.To,
				Language:       lang,
				SortBy:         q.SortBy,
				PageSize:       q.PageSize,
				Page:           1,
			})
		}
	}
	return out, nil
}

// ExpandHeadlines translates the query into top-headlines requests. When
// sources are present they are chunked and country/category omitted (the
// provider forbids combining them); otherwise one request per
// {country} x {category} combination, skipping the fully unfiltered one.
func (q *UserQuery) ExpandHeadlines() []HeadlinesRequest {
	var out []HeadlinesRequest
	if len(q.Sources) > 0 {
		for _, sources := range chunk(q.Sources, MaxSourcesPerRequest) {
			out = append(out, HeadlinesRequest{Q: q.Q, Sources: sources, PageSize: q.PageSize, Page: 1})
		}
		return out
	}
	for _, country := range orPlaceholder(q.Countries) {
		for _, category := range orPlaceholder(q.Categories) {
			if country == "" && category == "" && q.Q == "" {
				// The provider requires at least one filter.
				continue
			}
			out = append(out, HeadlinesRequest{Q: q.Q, Country: country, Category: category, PageSize: q.PageSize, Page: 1})
		}
	}
	return out
}

// ExpandSources translates the query into sources requests, one per
// {category} x {language} x {country} combination. All absent yields a single
// unfiltered request.
func (q *UserQuery) ExpandSources() []SourcesRequest {
	var out []SourcesRequest
	for _, category := range orPlaceholder(q.Categories) {
		for _, lang := range orPlaceholder(q.Languages) {
			for _, country := range orPlaceholder(q.Countries) {
				out = append(out, SourcesRequest{Category: category, Language: lang, Country: country})
			}
		}
	}
	return out
}

// orPlaceholder returns the list itself, or a single "unspecified" placeholder
// when it is empty, so cartesian iteration always makes progress.
func orPlaceholder(list []string) []string {
	if len(list) == 0 {
		return []string{""}
	}
	return list
}

func chunk(list []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(list); start += size {
		end := start + size
		if end > len(list) {
			end = len(list)
		}
		out = append(out, list[start:end])
	}
	return out
}

func chunkOrPlaceholder(list []string, size int) [][]string {
	if len(list) == 0 {
		return [][]string{nil}
	}
	return chunk(list, size)
}
