package query

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Limits imposed by the remote provider per request.
const (
	MaxQueryLength       = 500
	MaxSourcesPerRequest = 20
	MaxPageSize          = 100
)

// Allow-lists as documented by the provider. Validation is case-insensitive
// against these values.
var (
	AllowedSearchIn   = []string{"title", "description", "content"}
	AllowedSortBy     = []string{"relevancy", "popularity", "publishedAt"}
	AllowedCategories = []string{"business", "entertainment", "general", "health", "science", "sports", "technology"}
	AllowedLanguages  = []string{"ar", "de", "en", "es", "fr", "he", "it", "nl", "no", "pt", "ru", "sv", "ud", "zh"}
	AllowedCountries  = []string{
		"ae", "ar", "at", "au", "be", "bg", "br", "ca", "ch", "cn", "co", "cu", "cz", "de",
		"eg", "fr", "gb", "gr", "hk", "hu", "id", "ie", "il", "in", "it", "jp", "kr", "lt",
		"lv", "ma", "mx", "my", "ng", "nl", "no", "nz", "ph", "pl", "pt", "ro", "rs", "ru",
		"sa", "se", "sg", "si", "sk", "th", "tr", "tw", "ua", "us", "ve", "za",
	}
)

var hostnameRE = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)

var logger = log.New(log.Writer(), "[QUERY] ", log.LstdFlags)

// Params carries raw, user-supplied query fields before validation.
// Dates are ISO-8601 strings; everything else is passed through as-is.
type Params struct {
	Q              string
	SearchIn       []string
	Sources        []string
	Domains        []string
	ExcludeDomains []string
	From           string
	To             string
	SortBy         string
	Languages      []string
	Countries      []string
	Categories     []string
	PageSize       int
	MaxResults     int
}

// UserQuery is the sanitized, potentially multi-valued request. After
// construction every multi-valued field is either nil ("all") or a non-empty
// deduplicated subset of its allow-list.
type UserQuery struct {
	Q              string    `json:"q,omitempty"`
	SearchIn       []string  `json:"searchIn,omitempty"`
	Sources        []string  `json:"sources,omitempty"`
	Domains        []string  `json:"domains,omitempty"`
	ExcludeDomains []string  `json:"excludeDomains,omitempty"`
	From           time.Time `json:"from,omitempty"`
	To             time.Time `json:"to,omitempty"`
	SortBy         string    `json:"sortBy,omitempty"`
	Languages      []string  `json:"languages,omitempty"`
	Countries      []string  `json:"countries,omitempty"`
	Categories     []string  `json:"categories,omitempty"`
	PageSize       int       `json:"pageSize"`
	MaxResults     int       `json:"max_results"`
}

// New validates and canonicalizes raw params into a UserQuery. Only malformed
// date strings are fatal; every other invalid value is dropped or clamped with
// a logged warning.
func New(p Params) (*UserQuery, error) {
	q := p.Q
	if utf8.RuneCountInString(q) > MaxQueryLength {
		runes := []rune(q)
		logger.Printf("query string truncated from %d to %d characters", len(runes), MaxQueryLength)
		q = string(runes[:MaxQueryLength])
	}

	from, err := parseDate(p.From)
	if err != nil {
		return nil, fmt.Errorf("invalid from date %q: %w", p.From, err)
	}
	to, err := parseDate(p.To)
	if err != nil {
		return nil, fmt.Errorf("invalid to date %q: %w", p.To, err)
	}

	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = MaxPageSize
	} else if pageSize > MaxPageSize {
		logger.Printf("page size %d clamped to %d", pageSize, MaxPageSize)
		pageSize = MaxPageSize
	}
	maxResults := p.MaxResults
	if maxResults <= 0 {
		maxResults = MaxPageSize
	}

	return &UserQuery{
		Q:              q,
		SearchIn:       filterAllowList("searchIn", p.SearchIn, AllowedSearchIn),
		Sources:        dedupe(p.Sources),
		Domains:        filterDomains("domains", p.Domains),
		ExcludeDomains: filterDomains("excludeDomains", p.ExcludeDomains),
		From:           from,
		To:             to,
		SortBy:         filterSortBy(p.SortBy),
		Languages:      filterAllowList("languages", p.Languages, AllowedLanguages),
		Countries:      filterAllowList("countries", p.Countries, AllowedCountries),
		Categories:     filterAllowList("categories", p.Categories, AllowedCategories),
		PageSize:       pageSize,
		MaxResults:     maxResults,
	}, nil
}

// filterAllowList keeps entries present in the allow-list (case-insensitively),
// dropping invalid ones and duplicates. An empty result is nil ("all"); so is a
// result covering the complete allow-list, since filtering on every permitted
// value is a no-op and omitting it matches the provider's default behaviour.
func filterAllowList(field string, values, allow []string) []string {
	if len(values) == 0 {
		return nil
	}
	allowed := make(map[string]string, len(allow))
	for _, a := range allow {
		allowed[strings.ToLower(a)] = a
	}
	var out []string
	seen := make(map[string]struct{})
	for _, v := range values {
		canonical, ok := allowed[strings.ToLower(strings.TrimSpace(v))]
		if !ok {
			logger.Printf("dropping invalid %s value %q", field, v)
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	if len(out) == 0 {
		return nil
	}
	if len(out) == len(allow) {
		return nil
	}
	return out
}

func filterDomains(field string, values []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, v := range values {
		d := strings.ToLower(strings.TrimSpace(v))
		if !hostnameRE.MatchString(d) {
			logger.Printf("dropping invalid %s entry %q", field, v)
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

func filterSortBy(v string) string {
	if v == "" {
		return ""
	}
	for _, s := range AllowedSortBy {
		if strings.EqualFold(v, s) {
			return s
		}
	}
	logger.Printf("dropping invalid sortBy value %q", v)
	return ""
}

func dedupe(values []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("not an ISO-8601 date")
}
