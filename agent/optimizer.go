package agent

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"newsagent/news/query"
	"newsagent/provider"
)

const optimizerSystemPrompt = `
You are a news search query optimizer. Your role is to convert a natural
language request into structured search queries for a news API.

RULES:
1. Generate between one and three focused queries
2. Keep query strings short and keyword-based
3. Only set fields you are confident about
4. Dates must be ISO-8601 (YYYY-MM-DD)

RESPONSE FORMAT:
Respond ONLY with valid JSON in the following format:
[
  {
    "q": "keyword query",
    "languages": ["en"],
    "from_date": "2026-01-01",
    "to_date": "2026-01-31",
    "sortBy": "publishedAt"
  }
]
Do not include any other text or explanation.
`

// QueryOptimizer asks the model to turn raw user text into structured search
// queries. Any failure falls back to a single unoptimized query built from
// the raw text.
type QueryOptimizer struct {
	llm    provider.Provider
	logger *log.Logger
}

// NewQueryOptimizer creates an optimizer backed by the given provider.
func NewQueryOptimizer(llm provider.Provider, logger *log.Logger) *QueryOptimizer {
	if logger == nil {
		logger = log.New(log.Writer(), "[OPTIMIZER] ", log.LstdFlags)
	}
	return &QueryOptimizer{llm: llm, logger: logger}
}

type optimizedQuery struct {
	Q         string   `json:"q"`
	Languages []string `json:"languages"`
	FromDate  string   `json:"from_date"`
	ToDate    string   `json:"to_date"`
	SortBy    string   `json:"sortBy"`
}

// Optimize returns structured queries for the raw user input. It never fails:
// on any optimizer or parse error it returns the single fallback query.
func (o *QueryOptimizer) Optimize(ctx context.Context, userInput string) []*query.UserQuery {
	raw, err := o.llm.Complete(ctx, optimizerSystemPrompt, userInput)
	if err != nil {
		o.logger.Printf("optimizer call failed, falling back to raw query: %v", err)
		return o.fallback(userInput)
	}

	var parsed []optimizedQuery
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil || len(parsed) == 0 {
		o.logger.Printf("optimizer returned unparseable response, falling back to raw query")
		return o.fallback(userInput)
	}

	var out []*query.UserQuery
	for _, p := range parsed {
		uq, err := query.New(query.Params{
			Q:         p.Q,
			Languages: p.Languages,
			From:      p.FromDate,
			To:        p.ToDate,
			SortBy:    p.SortBy,
		})
		if err != nil {
			o.logger.Printf("dropping optimized query with invalid dates: %v", err)
			continue
		}
		if uq.Q == "" {
			continue
		}
		out = append(out, uq)
	}
	if len(out) == 0 {
		return o.fallback(userInput)
	}
	return out
}

func (o *QueryOptimizer) fallback(userInput string) []*query.UserQuery {
	uq, err := query.New(query.Params{Q: userInput})
	if err != nil {
		// Unreachable: a bare query string cannot fail validation.
		uq = &query.UserQuery{Q: userInput, PageSize: query.MaxPageSize, MaxResults: query.MaxPageSize}
	}
	return []*query.UserQuery{uq}
}
