package newsapi

import (
	"time"

	"newsagent/news/query"
)

// SearchResult aggregates the articles accumulated for one user query.
// TotalFound always equals the number of accumulated articles.
type SearchResult struct {
	Query      *query.UserQuery `json:"query"`
	TotalFound int              `json:"total_found"`
	Articles   []Article        `json:"articles"`
	CreatedAt  time.Time        `json:"created_at"`
}

// NewSearchResult creates an empty aggregate for the given query.
func NewSearchResult(q *query.UserQuery) *SearchResult {
	return &SearchResult{Query: q, CreatedAt: time.Now()}
}

// AddArticle appends one article and keeps the total in sync.
func (r *SearchResult) AddArticle(a Article) {
	r.Articles = append(r.Articles, a)
	r.TotalFound = len(r.Articles)
}
