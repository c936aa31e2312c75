package server

import "newsagent/news/newsapi"

// Response formats for the query endpoint.
const (
	FormatNatural    = "natural"
	FormatStructured = "structured"
	FormatBoth       = "both"
)

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query          string `json:"query"`
	SessionID      string `json:"session_id,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
}

// QueryResponse is the reply to POST /api/query. Response and Articles are
// populated according to the requested format.
type QueryResponse struct {
	Response     string            `json:"response,omitempty"`
	Articles     []newsapi.Article `json:"articles,omitempty"`
	TotalResults int               `json:"total_results,omitempty"`
	SessionID    string            `json:"session_id"`
	Format       string            `json:"format"`
}

// HealthResponse reports service status for GET /healthz.
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Services map[string]string `json:"services"`
}
