package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"newsagent/agent"
	"newsagent/models"
	"newsagent/news/newsapi"
)

var queriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "newsagent_queries_total",
	Help: "Number of processed query requests, by outcome.",
}, []string{"outcome"})

func init() {
	prometheus.MustRegister(queriesTotal)
}

// requestProcessor is the slice of the agent the handler needs.
type requestProcessor interface {
	ProcessRequest(ctx context.Context, prompt, sessionID string) (*agent.Result, error)
}

// QueryHandler serves the natural-language query endpoint.
type QueryHandler struct {
	Agent  requestProcessor
	Logger *log.Logger
	// Timeout bounds one request end to end; zero means no bound beyond the
	// client's own.
	Timeout time.Duration
}

// Register mounts the query routes on the given group.
func (h *QueryHandler) Register(g *echo.Group) {
	g.POST("/query", h.handleQuery)
}

func (h *QueryHandler) handleQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	format := req.ResponseFormat
	if format == "" {
		format = FormatBoth
	}
	switch format {
	case FormatNatural, FormatStructured, FormatBoth:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "response_format must be natural, structured or both")
	}

	// Generate a session id when the caller did not supply one, so the reply
	// always carries an id the caller can continue with.
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx := c.Request().Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	h.Logger.Printf("processing query: %.100s", req.Query)
	result, err := h.Agent.ProcessRequest(ctx, req.Query, sessionID)
	if err != nil {
		queriesTotal.WithLabelValues("error").Inc()
		h.Logger.Printf("error processing query: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "error processing query")
	}
	queriesTotal.WithLabelValues("ok").Inc()

	resp := QueryResponse{SessionID: sessionID, Format: format}
	if format == FormatNatural || format == FormatBoth {
		resp.Response = result.Response
	}
	if format == FormatStructured || format == FormatBoth {
		if aggregated := extractArticles(result.Messages); aggregated.TotalFound > 0 {
			resp.Articles = aggregated.Articles
			resp.TotalResults = aggregated.TotalFound
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// extractArticles scans the conversation for tool results carrying article
// data and aggregates them in order of appearance.
func extractArticles(messages []models.Message) *newsapi.SearchResult {
	result := newsapi.NewSearchResult(nil)
	for _, msg := range messages {
		if msg.Role != models.RoleUser {
			continue
		}
		for _, block := range msg.Content {
			if block.Type != models.ContentTypeToolResult {
				continue
			}
			var payload struct {
				Articles []newsapi.Article `json:"articles"`
			}
			if err := json.Unmarshal([]byte(block.Content), &payload); err != nil {
				continue
			}
			for _, a := range payload.Articles {
				result.AddArticle(a)
			}
		}
	}
	return result
}
