package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"newsagent/models"
	"newsagent/news/newsapi"
	"newsagent/news/query"
	"newsagent/provider"
	"newsagent/session"
)

// contextArticleLimit bounds how many articles a tool result carries back
// into the conversation, regardless of the caller's max_results.
const contextArticleLimit = 10

// NewsClient is the news retrieval surface the agent dispatches tools to.
type NewsClient interface {
	SearchEverything(ctx context.Context, uq *query.UserQuery) (newsapi.ArticlesResult, error)
	TopHeadlines(ctx context.Context, uq *query.UserQuery) (newsapi.ArticlesResult, error)
	Sources(ctx context.Context, uq *query.UserQuery) (newsapi.SourcesResult, error)
}

// Agent drives an LLM conversation, executing news tools the model requests
// until it produces a final answer.
type Agent struct {
	llm        provider.Provider
	news       NewsClient
	sessions   session.Store
	optimizer  *QueryOptimizer
	logger     *log.Logger
	pageSize   int
	maxResults int
}

// Option configures an Agent.
type Option func(*Agent)

// WithSearchDefaults sets the page size used for every news request and the
// result cap applied when a tool call does not ask for one. Zero values keep
// the provider maximums.
func WithSearchDefaults(pageSize, maxResults int) Option {
	return func(a *Agent) {
		a.pageSize = pageSize
		a.maxResults = maxResults
	}
}

// Result is the outcome of one processed request.
type Result struct {
	// Response is all intermediate text turns joined by a blank line.
	Response string
	// IntermediateResponses preserves each displayed text turn in order.
	IntermediateResponses []string
	// Messages is the full conversation including the final assistant turn.
	Messages []models.Message
}

// New creates an agent.
func New(llm provider.Provider, news NewsClient, sessions session.Store, logger *log.Logger, opts ...Option) *Agent {
	if logger == nil {
		logger = log.New(log.Writer(), "[AGENT] ", log.LstdFlags)
	}
	a := &Agent{
		llm:       llm,
		news:      news,
		sessions:  sessions,
		optimizer: NewQueryOptimizer(llm, logger),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// maxResultsOr prefers the tool call's explicit cap over the configured one.
func (a *Agent) maxResultsOr(requested int) int {
	if requested > 0 {
		return requested
	}
	return a.maxResults
}

// ProcessRequest runs the tool-dispatch loop for one user prompt. When a
// session id is supplied the conversation is resumed from the store and
// persisted back, including the final turn.
func (a *Agent) ProcessRequest(ctx context.Context, prompt, sessionID string) (*Result, error) {
	var messages []models.Message
	if sessionID != "" {
		stored, err := a.sessions.Get(ctx, sessionID)
		if err != nil && !errors.Is(err, models.ErrSessionNotFound) {
			return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
		}
		messages = stored
	}
	messages = append(messages, models.TextMessage(models.RoleUser, prompt))

	var intermediate []string

	// Keep calling tools until the model is done.
	for {
		turn, err := a.llm.CreateTurn(ctx, messages, Tools())
		if err != nil {
			return nil, fmt.Errorf("llm turn failed: %w", err)
		}

		// Keep any text from this turn, even if it also uses tools.
		if text := turn.Message.Text(); strings.TrimSpace(text) != "" {
			intermediate = append(intermediate, text)
		}

		switch turn.StopReason {
		case models.StopReasonToolUse:
			var results []models.Content
			for _, call := range turn.Message.ToolUses() {
				a.logger.Printf("executing tool %s", call.Name)
				out, err := a.executeTool(ctx, call.Name, call.Input)
				if err != nil {
					return nil, err
				}
				results = append(results, models.Content{
					Type:      models.ContentTypeToolResult,
					ToolUseID: call.ID,
					Content:   out,
				})
			}
			messages = append(messages, turn.Message)
			messages = append(messages, models.Message{Role: models.RoleUser, Content: results})

		case models.StopReasonEndTurn:
			messages = append(messages, turn.Message)
			if sessionID != "" {
				if err := a.sessions.Save(ctx, sessionID, messages); err != nil {
					a.logger.Printf("failed to persist session %s: %v", sessionID, err)
				}
			}
			return &Result{
				Response:              strings.Join(intermediate, "\n\n"),
				IntermediateResponses: intermediate,
				Messages:              messages,
			}, nil

		default:
			return nil, fmt.Errorf("unexpected stop reason %q", turn.StopReason)
		}
	}
}

type searchInput struct {
	Q              string   `json:"q"`
	SearchIn       []string `json:"searchIn"`
	Sources        []string `json:"sources"`
	Domains        []string `json:"domains"`
	ExcludeDomains []string `json:"excludeDomains"`
	FromDate       string   `json:"from_date"`
	ToDate         string   `json:"to_date"`
	Languages      []string `json:"languages"`
	SortBy         string   `json:"sortBy"`
	MaxResults     int      `json:"max_results"`
}

type headlinesInput struct {
	Q          string   `json:"q"`
	Countries  []string `json:"countries"`
	Categories []string `json:"categories"`
	Sources    []string `json:"sources"`
	MaxResults int      `json:"max_results"`
}

type sourcesInput struct {
	Categories []string `json:"categories"`
	Languages  []string `json:"languages"`
	Countries  []string `json:"countries"`
}

type optimizeInput struct {
	UserInput string `json:"user_input"`
}

// executeTool dispatches one tool call and returns its serialized result.
// Errors here are contract violations between the model and the fixed tool
// schema, and are fatal.
func (a *Agent) executeTool(ctx context.Context, name string, input json.RawMessage) (string, error) {
	switch name {
	case ToolOptimizeQueries:
		var in optimizeInput
		if err := json.Unmarshal(input, &in); err != nil {
			return "", fmt.Errorf("malformed %s input: %w", name, err)
		}
		queries := a.optimizer.Optimize(ctx, in.UserInput)
		return marshalResult(map[string]any{"queries": queries})

	case ToolSearchEverything:
		var in searchInput
		if err := json.Unmarshal(input, &in); err != nil {
			return "", fmt.Errorf("malformed %s input: %w", name, err)
		}
		uq, err := query.New(query.Params{
			Q:              in.Q,
			SearchIn:       in.SearchIn,
			Sources:        in.Sources,
			Domains:        in.Domains,
			ExcludeDomains: in.ExcludeDomains,
			From:           in.FromDate,
			To:             in.ToDate,
			Languages:      in.Languages,
			SortBy:         in.SortBy,
			PageSize:       a.pageSize,
			MaxResults:     a.maxResultsOr(in.MaxResults),
		})
		if err != nil {
			return "", fmt.Errorf("invalid %s input: %w", name, err)
		}
		result, err := a.news.SearchEverything(ctx, uq)
		if err != nil {
			return "", fmt.Errorf("%s failed: %w", name, err)
		}
		return marshalResult(map[string]any{
			"status":        result.Status,
			"total_results": result.TotalResults,
			"articles":      truncateArticles(result.Articles, contextArticleLimit),
		})

	case ToolSearchTopHeadlines:
		var in headlinesInput
		if err := json.Unmarshal(input, &in); err != nil {
			return "", fmt.Errorf("malformed %s input: %w", name, err)
		}
		uq, err := query.New(query.Params{
			Q:          in.Q,
			Countries:  in.Countries,
			Categories: in.Categories,
			Sources:    in.Sources,
			PageSize:   a.pageSize,
			MaxResults: a.maxResultsOr(in.MaxResults),
		})
		if err != nil {
			return "", fmt.Errorf("invalid %s input: %w", name, err)
		}
		result, err := a.news.TopHeadlines(ctx, uq)
		if err != nil {
			return "", fmt.Errorf("%s failed: %w", name, err)
		}
		return marshalResult(map[string]any{
			"status":        result.Status,
			"total_results": result.TotalResults,
			"articles":      truncateArticles(result.Articles, contextArticleLimit),
		})

	case ToolGetSources:
		var in sourcesInput
		if err := json.Unmarshal(input, &in); err != nil {
			return "", fmt.Errorf("malformed %s input: %w", name, err)
		}
		uq, err := query.New(query.Params{
			Categories: in.Categories,
			Languages:  in.Languages,
			Countries:  in.Countries,
		})
		if err != nil {
			return "", fmt.Errorf("invalid %s input: %w", name, err)
		}
		result, err := a.news.Sources(ctx, uq)
		if err != nil {
			return "", fmt.Errorf("%s failed: %w", name, err)
		}
		return marshalResult(map[string]any{
			"status":  result.Status,
			"sources": result.Sources,
		})

	default:
		return "", fmt.Errorf("%w: %s", models.ErrUnknownTool, name)
	}
}

func marshalResult(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to serialize tool result: %w", err)
	}
	return string(data), nil
}

func truncateArticles(articles []newsapi.Article, limit int) []newsapi.Article {
	if len(articles) > limit {
		return articles[:limit]
	}
	return articles
}
