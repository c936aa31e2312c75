package agent

import "newsagent/models"

// Tool names form a closed set; the model is given exactly these four.
const (
	ToolOptimizeQueries    = "optimize_queries"
	ToolSearchEverything   = "search_everything"
	ToolSearchTopHeadlines = "search_top_headlines"
	ToolGetSources         = "get_sources"
)

func stringArray(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": description,
	}
}

// Tools returns the fixed tool schema handed to the model on every turn.
func Tools() []models.Tool {
	return []models.Tool{
		{
			Name:        ToolOptimizeQueries,
			Description: "Generate optimized search queries from natural language input. Use this when the user provides semantic/natural language requests that need to be converted into structured search parameters.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"user_input": map[string]any{
						"type":        "string",
						"description": "The natural language search request from the user",
					},
				},
				"required": []string{"user_input"},
			},
		},
		{
			Name:        ToolSearchEverything,
			Description: "Search historical news articles using the /everything endpoint. Supports full-text search with date ranges, language filters, domains, etc. Use this for your searches.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"q": map[string]any{
						"type":        "string",
						"description": "Search query (required)",
					},
					"searchIn":       stringArray("Where to search: title, description, content"),
					"sources":        stringArray("News source IDs to include"),
					"domains":        stringArray("Domains to include (e.g., bbc.co.uk)"),
					"excludeDomains": stringArray("Domains to exclude"),
					"from_date": map[string]any{
						"type":        "string",
						"description": "Start date in ISO format",
					},
					"to_date": map[string]any{
						"type":        "string",
						"description": "End date in ISO format",
					},
					"languages": stringArray("ISO-639-1 language codes"),
					"sortBy": map[string]any{
						"type":        "string",
						"enum":        []string{"relevancy", "popularity", "publishedAt"},
						"description": "Sort order",
					},
					"max_results": map[string]any{
						"type":        "integer",
						"description": "Maximum number of results to return",
					},
				},
				"required": []string{"q"},
			},
		},
		{
			Name:        ToolSearchTopHeadlines,
			Description: "Get current top headlines using the /top-headlines endpoint. Use this for breaking news and current events.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"q": map[string]any{
						"type":        "string",
						"description": "Search query (optional)",
					},
					"countries":  stringArray("ISO 3166-1 alpha-2 country codes"),
					"categories": stringArray("Categories: business, entertainment, general, health, science, sports, technology"),
					"sources":    stringArray("News source IDs"),
					"max_results": map[string]any{
						"type":        "integer",
						"description": "Maximum number of results",
					},
				},
			},
		},
		{
			Name:        ToolGetSources,
			Description: "Get available news sources. Use this when users want to know what sources are available, or to filter sources by category/language/country.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"categories": stringArray("Filter by categories"),
					"languages":  stringArray("Filter by languages"),
					"countries":  stringArray("Filter by countries"),
				},
			},
		},
	}
}
