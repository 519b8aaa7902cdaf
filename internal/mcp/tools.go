package mcp

import "github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/aggregator"

func getAllTools() []Tool {
	return []Tool{
		{
			Name: aggregator.ToolName,
			Description: "Search Sina news for a company and/or industry over the last N days. " +
				"Returns an ordered mapping item-1..item-N of news items (source, title, url, date, content, " +
				"search_term), newest first. At least one of company or industry is required.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"company": map[string]any{
						"type":        "string",
						"description": "Company name to search for",
					},
					"industry": map[string]any{
						"type":        "string",
						"description": "Industry name to search for",
					},
					"days": map[string]any{
						"type":        "integer",
						"description": "How many days back to search (default 1)",
						"minimum":     0,
						"default":     aggregator.DefaultDays,
					},
					"max_results": map[string]any{
						"type":        "integer",
						"description": "Maximum number of items to return (default 100)",
						"minimum":     1,
						"default":     aggregator.DefaultMaxResults,
					},
				},
			},
		},
	}
}
