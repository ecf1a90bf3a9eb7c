// Package tools registers the external capabilities the research step can
// schedule by name: web search, places lookup, read-only SQL, and guide
// retrieval.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tripweaver/tripweaver/internal/engine"
)

// SearchClient performs a web search. The default implementation speaks the
// Tavily HTTP API; tests substitute a canned client.
type SearchClient interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// TavilyClient calls the Tavily search API.
type TavilyClient struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

// NewTavilyClient creates a search client with sane timeouts.
func NewTavilyClient(apiKey string) *TavilyClient {
	return &TavilyClient{
		APIKey:  apiKey,
		BaseURL: "https://api.tavily.com",
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Results []SearchResult `json:"results"`
}

// Search implements SearchClient.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	body, err := json.Marshal(tavilyRequest{
		APIKey:      c.APIKey,
		Query:       query,
		MaxResults:  maxResults,
		SearchDepth: "advanced",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, string(data))
	}

	var out tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return out.Results, nil
}

const webSearchSchema = `{
  "type": "object",
  "required": ["query"],
  "properties": {
    "query": {"type": "string", "description": "Search query"},
    "max_results": {"type": "integer", "minimum": 1, "maximum": 10}
  }
}`

// WebSearchTool wraps a SearchClient as an engine tool.
func WebSearchTool(client SearchClient) engine.Tool {
	return engine.Tool{
		Name:        "web_search",
		Description: "Search the web for travel information: attractions, prices, opening hours, events.",
		SchemaJSON:  webSearchSchema,
		Retryable:   true,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := args["query"].(string)
			if query == "" {
				return "", fmt.Errorf("query is required")
			}
			maxResults := 5
			if v, ok := args["max_results"].(float64); ok && v > 0 {
				maxResults = int(v)
			}

			results, err := client.Search(ctx, query, maxResults)
			if err != nil {
				return "", err
			}
			data, err := json.Marshal(results)
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
	}
}
