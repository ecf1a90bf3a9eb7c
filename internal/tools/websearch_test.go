package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavilySearch(t *testing.T) {
	var gotReq tavilyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(tavilyResponse{Results: []SearchResult{
			{Title: "Lisbon in 5 days", URL: "https://example.com/lisbon", Content: "Alfama, Belem, ..."},
		}})
	}))
	defer srv.Close()

	c := NewTavilyClient("test-key")
	c.BaseURL = srv.URL

	results, err := c.Search(context.Background(), "lisbon itinerary", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Lisbon in 5 days", results[0].Title)

	assert.Equal(t, "test-key", gotReq.APIKey)
	assert.Equal(t, "lisbon itinerary", gotReq.Query)
	assert.Equal(t, 3, gotReq.MaxResults)
	assert.Equal(t, "advanced", gotReq.SearchDepth)
}

func TestTavilySearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewTavilyClient("bad")
	c.BaseURL = srv.URL

	_, err := c.Search(context.Background(), "anything", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

type cannedSearch struct{ results []SearchResult }

func (c cannedSearch) Search(_ context.Context, _ string, _ int) ([]SearchResult, error) {
	return c.results, nil
}

func TestWebSearchTool(t *testing.T) {
	tool := WebSearchTool(cannedSearch{results: []SearchResult{{Title: "hit"}}})

	out, err := tool.Fn(context.Background(), map[string]any{"query": "lisbon"})
	require.NoError(t, err)

	var results []SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "hit", results[0].Title)

	_, err = tool.Fn(context.Background(), map[string]any{})
	assert.Error(t, err, "query is required")
}

func TestRegistrySkipsNilDependencies(t *testing.T) {
	reg := Registry(nil, nil, nil)
	assert.Empty(t, reg)

	reg = Registry(cannedSearch{}, nil, nil)
	assert.Len(t, reg, 1)
	_, ok := reg["web_search"]
	assert.True(t, ok)
}
