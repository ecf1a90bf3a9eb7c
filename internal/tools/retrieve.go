package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tripweaver/tripweaver/internal/engine"
	"github.com/tripweaver/tripweaver/internal/knowledge"
)

const retrieveSchema = `{
  "type": "object",
  "required": ["query"],
  "properties": {
    "query": {"type": "string", "description": "What to look for in the travel guides"},
    "k": {"type": "integer", "minimum": 1, "maximum": 10}
  }
}`

// RetrieveTool exposes the guide index as an engine tool.
func RetrieveTool(ix *knowledge.Index) engine.Tool {
	return engine.Tool{
		Name:        "retrieve",
		Description: "Retrieve relevant excerpts from the indexed travel guides.",
		SchemaJSON:  retrieveSchema,
		Retryable:   true,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := args["query"].(string)
			if query == "" {
				return "", fmt.Errorf("query is required")
			}
			k := 3
			if v, ok := args["k"].(float64); ok && v > 0 {
				k = int(v)
			}

			excerpts, err := ix.Search(ctx, query, k)
			if err != nil {
				return "", err
			}
			data, err := json.Marshal(excerpts)
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
	}
}

// Registry assembles the full tool set for the research step. Nil
// dependencies leave their tool unregistered.
func Registry(search SearchClient, places *PlacesDB, guides *knowledge.Index) engine.ToolRegistry {
	reg := make(engine.ToolRegistry)
	if search != nil {
		reg.Register(WebSearchTool(search))
	}
	if places != nil {
		reg.Register(PlacesLookupTool(places))
		reg.Register(SQLQueryTool(places))
	}
	if guides != nil {
		reg.Register(RetrieveTool(guides))
	}
	return reg
}
