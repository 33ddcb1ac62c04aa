// Package websearch exposes a search.Provider as the relay's single
// web_search tool. Results are rendered as a compact text block the model
// can cite from.
package websearch

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatrelay/chatrelay/search"
	"github.com/chatrelay/chatrelay/tool"
)

// ToolName is the function name declared to the model.
const ToolName = "web_search"

type args struct {
	Query      string `json:"query" description:"The search query"`
	MaxResults *int   `json:"max_results,omitempty" description:"Maximum number of results to return"`
}

// New builds the web_search tool on top of the given search provider.
func New(provider search.Provider) tool.Tool {
	return tool.NewFunctionToolFromStruct(
		ToolName,
		"Search the web for current information. Use this for questions about recent events or facts you are unsure about.",
		args{},
		func(ctx context.Context, raw map[string]any) (any, error) {
			query, _ := raw["query"].(string)
			if strings.TrimSpace(query) == "" {
				return nil, tool.NewToolError(ToolName, "query must not be empty", "VALIDATION_ERROR")
			}

			opts := search.Options{}
			if n, ok := raw["max_results"].(float64); ok {
				opts.MaxResults = int(n)
			}

			results, err := provider.Search(ctx, query, opts)
			if err != nil {
				return nil, err
			}
			return render(query, results), nil
		},
	)
}

// render formats results as numbered title/url/snippet entries.
func render(query string, results []search.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q.", query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
