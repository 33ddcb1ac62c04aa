// Package search provides a pluggable web search interface for the relay.
// Each backend implements the Provider interface; the tool layer calls a
// single Search method and renders the results for the model.
package search

import "context"

// Result is a single search result.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Snippet string  `json:"snippet,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// Options are optional parameters for a search query.
type Options struct {
	// MaxResults is the maximum number of results to return. Providers may
	// return fewer. Zero means provider default.
	MaxResults int `json:"max_results,omitempty"`
}

// Provider is the interface that search backends implement.
type Provider interface {
	// Name returns the provider identifier (e.g. "tavily").
	Name() string

	// Search executes a query and returns results. Transport failures are
	// reported as *core.UpstreamError carrying the provider name.
	Search(ctx context.Context, query string, opts Options) ([]Result, error)
}
