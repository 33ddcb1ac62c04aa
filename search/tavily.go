package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chatrelay/chatrelay/core"
)

const defaultTavilyBaseURL = "https://api.tavily.com"

// TavilyOptions configures the Tavily search client.
type TavilyOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	MaxResults int // Default result count when the caller passes zero
}

// Tavily implements Provider using the Tavily search API.
type Tavily struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	maxResults int
}

// NewTavily creates a Tavily search provider keyed by an opaque credential.
func NewTavily(apiKey string, optFns ...func(o *TavilyOptions)) *Tavily {
	opts := TavilyOptions{
		BaseURL:    defaultTavilyBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		MaxResults: 5,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Tavily{
		apiKey:     apiKey,
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		maxResults: opts.MaxResults,
	}
}

// Name implements Provider.
func (t *Tavily) Name() string { return "tavily" }

type tavilyRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

// Search implements Provider. HTTP transport errors and non-2xx statuses are
// returned as *core.UpstreamError so the runner aborts instead of feeding a
// broken result back to the model.
func (t *Tavily) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = t.maxResults
	}

	body, err := json.Marshal(tavilyRequest{Query: query, MaxResults: maxResults})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, &core.UpstreamError{Provider: t.Name(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return nil, &core.UpstreamError{
			Provider: t.Name(),
			Err:      fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(snippet)),
		}
	}

	var decoded tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &core.UpstreamError{Provider: t.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}

	results := make([]Result, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		results = append(results, Result{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
			Score:   r.Score,
		})
	}
	return results, nil
}
