package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatrelay/chatrelay/core"
)

func TestTavilySearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-test", r.Header.Get("Authorization"))

		var req tavilyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "latest news on X", req.Query)
		assert.Equal(t, 3, req.MaxResults)

		_ = json.NewEncoder(w).Encode(tavilyResponse{Results: []tavilyResult{
			{Title: "Result one", URL: "https://example.com/1", Content: "snippet one", Score: 0.9},
			{Title: "Result two", URL: "https://example.com/2", Content: "snippet two", Score: 0.5},
		}})
	}))
	defer srv.Close()

	tavily := NewTavily("tvly-test", func(o *TavilyOptions) { o.BaseURL = srv.URL })

	results, err := tavily.Search(context.Background(), "latest news on X", Options{MaxResults: 3})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Result one", results[0].Title)
	assert.Equal(t, "snippet two", results[1].Snippet)
}

func TestTavilySearchDefaultMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tavilyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 5, req.MaxResults)
		_ = json.NewEncoder(w).Encode(tavilyResponse{})
	}))
	defer srv.Close()

	tavily := NewTavily("tvly-test", func(o *TavilyOptions) { o.BaseURL = srv.URL })

	results, err := tavily.Search(context.Background(), "q", Options{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTavilySearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tavily := NewTavily("tvly-test", func(o *TavilyOptions) { o.BaseURL = srv.URL })

	_, err := tavily.Search(context.Background(), "q", Options{})
	var ue *core.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "tavily", ue.Provider)
	assert.Contains(t, ue.Error(), "429")
}

func TestTavilySearchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Closed before use so Do fails

	tavily := NewTavily("tvly-test", func(o *TavilyOptions) { o.BaseURL = srv.URL })

	_, err := tavily.Search(context.Background(), "q", Options{})
	var ue *core.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "tavily", ue.Provider)
}
