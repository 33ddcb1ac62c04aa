package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatrelay/chatrelay/agent"
	"github.com/chatrelay/chatrelay/config"
	"github.com/chatrelay/chatrelay/core"
	"github.com/chatrelay/chatrelay/model"
)

type fakeBuilder struct {
	err   error
	built []string
}

func (f *fakeBuilder) Build(modelID string, allowSearch bool, systemPrompt string) (*agent.Agent, error) {
	f.built = append(f.built, modelID)
	if f.err != nil {
		return nil, f.err
	}
	return agent.New(model.NewMockModel(modelID, "mock"), agent.NoTools(), systemPrompt), nil
}

type fakeRunner struct {
	messages []core.Content
	err      error
	queries  []string
}

func (f *fakeRunner) Run(_ context.Context, _ *agent.Agent, queries []string) ([]core.Content, error) {
	f.queries = queries
	return f.messages, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		AllowedModels: []string{"gpt-4o-mini"},
		MaxIterations: 10,
	}
}

func postChat(t *testing.T, handler http.Handler, req ChatRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func TestChatSuccess(t *testing.T) {
	builder := &fakeBuilder{}
	run := &fakeRunner{messages: []core.Content{
		core.NewUserContent("What is the capital of France?"),
		core.NewAssistantContent("The capital of France is Paris."),
	}}
	g := New(testConfig(), builder, run)

	w := postChat(t, g.Handler(), ChatRequest{
		Query:     "What is the capital of France?",
		ModelName: "gpt-4o-mini",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp ChatResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "The capital of France is Paris.", resp.Response)
	assert.Equal(t, []string{"What is the capital of France?"}, run.queries)
}

func TestChatRejectsUnknownModel(t *testing.T) {
	builder := &fakeBuilder{}
	g := New(testConfig(), builder, &fakeRunner{})

	w := postChat(t, g.Handler(), ChatRequest{Query: "q", ModelName: "not-a-real-model"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	// The builder is never consulted for a model outside the allow-list.
	assert.Empty(t, builder.built)
}

func TestChatRejectsEmptyQuery(t *testing.T) {
	g := New(testConfig(), &fakeBuilder{}, &fakeRunner{})

	w := postChat(t, g.Handler(), ChatRequest{Query: "", ModelName: "gpt-4o-mini"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatRejectsMalformedBody(t *testing.T) {
	g := New(testConfig(), &fakeBuilder{}, &fakeRunner{})

	r := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	g.Handler().ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		builderErr error
		runnerErr  error
		wantStatus int
	}{
		{"missing credential", &core.MissingCredentialError{Provider: "tavily"}, nil, http.StatusServiceUnavailable},
		{"upstream failure", nil, &core.UpstreamError{Provider: "openai", Err: errors.New("503")}, http.StatusBadGateway},
		{"did not terminate", nil, core.ErrAgentDidNotTerminate, http.StatusGatewayTimeout},
		{"unexpected error", nil, errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(testConfig(), &fakeBuilder{err: tt.builderErr}, &fakeRunner{err: tt.runnerErr})

			w := postChat(t, g.Handler(), ChatRequest{Query: "q", ModelName: "gpt-4o-mini"})
			assert.Equal(t, tt.wantStatus, w.Code)

			var resp errorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestChatNoResponseProduced(t *testing.T) {
	// Runner succeeded but the sequence holds no assistant text.
	run := &fakeRunner{messages: []core.Content{core.NewUserContent("q")}}
	g := New(testConfig(), &fakeBuilder{}, run)

	w := postChat(t, g.Handler(), ChatRequest{Query: "q", ModelName: "gpt-4o-mini"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHealthz(t *testing.T) {
	g := New(testConfig(), &fakeBuilder{}, &fakeRunner{})

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	g.Handler().ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServerReadinessAndClient(t *testing.T) {
	run := &fakeRunner{messages: []core.Content{
		core.NewAssistantContent("hello from the relay"),
	}}
	g := New(testConfig(), &fakeBuilder{}, run)
	srv := NewServer("127.0.0.1:0", g.Handler())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	select {
	case <-srv.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}

	client := NewClient("http://"+srv.Addr(), nil)
	require.NoError(t, client.WaitReady(ctx))

	text, err := client.Chat(ctx, ChatRequest{Query: "q", ModelName: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "hello from the relay", text)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestClientSurfacesGatewayError(t *testing.T) {
	g := New(testConfig(), &fakeBuilder{}, &fakeRunner{err: core.ErrAgentDidNotTerminate})
	srv := httptest.NewServer(g.Handler())
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.Chat(context.Background(), ChatRequest{Query: "q", ModelName: "gpt-4o-mini"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "504")
}
