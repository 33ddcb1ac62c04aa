// Package gateway is the HTTP request gateway of the relay. It validates the
// inbound request shape and the model identifier against the allow-list,
// drives build -> run -> select for one request, and maps the relay's error
// kinds to transport status codes. The server half exposes an explicit
// readiness signal so dependent tasks can wait for the listener instead of
// sleeping.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/chatrelay/chatrelay/agent"
	"github.com/chatrelay/chatrelay/config"
	"github.com/chatrelay/chatrelay/core"
	"github.com/chatrelay/chatrelay/logging"
	"github.com/chatrelay/chatrelay/runner"
)

// ChatRequest is the inbound request shape.
type ChatRequest struct {
	Query        string `json:"query"`
	ModelName    string `json:"model_name"`
	AllowSearch  bool   `json:"allow_search"`
	SystemPrompt string `json:"system_prompt"`
}

// ChatResponse is the success response shape.
type ChatResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// AgentBuilder assembles an agent for a validated model identifier.
type AgentBuilder interface {
	Build(modelID string, allowSearch bool, systemPrompt string) (*agent.Agent, error)
}

// AgentRunner runs a built agent against the ordered queries.
type AgentRunner interface {
	Run(ctx context.Context, ag *agent.Agent, queries []string) ([]core.Content, error)
}

// Options configures a Gateway.
type Options struct {
	Logger logging.Logger
}

// Gateway handles chat requests. Each request builds a fresh agent and is
// handled synchronously end-to-end; concurrent requests share nothing but
// the configuration.
type Gateway struct {
	cfg     *config.Config
	builder AgentBuilder
	runner  AgentRunner
	logger  logging.Logger
}

// New constructs a Gateway.
func New(cfg *config.Config, builder AgentBuilder, run AgentRunner, optFns ...func(o *Options)) *Gateway {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Gateway{cfg: cfg, builder: builder, runner: run, logger: opts.Logger}
}

// Handler returns the gateway's HTTP routes.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat", g.handleChat)
	mux.HandleFunc("GET /healthz", g.handleHealth)
	return mux
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (g *Gateway) handleChat(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	start := time.Now()

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query must not be empty"})
		return
	}
	if !g.cfg.Allows(req.ModelName) {
		g.logger.Warn("gateway.model_rejected", "request", requestID, "model", req.ModelName)
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: fmt.Sprintf("model %q is not allowed", req.ModelName),
		})
		return
	}

	g.logger.Info("gateway.request", "request", requestID,
		"model", req.ModelName, "allow_search", req.AllowSearch)

	ag, err := g.builder.Build(req.ModelName, req.AllowSearch, req.SystemPrompt)
	if err != nil {
		g.writeError(w, requestID, err)
		return
	}

	messages, err := g.runner.Run(r.Context(), ag, []string{req.Query})
	if err != nil {
		g.writeError(w, requestID, err)
		return
	}

	text, err := runner.SelectResponse(messages)
	if err != nil {
		g.writeError(w, requestID, err)
		return
	}

	g.logger.Info("gateway.response", "request", requestID,
		"duration_ms", time.Since(start).Milliseconds())
	writeJSON(w, http.StatusOK, ChatResponse{Response: text})
}

func (g *Gateway) writeError(w http.ResponseWriter, requestID string, err error) {
	status := statusFor(err)
	g.logger.Error("gateway.error", "request", requestID, "status", status, "error", err.Error())
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFor maps the relay's error kinds to transport status codes.
func statusFor(err error) int {
	var (
		missingCredential *core.MissingCredentialError
		upstream          *core.UpstreamError
	)
	switch {
	case errors.Is(err, core.ErrInvalidModel):
		return http.StatusBadRequest
	case errors.As(err, &missingCredential):
		return http.StatusServiceUnavailable
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrAgentDidNotTerminate):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrNoResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
