package model

import (
	"context"
	"fmt"

	"github.com/chatrelay/chatrelay/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
// Unified across vendors so downstream logic does not need per-provider
// branching.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input produced by the runner.
type Request struct {
	Instructions string           `json:"instructions,omitempty"` // System-level instruction, may be empty
	Contents     []core.Content   `json:"contents"`               // Conversation so far, oldest first
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is one complete model turn. The relay does not stream, so a
// response is always final: either assistant text, tool calls, or both.
type Response struct {
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", ...
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "gemini", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required to drive one generation turn.
// Implementations wrap provider transport failures in *core.UpstreamError
// so callers can attribute them without vendor-specific inspection.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests. Besides
// canned prompt->text responses it supports scripted multi-turn runs where
// intermediate turns emit tool calls.
type MockModel struct {
	info      Info
	responses map[string]string
	script    []Response
	calls     int
	err       error
	requests  []Request
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Script replaces canned responses with an ordered sequence of turns,
// consumed one per Generate call.
func (m *MockModel) Script(responses ...Response) { m.script = responses }

// Fail makes every subsequent Generate call return err.
func (m *MockModel) Fail(err error) { m.err = err }

// Requests returns every request seen by Generate, in order.
func (m *MockModel) Requests() []Request { return m.requests }

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.requests = append(m.requests, req)

	if m.err != nil {
		return nil, &core.UpstreamError{Provider: m.info.Provider, Err: m.err}
	}

	if len(m.script) > 0 {
		if m.calls >= len(m.script) {
			return nil, fmt.Errorf("mock script exhausted after %d calls", len(m.script))
		}
		resp := m.script[m.calls]
		m.calls++
		return &resp, nil
	}

	if len(req.Contents) == 0 {
		return nil, fmt.Errorf("no contents provided")
	}
	input := req.Contents[len(req.Contents)-1].Text()
	text := m.responses[input]
	if text == "" {
		text = fmt.Sprintf("Mock response to: %s", input)
	}
	return &Response{
		Content:      core.NewAssistantContent(text),
		FinishReason: "stop",
	}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
