package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the relay's failure kinds. The gateway maps these to
// transport status codes; nothing below the gateway retries or recovers.
var (
	// ErrInvalidModel indicates an empty or malformed model identifier was
	// handed to the builder. Allow-list membership is checked earlier, at
	// the gateway.
	ErrInvalidModel = errors.New("invalid model identifier")

	// ErrAgentDidNotTerminate indicates the reasoning loop hit its iteration
	// bound without the model producing a final answer.
	ErrAgentDidNotTerminate = errors.New("agent did not terminate within iteration limit")

	// ErrNoResponse indicates a completed run contains no assistant content
	// to surface. An empty string is never returned as success.
	ErrNoResponse = errors.New("no response produced")
)

// MissingCredentialError indicates a required provider secret is absent.
type MissingCredentialError struct {
	Provider string // "openai", "anthropic", "gemini", "tavily", ...
}

// Error implements the error interface.
func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing credential for provider %q", e.Provider)
}

// UpstreamError wraps a transport failure from the language-model or search
// provider, attaching the provider name. It is never retried locally.
type UpstreamError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream failure from %s: %v", e.Provider, e.Err)
}

// Unwrap exposes the underlying transport error for errors.Is / errors.As.
func (e *UpstreamError) Unwrap() error { return e.Err }
