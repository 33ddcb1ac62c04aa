package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chatrelay/chatrelay/agent"
	"github.com/chatrelay/chatrelay/core"
	"github.com/chatrelay/chatrelay/logging"
	"github.com/chatrelay/chatrelay/model"
)

// Options holds configuration overrides passed to New().
type Options struct {
	// MaxIterations bounds the number of model calls per run. The loop
	// failing to produce a final answer within the bound is an error, never
	// a truncated success.
	MaxIterations int
	// Logger receives per-step debug records.
	Logger logging.Logger
}

// Runner drives the reasoning loop for one request. It holds no per-run
// state and is safe for concurrent use; each Run owns its message sequence
// exclusively and discards it when it returns.
type Runner struct {
	maxIterations int
	logger        logging.Logger
}

// New constructs a Runner with optional overrides.
func New(optFns ...func(o *Options)) *Runner {
	opts := Options{
		MaxIterations: 10,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{
		maxIterations: opts.MaxIterations,
		logger:        opts.Logger,
	}
}

// Run executes the agent against the queries, in order, and returns the
// complete ordered message sequence including every intermediate tool call
// and tool response. The last query is the active turn; earlier queries are
// prior context.
//
// Failures are not retried here: a transport failure from the model or
// search provider propagates as *core.UpstreamError, and exceeding the
// iteration bound yields core.ErrAgentDidNotTerminate.
func (r *Runner) Run(ctx context.Context, ag *agent.Agent, queries []string) ([]core.Content, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("no queries provided")
	}

	runID := uuid.NewString()
	info := ag.Model().Info()
	messages := make([]core.Content, 0, len(queries)+2)
	for _, q := range queries {
		messages = append(messages, core.NewUserContent(q))
	}

	tools := ag.ToolSet().Definitions()
	r.logger.Debug("run.start", "run", runID, "model", info.Name, "queries", len(queries), "tools", len(tools))

	for i := 0; i < r.maxIterations; i++ {
		start := time.Now()
		resp, err := ag.Model().Generate(ctx, model.Request{
			Instructions: ag.Instruction(),
			Contents:     messages,
			Tools:        tools,
		})
		if err != nil {
			r.logger.Error("run.generate.error", "run", runID, "step", i, "error", err.Error())
			return nil, err
		}
		r.logger.Debug("run.generate", "run", runID, "step", i,
			"finish_reason", resp.FinishReason, "duration_ms", time.Since(start).Milliseconds())

		messages = append(messages, resp.Content)

		calls := resp.Content.FunctionCalls()
		if len(calls) == 0 {
			r.logger.Info("run.complete", "run", runID, "model", info.Name, "steps", i+1)
			return messages, nil
		}

		for _, call := range calls {
			toolContent, err := r.executeCall(ctx, ag, runID, call)
			if err != nil {
				return nil, err
			}
			messages = append(messages, toolContent)
		}
	}

	r.logger.Warn("run.iteration_limit", "run", runID, "model", info.Name, "limit", r.maxIterations)
	return nil, core.ErrAgentDidNotTerminate
}

// executeCall runs a single requested tool call and wraps its outcome as a
// tool turn. Transport failures abort the run; every other tool error is fed
// back to the model so it can recover or apologize.
func (r *Runner) executeCall(ctx context.Context, ag *agent.Agent, runID string, call core.FunctionCall) (core.Content, error) {
	t, ok := ag.ToolSet().Lookup(call.Name)
	if !ok {
		r.logger.Warn("run.tool.unknown", "run", runID, "tool", call.Name)
		return core.NewToolContent(call.ID, call.Name, nil, fmt.Errorf("tool %s not found", call.Name)), nil
	}

	args := make(map[string]any)
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return core.NewToolContent(call.ID, call.Name, nil, fmt.Errorf("invalid arguments: %v", err)), nil
		}
	}

	start := time.Now()
	result, err := t.Call(ctx, args)
	if err != nil {
		var upstreamErr *core.UpstreamError
		if errors.As(err, &upstreamErr) {
			r.logger.Error("run.tool.upstream_error", "run", runID, "tool", call.Name,
				"provider", upstreamErr.Provider, "error", err.Error())
			return core.Content{}, err
		}
		r.logger.Warn("run.tool.error", "run", runID, "tool", call.Name, "error", err.Error())
		return core.NewToolContent(call.ID, call.Name, nil, err), nil
	}

	r.logger.Debug("run.tool.success", "run", runID, "tool", call.Name,
		"duration_ms", time.Since(start).Milliseconds())
	return core.NewToolContent(call.ID, call.Name, result, nil), nil
}
