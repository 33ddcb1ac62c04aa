// Package chatrelay provides a high-level façade over the relay's builder,
// runner and gateway. Most applications interact with this package by:
//  1. Loading a config (config.Load) and creating a Relay via New()
//  2. Answering queries directly (Answer) or serving the HTTP gateway
//     (Gateway + gateway.NewServer)
//
// The façade delegates per-request work to agent.Builder and runner.Runner
// while keeping setup ergonomics concise. A fresh agent is built per query;
// nothing is cached or pooled across requests.
package chatrelay

import (
	"context"
	"fmt"

	"github.com/chatrelay/chatrelay/agent"
	"github.com/chatrelay/chatrelay/config"
	"github.com/chatrelay/chatrelay/gateway"
	"github.com/chatrelay/chatrelay/logging"
	"github.com/chatrelay/chatrelay/runner"
)

// Options configures the Relay instance.
type Options struct {
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Builder overrides the default agent builder (useful for tests).
	Builder gateway.AgentBuilder

	// Runner overrides the default agent runner.
	Runner gateway.AgentRunner
}

// Relay is the high-level façade aggregating config, builder and runner.
type Relay struct {
	cfg     *config.Config
	builder gateway.AgentBuilder
	runner  gateway.AgentRunner
	logger  logging.Logger
}

// New creates a Relay from a validated configuration with optional overrides.
func New(cfg *config.Config, optFns ...func(o *Options)) *Relay {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Builder == nil {
		opts.Builder = agent.NewBuilder(cfg, func(o *agent.BuilderOptions) {
			o.Logger = opts.Logger
		})
	}
	if opts.Runner == nil {
		opts.Runner = runner.New(func(o *runner.Options) {
			o.MaxIterations = cfg.MaxIterations
			o.Logger = opts.Logger
		})
	}
	return &Relay{cfg: cfg, builder: opts.Builder, runner: opts.Runner, logger: opts.Logger}
}

// Answer runs one query end-to-end: allow-list check, build, run, select.
// It is the programmatic equivalent of one gateway request.
func (r *Relay) Answer(ctx context.Context, query, modelName string, allowSearch bool, systemPrompt string) (string, error) {
	if !r.cfg.Allows(modelName) {
		return "", fmt.Errorf("model %q is not allowed", modelName)
	}

	ag, err := r.builder.Build(modelName, allowSearch, systemPrompt)
	if err != nil {
		return "", err
	}

	messages, err := r.runner.Run(ctx, ag, []string{query})
	if err != nil {
		return "", err
	}

	return runner.SelectResponse(messages)
}

// Gateway returns the HTTP request gateway bound to this relay.
func (r *Relay) Gateway() *gateway.Gateway {
	return gateway.New(r.cfg, r.builder, r.runner, func(o *gateway.Options) {
		o.Logger = r.logger
	})
}
