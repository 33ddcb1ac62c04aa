// Package agent defines the immutable Agent value (model + capability set +
// optional instruction) and the Builder that assembles one per request.
package agent

import "github.com/chatrelay/chatrelay/model"

// Agent is a bound combination of a language-model client, a capability set
// and an optional system instruction. Agents are immutable, stateless across
// invocations and never pooled: the builder produces a fresh one per request
// and it is discarded once the response is selected.
type Agent struct {
	llm         model.Model
	toolSet     ToolSet
	instruction string
}

// New binds a model, capability set and instruction into an Agent. Most
// callers go through Builder.Build instead.
func New(llm model.Model, toolSet ToolSet, instruction string) *Agent {
	return &Agent{llm: llm, toolSet: toolSet, instruction: instruction}
}

// Model returns the bound language model.
func (a *Agent) Model() model.Model { return a.llm }

// ToolSet returns the capability set resolved at build time.
func (a *Agent) ToolSet() ToolSet { return a.toolSet }

// Instruction returns the system instruction, or "" if none was bound.
func (a *Agent) Instruction() string { return a.instruction }
