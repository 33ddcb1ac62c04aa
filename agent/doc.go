// Package agent contains the per-request agent and the builder that
// assembles it. The package focuses on two concerns:
//
//  1. The immutable Agent value binding a model, a tool set and an
//     instruction for a single invocation
//  2. The Builder, which resolves a model identifier to a provider-backed
//     model, checks credentials and attaches the web-search tool when the
//     request allows it
//
// Design principles:
//   - Agents are built fresh per request and never mutated afterwards
//   - Capability is fixed at build time via ToolSet (NoTools / WithTools)
//   - Provider selection and credential checks live in the builder so the
//     runner never sees a half-configured agent
//
// Model specifics stay in the model subpackages and execution stays in the
// runner package to avoid cyclic deps.
package agent
