package agent

import (
	"github.com/chatrelay/chatrelay/model"
	"github.com/chatrelay/chatrelay/tool"
)

// ToolSet is the capability set bound to an agent. It is resolved once at
// build time and immutable afterwards: either no tools at all or a fixed
// set, never mutated during a run.
type ToolSet struct {
	tools []tool.Tool
}

// NoTools returns the empty capability set.
func NoTools() ToolSet { return ToolSet{} }

// WithTools returns a capability set containing the given tools.
func WithTools(tools ...tool.Tool) ToolSet {
	ts := ToolSet{tools: make([]tool.Tool, len(tools))}
	copy(ts.tools, tools)
	return ts
}

// Empty reports whether the set contains no tools.
func (ts ToolSet) Empty() bool { return len(ts.tools) == 0 }

// Tools returns a copy of the contained tools for safe iteration.
func (ts ToolSet) Tools() []tool.Tool {
	out := make([]tool.Tool, len(ts.tools))
	copy(out, ts.tools)
	return out
}

// Lookup returns the named tool and whether it is part of the set.
func (ts ToolSet) Lookup(name string) (tool.Tool, bool) {
	for _, t := range ts.tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Definitions renders the set as model tool declarations.
func (ts ToolSet) Definitions() []model.ToolDefinition {
	if ts.Empty() {
		return nil
	}
	defs := make([]model.ToolDefinition, len(ts.tools))
	for i, t := range ts.tools {
		defs[i] = model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		}
	}
	return defs
}
