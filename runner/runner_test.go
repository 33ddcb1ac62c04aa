package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatrelay/chatrelay/agent"
	"github.com/chatrelay/chatrelay/core"
	"github.com/chatrelay/chatrelay/model"
	"github.com/chatrelay/chatrelay/tool"
)

func toolCallResponse(id, name, arguments string) model.Response {
	return model.Response{
		Content: core.Content{Role: core.RoleAssistant, Parts: []core.Part{
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: id, Name: name, Arguments: arguments}},
		}},
		FinishReason: "tool_calls",
	}
}

func echoTool(name string, fn func(ctx context.Context, args map[string]any) (any, error)) tool.Tool {
	return tool.NewFunctionTool(name, "test tool",
		map[string]any{"type": "object", "properties": map[string]any{
			"query": map[string]any{"type": "string"},
		}},
		fn,
	)
}

func TestRunSingleTurn(t *testing.T) {
	m := model.NewMockModel("test-model", "mock")
	m.AddResponse("What is the capital of France?", "The capital of France is Paris.")
	ag := agent.New(m, agent.NoTools(), "")

	messages, err := New().Run(context.Background(), ag, []string{"What is the capital of France?"})
	require.NoError(t, err)

	require.Len(t, messages, 2)
	assert.Equal(t, core.RoleUser, messages[0].Role)
	assert.Equal(t, core.RoleAssistant, messages[1].Role)

	text, err := SelectResponse(messages)
	require.NoError(t, err)
	assert.Equal(t, "The capital of France is Paris.", text)
}

func TestRunPreservesQueryOrder(t *testing.T) {
	m := model.NewMockModel("test-model", "mock")
	ag := agent.New(m, agent.NoTools(), "")

	messages, err := New().Run(context.Background(), ag, []string{"first", "second", "third"})
	require.NoError(t, err)

	require.Len(t, messages, 4)
	assert.Equal(t, "first", messages[0].Text())
	assert.Equal(t, "second", messages[1].Text())
	assert.Equal(t, "third", messages[2].Text())
	// The mock answers the last query, the active turn.
	assert.Equal(t, "Mock response to: third", messages[3].Text())
}

func TestRunRejectsEmptyQueries(t *testing.T) {
	ag := agent.New(model.NewMockModel("test-model", "mock"), agent.NoTools(), "")

	_, err := New().Run(context.Background(), ag, nil)
	assert.Error(t, err)
}

func TestRunPassesInstructionAndTools(t *testing.T) {
	m := model.NewMockModel("test-model", "mock")
	ts := agent.WithTools(echoTool("web_search", func(ctx context.Context, args map[string]any) (any, error) {
		return "results", nil
	}))
	ag := agent.New(m, ts, "You are terse.")

	_, err := New().Run(context.Background(), ag, []string{"q"})
	require.NoError(t, err)

	require.Len(t, m.Requests(), 1)
	req := m.Requests()[0]
	assert.Equal(t, "You are terse.", req.Instructions)
	require.Len(t, req.Tools, 1)
	assert.Equal(t, "web_search", req.Tools[0].Name)
}

func TestRunToolLoop(t *testing.T) {
	m := model.NewMockModel("test-model", "mock")
	m.Script(
		toolCallResponse("call-1", "web_search", `{"query":"latest news on X"}`),
		model.Response{Content: core.NewAssistantContent("Here is the latest news."), FinishReason: "stop"},
	)

	var gotQuery string
	ts := agent.WithTools(echoTool("web_search", func(ctx context.Context, args map[string]any) (any, error) {
		gotQuery, _ = args["query"].(string)
		return "Search results for X", nil
	}))
	ag := agent.New(m, ts, "")

	messages, err := New().Run(context.Background(), ag, []string{"Latest news on X"})
	require.NoError(t, err)
	assert.Equal(t, "latest news on X", gotQuery)

	// user, assistant(tool call), tool, assistant(final)
	require.Len(t, messages, 4)
	assert.Equal(t, core.RoleTool, messages[2].Role)
	responses := messages[2].FunctionResponses()
	require.Len(t, responses, 1)
	assert.Equal(t, "call-1", responses[0].ID)
	assert.Equal(t, "Search results for X", responses[0].Response)

	text, err := SelectResponse(messages)
	require.NoError(t, err)
	assert.Equal(t, "Here is the latest news.", text)
}

func TestRunToolErrorFedBack(t *testing.T) {
	m := model.NewMockModel("test-model", "mock")
	m.Script(
		toolCallResponse("call-1", "web_search", `{"query":123}`), // wrong type
		model.Response{Content: core.NewAssistantContent("I could not search."), FinishReason: "stop"},
	)
	ts := agent.WithTools(echoTool("web_search", func(ctx context.Context, args map[string]any) (any, error) {
		t.Fatal("tool must not run on invalid args")
		return nil, nil
	}))
	ag := agent.New(m, ts, "")

	messages, err := New().Run(context.Background(), ag, []string{"q"})
	require.NoError(t, err)

	responses := messages[2].FunctionResponses()
	require.Len(t, responses, 1)
	assert.Contains(t, responses[0].Error, "VALIDATION_ERROR")

	text, err := SelectResponse(messages)
	require.NoError(t, err)
	assert.Equal(t, "I could not search.", text)
}

func TestRunUnknownToolFedBack(t *testing.T) {
	m := model.NewMockModel("test-model", "mock")
	m.Script(
		toolCallResponse("call-1", "read_mail", `{}`),
		model.Response{Content: core.NewAssistantContent("ok"), FinishReason: "stop"},
	)
	ag := agent.New(m, agent.NoTools(), "")

	messages, err := New().Run(context.Background(), ag, []string{"q"})
	require.NoError(t, err)

	responses := messages[2].FunctionResponses()
	require.Len(t, responses, 1)
	assert.Contains(t, responses[0].Error, "not found")
}

func TestRunUpstreamToolFailureAborts(t *testing.T) {
	m := model.NewMockModel("test-model", "mock")
	m.Script(
		toolCallResponse("call-1", "web_search", `{"query":"x"}`),
		model.Response{Content: core.NewAssistantContent("unreachable"), FinishReason: "stop"},
	)
	ts := agent.WithTools(echoTool("web_search", func(ctx context.Context, args map[string]any) (any, error) {
		return nil, &core.UpstreamError{Provider: "tavily", Err: errors.New("timeout")}
	}))
	ag := agent.New(m, ts, "")

	_, err := New().Run(context.Background(), ag, []string{"q"})
	var ue *core.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "tavily", ue.Provider)
}

func TestRunModelFailurePropagates(t *testing.T) {
	m := model.NewMockModel("test-model", "mock")
	m.Fail(errors.New("connection reset"))
	ag := agent.New(m, agent.NoTools(), "")

	_, err := New().Run(context.Background(), ag, []string{"q"})
	var ue *core.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "mock", ue.Provider)
}

func TestRunIterationLimit(t *testing.T) {
	m := model.NewMockModel("test-model", "mock")
	// Model keeps asking for the tool and never answers.
	m.Script(
		toolCallResponse("1", "web_search", `{"query":"a"}`),
		toolCallResponse("2", "web_search", `{"query":"b"}`),
		toolCallResponse("3", "web_search", `{"query":"c"}`),
	)
	ts := agent.WithTools(echoTool("web_search", func(ctx context.Context, args map[string]any) (any, error) {
		return "more results", nil
	}))
	ag := agent.New(m, ts, "")

	_, err := New(func(o *Options) { o.MaxIterations = 3 }).Run(context.Background(), ag, []string{"q"})
	assert.ErrorIs(t, err, core.ErrAgentDidNotTerminate)
}
