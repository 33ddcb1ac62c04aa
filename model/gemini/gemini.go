// Package gemini provides a model wrapper for the Google Gemini API using
// the official genai SDK.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/chatrelay/chatrelay/core"
	"github.com/chatrelay/chatrelay/model"
)

// Options configures the Gemini model adapter.
type Options struct {
	Model       string
	Temperature float64
	APIKey      string
}

// Model wraps the Gemini GenerateContent API behind the generic model.Model interface.
type Model struct {
	client *genai.Client
	opts   Options
}

// NewModel creates a new Gemini model using the official client. Client
// construction performs no network I/O; the first call happens in Generate.
func NewModel(optFns ...func(o *Options)) (*Model, error) {
	opts := Options{
		Model:       "gemini-2.0-flash",
		Temperature: 0.7,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Model{client: client, opts: opts}, nil
}

// NewModelFromClient creates a new Gemini model from an existing client.
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       "gemini-2.0-flash",
		Temperature: 0.7,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements model.Model with a single non-streaming turn.
func (m *Model) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	temperature := float32(m.opts.Temperature)
	cfg := &genai.GenerateContentConfig{Temperature: &temperature}
	if req.Instructions != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.Instructions)},
		}
	}
	if len(req.Tools) > 0 {
		cfg.Tools = buildTools(req.Tools)
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.opts.Model, buildContents(req.Contents), cfg)
	if err != nil {
		return nil, &core.UpstreamError{Provider: "gemini", Err: err}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, &core.UpstreamError{Provider: "gemini", Err: fmt.Errorf("no candidates in response")}
	}

	candidate := resp.Candidates[0]
	var parts []core.Part
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			parts = append(parts, core.TextPart{Text: part.Text})
		}
		if part.FunctionCall != nil {
			args := ""
			if part.FunctionCall.Args != nil {
				if argsBytes, err := json.Marshal(part.FunctionCall.Args); err == nil {
					args = string(argsBytes)
				}
			}
			parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
				// Gemini does not assign call ids; the function name is the
				// correlation key for the matching response.
				ID:        part.FunctionCall.Name,
				Name:      part.FunctionCall.Name,
				Arguments: args,
			}})
		}
	}

	out := &model.Response{
		Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
		FinishReason: string(candidate.FinishReason),
	}
	if usage := resp.UsageMetadata; usage != nil {
		out.Usage = &model.TokenUsage{
			PromptTokens:     int(usage.PromptTokenCount),
			CompletionTokens: int(usage.CandidatesTokenCount),
			TotalTokens:      int(usage.TotalTokenCount),
		}
	}
	return out, nil
}

// buildContents converts normalized contents to the Gemini content format.
// Assistant turns map to the "model" role; tool responses become
// FunctionResponse parts inside a user turn.
func buildContents(contents []core.Content) []*genai.Content {
	out := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		var parts []*genai.Part
		role := "user"

		switch c.Role {
		case core.RoleAssistant:
			role = "model"
			if text := c.Text(); text != "" {
				parts = append(parts, genai.NewPartFromText(text))
			}
			for _, fc := range c.FunctionCalls() {
				args := map[string]any{}
				if fc.Arguments != "" {
					_ = json.Unmarshal([]byte(fc.Arguments), &args)
				}
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{Name: fc.Name, Args: args},
				})
			}
		case core.RoleTool:
			for _, fr := range c.FunctionResponses() {
				content := renderResponse(fr)
				parts = append(parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						Name:     fr.Name,
						Response: map[string]any{"content": content},
					},
				})
			}
		default:
			if text := c.Text(); text != "" {
				parts = append(parts, genai.NewPartFromText(text))
			}
		}

		if len(parts) == 0 {
			continue
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}
	return out
}

func renderResponse(fr core.FunctionResponse) string {
	if fr.Error != "" {
		return fmt.Sprintf("error: %s", fr.Error)
	}
	if s, ok := fr.Response.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", fr.Response)
}

// buildTools converts tool definitions to Gemini function declarations.
func buildTools(tools []model.ToolDefinition) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tdef := range tools {
		fd := &genai.FunctionDeclaration{
			Name:        tdef.Name,
			Description: tdef.Description,
		}
		if tdef.Parameters != nil {
			fd.Parameters = buildSchema(tdef.Parameters)
		}
		declarations = append(declarations, fd)
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// buildSchema converts a minimal JSON-schema map to a genai.Schema.
func buildSchema(params map[string]any) *genai.Schema {
	schema := &genai.Schema{Type: genai.TypeObject}

	if properties, ok := params["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(properties))
		for name, prop := range properties {
			propMap, ok := prop.(map[string]any)
			if !ok {
				continue
			}
			propSchema := &genai.Schema{Type: geminiType(propMap["type"])}
			if desc, ok := propMap["description"].(string); ok {
				propSchema.Description = desc
			}
			schema.Properties[name] = propSchema
		}
	}

	switch req := params["required"].(type) {
	case []string:
		schema.Required = req
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	return schema
}

func geminiType(v any) genai.Type {
	s, _ := v.(string)
	switch s {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "gemini",
		SupportsTools: true,
	}
}
