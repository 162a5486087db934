// ABOUTME: Anthropic Messages API adapter behind the llm.Model interface
// ABOUTME: Stream requests run non-streaming and emit the text as one delta

package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/troupehq/troupe-gateway/internal/engine"
)

// Anthropic wraps the Messages API behind the Model interface.
//
// The adapter does not use the SDK's event stream: stream requests issue a
// regular call and surface the full text as a single partial response before
// the final one, which preserves the delta-then-final contract.
type Anthropic struct {
	client      anthropic.Client
	model       anthropic.Model
	temperature float64
	maxTokens   int64
}

// NewAnthropic constructs an adapter for the given model id. An empty apiKey
// falls back to the ANTHROPIC_API_KEY environment variable via the SDK.
func NewAnthropic(model, apiKey string, temperature float64, maxTokens int64) *Anthropic {
	var clientOpts []option.RequestOption
	if apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(apiKey))
	}
	id := anthropic.Model(model)
	if model == "" {
		id = anthropic.ModelClaude3_5Sonnet20241022
	}
	return &Anthropic{
		client:      anthropic.NewClient(clientOpts...),
		model:       id,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Generate implements the Model interface.
func (m *Anthropic) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	out := make(chan Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := anthropic.MessageNewParams{
			Model:       m.model,
			Messages:    m.buildMessages(req.Turns),
			MaxTokens:   m.maxTokens,
			Temperature: anthropic.Float(m.temperature),
		}
		if req.Instructions != "" {
			params.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
		}
		if len(req.Tools) > 0 {
			params.Tools = buildAnthropicTools(req.Tools)
		}

		resp, err := m.client.Messages.New(ctx, params)
		if err != nil {
			errCh <- fmt.Errorf("anthropic api error: %w", err)
			return
		}

		var text string
		var calls []engine.ToolCall
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				text += block.AsText().Text
			case "tool_use":
				toolBlock := block.AsToolUse()
				args := ""
				if toolBlock.Input != nil {
					if argsBytes, err := json.Marshal(toolBlock.Input); err == nil {
						args = string(argsBytes)
					}
				}
				calls = append(calls, engine.ToolCall{
					ID:        toolBlock.ID,
					Name:      toolBlock.Name,
					Arguments: args,
				})
			}
		}

		if req.Stream && text != "" {
			out <- Response{Partial: true, Text: text}
		}

		finishReason := "stop"
		if resp.StopReason != "" {
			finishReason = string(resp.StopReason)
		}
		out <- Response{Text: text, ToolCalls: calls, FinishReason: finishReason}
	}()

	return out, errCh
}

// Info returns metadata describing this adapter.
func (m *Anthropic) Info() Info {
	return Info{Name: string(m.model), Provider: "anthropic"}
}

// buildMessages converts normalized turns to the Anthropic message format.
// Assistant tool calls become tool_use blocks; tool results become
// tool_result blocks inside a user message, as the API requires.
func (m *Anthropic) buildMessages(turns []engine.Turn) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	for _, t := range turns {
		switch t.Role {
		case engine.RoleSystem:
			// System text rides in params.System; skip here.
			continue
		case engine.RoleUser:
			if t.Content != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
			}
		case engine.RoleAssistant:
			var content []anthropic.ContentBlockParamUnion
			if t.Content != "" {
				content = append(content, anthropic.NewTextBlock(t.Content))
			}
			for _, tc := range t.ToolCalls {
				var input interface{}
				if tc.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Arguments), &input); err != nil {
						input = tc.Arguments
					}
				}
				content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			if len(content) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(content...))
			}
		case engine.RoleTool:
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(t.ToolCallID, t.Content, false),
			))
		default:
			if t.Content != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
			}
		}
	}
	return messages
}

// buildAnthropicTools converts tool definitions to the Anthropic tool format.
func buildAnthropicTools(tools []ToolDefinition) []anthropic.ToolUnionParam {
	anthropicTools := make([]anthropic.ToolUnionParam, len(tools))
	for i, tool := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if tool.Function.Parameters != nil {
			params := tool.Function.Parameters
			if properties, exists := params["properties"]; exists {
				inputSchema.Properties = properties
			}
			if required, exists := params["required"]; exists {
				switch req := required.(type) {
				case []string:
					inputSchema.Required = req
				case []interface{}:
					var names []string
					for _, r := range req {
						if s, ok := r.(string); ok {
							names = append(names, s)
						}
					}
					inputSchema.Required = names
				}
			}
		}
		anthropicTools[i] = anthropic.ToolUnionParamOfTool(inputSchema, tool.Function.Name)
	}
	return anthropicTools
}
