// ABOUTME: OpenAI Chat Completions adapter behind the llm.Model interface
// ABOUTME: Handles streaming with incremental tool-call aggregation

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/troupehq/troupe-gateway/internal/engine"
)

// aggCall accumulates partial tool call deltas (id, name, arguments) so a
// complete call can be reconstructed when the finish reason arrives.
type aggCall struct{ id, name, args string }

// OpenAI wraps the Chat Completions API behind the Model interface.
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int64
}

// NewOpenAI constructs an adapter for the given model id. An empty apiKey
// falls back to the OPENAI_API_KEY environment variable via the SDK default.
func NewOpenAI(model, apiKey string, temperature float64, maxTokens int64) *OpenAI {
	var clientOpts []option.RequestOption
	if apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(apiKey))
	}
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &OpenAI{
		client:      openai.NewClient(clientOpts...),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Generate implements unified streaming / non-streaming generation.
func (m *OpenAI) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	out := make(chan Response, 32)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		params := m.buildParams(req)
		if req.Stream {
			m.handleStreaming(ctx, params, out, errCh)
			return
		}
		m.handleNonStreaming(ctx, params, out, errCh)
	}()
	return out, errCh
}

// Info returns metadata describing this adapter.
func (m *OpenAI) Info() Info {
	return Info{Name: m.model, Provider: "openai"}
}

// buildMessages converts normalized turns into OpenAI chat messages. Tool
// result turns follow their assistant tool-call turn in the transcript, so a
// linear pass preserves the ordering the API requires.
func buildMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}
	for _, t := range req.Turns {
		switch t.Role {
		case engine.RoleSystem:
			messages = append(messages, openai.SystemMessage(t.Content))
		case engine.RoleUser:
			messages = append(messages, openai.UserMessage(t.Content))
		case engine.RoleAssistant:
			if len(t.ToolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(t.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(t.ToolCalls))
			for i, tc := range t.ToolCalls {
				toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				}
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				},
			})
		case engine.RoleTool:
			messages = append(messages, openai.ToolMessage(t.Content, t.ToolCallID))
		default:
			if t.Content != "" {
				messages = append(messages, openai.UserMessage(t.Content))
			}
		}
	}
	return messages
}

// buildParams assembles the request parameters including tool definitions.
func (m *OpenAI) buildParams(req Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               m.model,
		Temperature:         openai.Float(m.temperature),
		MaxCompletionTokens: openai.Int(m.maxTokens),
	}
	if len(req.Tools) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Function.Name,
				Description: openai.String(tdef.Function.Description),
				Parameters:  tdef.Function.Parameters,
			},
		}
	}
	params.Tools = tools
	return params
}

// handleStreaming forwards text deltas as partial responses and reconstructs
// tool calls from their streamed fragments for the final response.
func (m *OpenAI) handleStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- Response,
	errCh chan<- error,
) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)
	var textBuilder strings.Builder
	toolAgg := map[int64]*aggCall{}
	order := []int64{}
	for stream.Next() {
		ck := stream.Current()
		for _, ch := range ck.Choices {
			if ch.Delta.Content != "" {
				textBuilder.WriteString(ch.Delta.Content)
				out <- Response{Partial: true, Text: ch.Delta.Content}
			}
			for _, tc := range ch.Delta.ToolCalls {
				ac, ok := toolAgg[tc.Index]
				if !ok {
					ac = &aggCall{}
					toolAgg[tc.Index] = ac
					order = append(order, tc.Index)
				}
				if tc.ID != "" {
					ac.id = tc.ID
				}
				if tc.Function.Name != "" {
					ac.name = tc.Function.Name
				}
				if tc.Function.Arguments != "" {
					ac.args += tc.Function.Arguments
				}
			}
			if ch.FinishReason != "" {
				var calls []engine.ToolCall
				for _, idx := range order {
					ac := toolAgg[idx]
					calls = append(calls, engine.ToolCall{ID: ac.id, Name: ac.name, Arguments: ac.args})
				}
				out <- Response{
					Text:         textBuilder.String(),
					ToolCalls:    calls,
					FinishReason: ch.FinishReason,
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("openai streaming error: %w", err)
	}
}

// handleNonStreaming processes a single completion.
func (m *OpenAI) handleNonStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- Response,
	errCh chan<- error,
) {
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		errCh <- fmt.Errorf("openai api error: %w", err)
		return
	}
	if len(resp.Choices) == 0 {
		errCh <- fmt.Errorf("openai returned no choices")
		return
	}
	ch0 := resp.Choices[0]
	var calls []engine.ToolCall
	for _, tc := range ch0.Message.ToolCalls {
		calls = append(calls, engine.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	out <- Response{
		Text:         ch0.Message.Content,
		ToolCalls:    calls,
		FinishReason: ch0.FinishReason,
	}
}
