// ABOUTME: Agent loop driving model calls, handoffs, and agent tools
// ABOUTME: Implements engine.Runner for both sync and streaming execution

package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/troupehq/troupe-gateway/internal/engine"
	"github.com/troupehq/troupe-gateway/internal/llm"
	"github.com/troupehq/troupe-gateway/internal/registry"
)

// DefaultMaxTurns bounds the number of model round-trips in a single run.
// Each handoff or tool batch costs one turn.
const DefaultMaxTurns = 10

const transferPrefix = "transfer_to_"

// Runner executes agents against a model. It resolves agent definitions from
// the registry, exposes handoffs and agent tools as function tools, and loops
// until the model produces plain text output.
type Runner struct {
	registry *registry.Registry
	model    llm.Model
	logger   *slog.Logger
	maxTurns int
}

// Option configures a Runner.
type Option func(*Runner)

// WithMaxTurns overrides the turn guard.
func WithMaxTurns(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxTurns = n
		}
	}
}

// New creates a Runner over the given registry and model.
func New(reg *registry.Registry, model llm.Model, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		registry: reg,
		model:    model,
		logger:   logger.With("component", "runner"),
		maxTurns: DefaultMaxTurns,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunSync executes the named agent to completion and returns the result.
func (r *Runner) RunSync(ctx context.Context, agentName string, input []engine.Turn) (*engine.Result, error) {
	return r.run(ctx, agentName, input, nil)
}

// RunStreaming executes the named agent in a goroutine, pushing text deltas
// onto the returned stream as the model produces them. The stream finishes
// with the same result RunSync would have returned.
func (r *Runner) RunStreaming(ctx context.Context, agentName string, input []engine.Turn) (*engine.Stream, error) {
	stream := engine.NewStream(32)
	go func() {
		result, err := r.run(ctx, agentName, input, stream)
		stream.Finish(result, err)
	}()
	return stream, nil
}

// run is the shared agent loop. A nil stream means synchronous execution.
func (r *Runner) run(ctx context.Context, agentName string, input []engine.Turn, stream *engine.Stream) (*engine.Result, error) {
	current := r.registry.Resolve(agentName)

	transcript := make([]engine.Turn, len(input))
	copy(transcript, input)
	var newItems []engine.Turn

	for turn := 0; turn < r.maxTurns; turn++ {
		req := llm.Request{
			Instructions: current.Instructions,
			Turns:        transcript,
			Tools:        r.toolDefinitions(current),
			Stream:       stream != nil,
		}

		resp, err := r.generate(ctx, req, stream)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", current.Name, err)
		}

		assistant := engine.Turn{
			Role:      engine.RoleAssistant,
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
			Agent:     current.Name,
		}
		transcript = append(transcript, assistant)
		newItems = append(newItems, assistant)

		if len(resp.ToolCalls) == 0 {
			return &engine.Result{
				FinalOutput: resp.Text,
				NewItems:    newItems,
				Transcript:  transcript,
				AgentName:   current.Name,
			}, nil
		}

		next := current
		for _, tc := range resp.ToolCalls {
			output, target := r.executeTool(ctx, current, tc)
			if target != nil {
				next = target
			}
			toolTurn := engine.Turn{
				Role:       engine.RoleTool,
				Content:    output,
				ToolCallID: tc.ID,
				Agent:      current.Name,
			}
			transcript = append(transcript, toolTurn)
			newItems = append(newItems, toolTurn)
		}
		if next != current {
			r.logger.Debug("handoff", "from", current.Name, "to", next.Name)
		}
		current = next
	}

	return nil, fmt.Errorf("agent %q exceeded %d turns without a final answer", current.Name, r.maxTurns)
}

// generate drains one model call, forwarding partial text to the stream when
// present, and returns the final response.
func (r *Runner) generate(ctx context.Context, req llm.Request, stream *engine.Stream) (llm.Response, error) {
	out, errCh := r.model.Generate(ctx, req)

	var final llm.Response
	var sawFinal bool
	for resp := range out {
		if resp.Partial {
			if stream != nil && resp.Text != "" {
				stream.Push(resp.Text)
			}
			continue
		}
		final = resp
		sawFinal = true
	}
	if err := <-errCh; err != nil {
		return llm.Response{}, err
	}
	if !sawFinal {
		return llm.Response{}, fmt.Errorf("model produced no final response")
	}
	return final, nil
}

// executeTool runs a single tool call for the current agent. It returns the
// tool output and, for handoff tools, the definition of the agent taking over.
func (r *Runner) executeTool(ctx context.Context, current *registry.Definition, tc engine.ToolCall) (string, *registry.Definition) {
	if strings.HasPrefix(tc.Name, transferPrefix) {
		targetName := strings.TrimPrefix(tc.Name, transferPrefix)
		for _, h := range current.Handoffs {
			if h == targetName {
				target, ok := r.registry.Lookup(targetName)
				if !ok {
					break
				}
				return fmt.Sprintf(`{"assistant": %q}`, targetName), target
			}
		}
		return fmt.Sprintf("error: no handoff to %q from agent %q", targetName, current.Name), nil
	}

	for _, at := range current.Tools {
		if at.ToolName != tc.Name {
			continue
		}
		request := parseToolRequest(tc.Arguments)
		sub, err := r.RunSync(ctx, at.Target, []engine.Turn{engine.UserTurn(request)})
		if err != nil {
			r.logger.Warn("agent tool failed", "tool", tc.Name, "target", at.Target, "error", err)
			return fmt.Sprintf("error: %v", err), nil
		}
		return sub.ResponseText(), nil
	}

	return fmt.Sprintf("error: unknown tool %q", tc.Name), nil
}

// parseToolRequest extracts the request field from agent tool arguments,
// falling back to the raw argument string for malformed payloads.
func parseToolRequest(arguments string) string {
	var payload struct {
		Request string `json:"request"`
	}
	if err := json.Unmarshal([]byte(arguments), &payload); err == nil && payload.Request != "" {
		return payload.Request
	}
	return arguments
}

// toolDefinitions builds the function tool declarations for an agent: one
// transfer tool per handoff target plus its declared agent tools.
func (r *Runner) toolDefinitions(def *registry.Definition) []llm.ToolDefinition {
	var tools []llm.ToolDefinition
	for _, h := range def.Handoffs {
		target, ok := r.registry.Lookup(h)
		if !ok {
			continue
		}
		tools = append(tools, llm.ToolDefinition{Function: llm.FunctionSchema{
			Name:        transferPrefix + h,
			Description: fmt.Sprintf("Handoff to the %s agent to handle the request. %s", h, target.Description),
			Parameters: map[string]interface{}{
				"type":                 "object",
				"properties":           map[string]interface{}{},
				"required":             []string{},
				"additionalProperties": false,
			},
		}})
	}
	for _, at := range def.Tools {
		tools = append(tools, llm.ToolDefinition{Function: llm.FunctionSchema{
			Name:        at.ToolName,
			Description: at.Description,
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"request": map[string]interface{}{
						"type":        "string",
						"description": "The request to send to the agent.",
					},
				},
				"required": []string{"request"},
			},
		}})
	}
	return tools
}
