// ABOUTME: Contract between the HTTP gateway and the agent orchestration engine
// ABOUTME: Defines conversation turns, run results, and the Runner interface

package engine

import (
	"context"
	"strings"
)

// Role values used in conversation turns.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a function invocation requested by the model within a turn.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Turn is one message exchange unit in a conversation transcript. Assistant
// turns carry the name of the agent that authored them so a transcript can be
// resumed after a handoff. Tool turns link back to the call via ToolCallID.
type Turn struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Agent      string     `json:"agent,omitempty"`
}

// UserTurn builds a user-authored text turn.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Content: text}
}

// Result is the finalized outcome of a run.
type Result struct {
	// FinalOutput is the engine's consolidated response text.
	FinalOutput string

	// NewItems are the turns produced during this run, in emission order,
	// excluding the input transcript.
	NewItems []Turn

	// Transcript is the full updated conversation: input plus NewItems.
	Transcript []Turn

	// AgentName identifies the agent that produced the final output, which
	// differs from the invoked agent when a handoff occurred.
	AgentName string
}

// ResponseText returns the consolidated response, falling back to the joined
// text of all assistant turns in NewItems when FinalOutput is empty.
func (r *Result) ResponseText() string {
	if r.FinalOutput != "" {
		return strings.TrimSpace(r.FinalOutput)
	}
	var parts []string
	for _, t := range r.NewItems {
		if t.Role == RoleAssistant && t.Content != "" {
			parts = append(parts, t.Content)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// Runner executes a named agent against an input transcript, either to
// completion or in streaming mode. Implementations must be safe for use by
// concurrent requests.
type Runner interface {
	RunSync(ctx context.Context, agentName string, input []Turn) (*Result, error)
	RunStreaming(ctx context.Context, agentName string, input []Turn) (*Stream, error)
}
