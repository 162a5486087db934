// ABOUTME: Tests for the agent execution loop
// ABOUTME: Covers plain output, handoffs, agent tools, streaming, and guards

package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/troupehq/troupe-gateway/internal/engine"
	"github.com/troupehq/troupe-gateway/internal/llm"
	"github.com/troupehq/troupe-gateway/internal/registry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunSyncPlainResponse(t *testing.T) {
	mock := llm.NewMock()
	mock.Enqueue(llm.Response{Text: "The capital of France is Paris.", FinishReason: "stop"})

	r := New(registry.Default(nil), mock, testLogger())
	result, err := r.RunSync(context.Background(), "triage", []engine.Turn{engine.UserTurn("capital of France?")})
	if err != nil {
		t.Fatalf("RunSync failed: %v", err)
	}

	if result.FinalOutput != "The capital of France is Paris." {
		t.Errorf("unexpected final output: %q", result.FinalOutput)
	}
	if result.AgentName != "triage" {
		t.Errorf("expected producing agent triage, got %q", result.AgentName)
	}
	if len(result.NewItems) != 1 {
		t.Errorf("expected 1 new item, got %d", len(result.NewItems))
	}
	if len(result.Transcript) != 2 {
		t.Errorf("expected 2 transcript turns, got %d", len(result.Transcript))
	}
}

func TestRunSyncHandoff(t *testing.T) {
	mock := llm.NewMock()
	mock.Enqueue(
		llm.Response{
			ToolCalls:    []engine.ToolCall{{ID: "call_1", Name: "transfer_to_research", Arguments: "{}"}},
			FinishReason: "tool_calls",
		},
		llm.Response{Text: "Research findings here.", FinishReason: "stop"},
	)

	r := New(registry.Default(nil), mock, testLogger())
	result, err := r.RunSync(context.Background(), "triage", []engine.Turn{engine.UserTurn("research this")})
	if err != nil {
		t.Fatalf("RunSync failed: %v", err)
	}

	if result.AgentName != "research" {
		t.Errorf("expected handoff target research to produce output, got %q", result.AgentName)
	}
	if result.FinalOutput != "Research findings here." {
		t.Errorf("unexpected final output: %q", result.FinalOutput)
	}

	var toolTurn *engine.Turn
	for i := range result.NewItems {
		if result.NewItems[i].Role == engine.RoleTool {
			toolTurn = &result.NewItems[i]
		}
	}
	if toolTurn == nil {
		t.Fatal("expected a tool result turn in new items")
	}
	if !strings.Contains(toolTurn.Content, "research") {
		t.Errorf("handoff tool output should name the target, got %q", toolTurn.Content)
	}

	// The second model call runs as the research agent.
	reqs := mock.Requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(reqs))
	}
	if !strings.Contains(reqs[1].Instructions, "research") && !strings.Contains(reqs[1].Instructions, "Research") {
		t.Errorf("second call should use research instructions, got %q", reqs[1].Instructions)
	}
}

func TestRunSyncHandoffToolsExposed(t *testing.T) {
	mock := llm.NewMock()
	mock.Enqueue(llm.Response{Text: "hi", FinishReason: "stop"})

	r := New(registry.Default(nil), mock, testLogger())
	if _, err := r.RunSync(context.Background(), "triage", []engine.Turn{engine.UserTurn("hi")}); err != nil {
		t.Fatalf("RunSync failed: %v", err)
	}

	reqs := mock.Requests()
	names := map[string]bool{}
	for _, tool := range reqs[0].Tools {
		names[tool.Function.Name] = true
	}
	for _, want := range []string{"transfer_to_research", "transfer_to_creative", "transfer_to_technical", "transfer_to_business"} {
		if !names[want] {
			t.Errorf("triage should expose %s, tools were %v", want, names)
		}
	}
}

func TestRunSyncAgentTool(t *testing.T) {
	mock := llm.NewMock()
	mock.Enqueue(
		llm.Response{
			ToolCalls: []engine.ToolCall{{
				ID:        "call_1",
				Name:      "consult_researcher",
				Arguments: `{"request": "look up solar capacity"}`,
			}},
			FinishReason: "tool_calls",
		},
		// The sub-run for the research agent consumes this one.
		llm.Response{Text: "Global solar capacity passed 1.5 TW.", FinishReason: "stop"},
		llm.Response{Text: "Per my researcher: capacity passed 1.5 TW.", FinishReason: "stop"},
	)

	r := New(registry.Default(nil), mock, testLogger())
	result, err := r.RunSync(context.Background(), "orchestrator", []engine.Turn{engine.UserTurn("solar report")})
	if err != nil {
		t.Fatalf("RunSync failed: %v", err)
	}

	if result.AgentName != "orchestrator" {
		t.Errorf("agent tools must not transfer control, producing agent was %q", result.AgentName)
	}
	if result.FinalOutput != "Per my researcher: capacity passed 1.5 TW." {
		t.Errorf("unexpected final output: %q", result.FinalOutput)
	}

	var toolOutput string
	for _, item := range result.NewItems {
		if item.Role == engine.RoleTool {
			toolOutput = item.Content
		}
	}
	if toolOutput != "Global solar capacity passed 1.5 TW." {
		t.Errorf("tool output should be the sub-agent's answer, got %q", toolOutput)
	}

	// Sub-run input is just the request text, not the outer transcript.
	reqs := mock.Requests()
	if len(reqs) != 3 {
		t.Fatalf("expected 3 model calls, got %d", len(reqs))
	}
	subTurns := reqs[1].Turns
	if len(subTurns) != 1 || subTurns[0].Content != "look up solar capacity" {
		t.Errorf("sub-run should see only the request text, got %+v", subTurns)
	}
}

func TestRunSyncRejectsUndeclaredHandoff(t *testing.T) {
	reg := registry.New("solo",
		&registry.Definition{Name: "solo", Instructions: "You work alone."},
	)
	mock := llm.NewMock()
	mock.Enqueue(
		llm.Response{
			ToolCalls:    []engine.ToolCall{{ID: "call_1", Name: "transfer_to_research", Arguments: "{}"}},
			FinishReason: "tool_calls",
		},
		llm.Response{Text: "fine, answering myself", FinishReason: "stop"},
	)

	r := New(reg, mock, testLogger())
	result, err := r.RunSync(context.Background(), "solo", []engine.Turn{engine.UserTurn("hi")})
	if err != nil {
		t.Fatalf("RunSync failed: %v", err)
	}
	if result.AgentName != "solo" {
		t.Errorf("undeclared handoff must not transfer control, got %q", result.AgentName)
	}

	var toolOutput string
	for _, item := range result.NewItems {
		if item.Role == engine.RoleTool {
			toolOutput = item.Content
		}
	}
	if !strings.Contains(toolOutput, "error") {
		t.Errorf("undeclared handoff should produce an error tool output, got %q", toolOutput)
	}
}

func TestRunSyncTurnGuard(t *testing.T) {
	mock := llm.NewMock()
	transfer := llm.Response{
		ToolCalls:    []engine.ToolCall{{ID: "call_x", Name: "transfer_to_research", Arguments: "{}"}},
		FinishReason: "tool_calls",
	}
	mock.Enqueue(transfer, transfer, transfer)

	reg := registry.New("a",
		&registry.Definition{Name: "a", Instructions: "a", Handoffs: []string{"research"}},
		&registry.Definition{Name: "research", Instructions: "r", Handoffs: []string{"research"}},
	)
	r := New(reg, mock, testLogger(), WithMaxTurns(2))
	_, err := r.RunSync(context.Background(), "a", []engine.Turn{engine.UserTurn("loop")})
	if err == nil {
		t.Fatal("expected turn guard error")
	}
	if !strings.Contains(err.Error(), "exceeded") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunSyncUnknownAgentFallsBackToDefault(t *testing.T) {
	mock := llm.NewMock()
	mock.Enqueue(llm.Response{Text: "handled by triage", FinishReason: "stop"})

	r := New(registry.Default(nil), mock, testLogger())
	result, err := r.RunSync(context.Background(), "no-such-agent", []engine.Turn{engine.UserTurn("hi")})
	if err != nil {
		t.Fatalf("RunSync failed: %v", err)
	}
	if result.AgentName != "triage" {
		t.Errorf("unknown agent should resolve to the default, got %q", result.AgentName)
	}
}

func TestRunStreamingDeltas(t *testing.T) {
	mock := llm.NewMock()
	mock.Enqueue(llm.Response{Text: "streamed answer", FinishReason: "stop"})

	r := New(registry.Default(nil), mock, testLogger())
	stream, err := r.RunStreaming(context.Background(), "triage", []engine.Turn{engine.UserTurn("hi")})
	if err != nil {
		t.Fatalf("RunStreaming failed: %v", err)
	}

	var joined strings.Builder
	for delta := range stream.Deltas() {
		joined.WriteString(delta)
	}
	result, err := stream.Wait()
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	if joined.String() != "streamed answer" {
		t.Errorf("deltas should concatenate to the final text, got %q", joined.String())
	}
	if result.FinalOutput != "streamed answer" {
		t.Errorf("unexpected final output: %q", result.FinalOutput)
	}
	if result.AgentName != "triage" {
		t.Errorf("unexpected producing agent %q", result.AgentName)
	}
}

func TestRunStreamingModelError(t *testing.T) {
	mock := llm.NewMock()
	mock.Fail(errors.New("upstream unavailable"))

	r := New(registry.Default(nil), mock, testLogger())
	stream, err := r.RunStreaming(context.Background(), "triage", []engine.Turn{engine.UserTurn("hi")})
	if err != nil {
		t.Fatalf("RunStreaming failed: %v", err)
	}
	for range stream.Deltas() {
	}
	result, err := stream.Wait()
	if err == nil {
		t.Fatal("expected a stream error")
	}
	if result != nil {
		t.Error("failed stream should carry no result")
	}
	if !strings.Contains(err.Error(), "upstream unavailable") {
		t.Errorf("error should wrap the model failure, got %v", err)
	}
}
