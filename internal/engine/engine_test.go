// ABOUTME: Tests for engine result helpers and stream plumbing
// ABOUTME: Verifies ResponseText fallbacks and stream finish semantics

package engine

import (
	"errors"
	"testing"
)

func TestResponseTextPrefersFinalOutput(t *testing.T) {
	r := &Result{
		FinalOutput: "  final answer \n",
		NewItems:    []Turn{{Role: RoleAssistant, Content: "ignored"}},
	}
	if got := r.ResponseText(); got != "final answer" {
		t.Errorf("expected trimmed final output, got %q", got)
	}
}

func TestResponseTextFallsBackToAssistantItems(t *testing.T) {
	r := &Result{
		NewItems: []Turn{
			{Role: RoleAssistant, Content: "first"},
			{Role: RoleTool, Content: "tool noise", ToolCallID: "call_1"},
			{Role: RoleAssistant, Content: "second"},
		},
	}
	if got := r.ResponseText(); got != "first\nsecond" {
		t.Errorf("expected joined assistant texts, got %q", got)
	}
}

func TestResponseTextEmpty(t *testing.T) {
	if got := (&Result{}).ResponseText(); got != "" {
		t.Errorf("empty result should yield empty text, got %q", got)
	}
}

func TestStreamDeliversDeltasThenResult(t *testing.T) {
	s := NewStream(4)
	go func() {
		s.Push("hel")
		s.Push("lo")
		s.Finish(&Result{FinalOutput: "hello"}, nil)
	}()

	var got string
	for d := range s.Deltas() {
		got += d
	}
	result, err := s.Wait()
	if err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if got != "hello" {
		t.Errorf("expected deltas to concatenate to hello, got %q", got)
	}
	if result.FinalOutput != "hello" {
		t.Errorf("unexpected final output %q", result.FinalOutput)
	}
}

func TestStreamFinishWithError(t *testing.T) {
	s := NewStream(1)
	go s.Finish(nil, errors.New("model exploded"))

	for range s.Deltas() {
	}
	result, err := s.Wait()
	if err == nil || err.Error() != "model exploded" {
		t.Fatalf("expected model exploded error, got %v", err)
	}
	if result != nil {
		t.Error("failed stream should carry no result")
	}
}

func TestUserTurn(t *testing.T) {
	turn := UserTurn("hi")
	if turn.Role != RoleUser || turn.Content != "hi" {
		t.Errorf("unexpected turn %+v", turn)
	}
}
