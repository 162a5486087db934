// ABOUTME: Provider-agnostic model interface and request/response types
// ABOUTME: Adapters normalize vendor APIs into a single streaming channel shape

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/troupehq/troupe-gateway/internal/engine"
)

// FunctionSchema describes a single callable function exposed to the model.
// Parameters is a JSON Schema object.
type FunctionSchema struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// ToolDefinition declares a function tool in a request.
type ToolDefinition struct {
	Function FunctionSchema
}

// Request is the normalized model input. Instructions become the provider's
// system prompt; Turns carry the conversation including prior tool calls and
// tool results.
type Request struct {
	Instructions string
	Turns        []engine.Turn
	Tools        []ToolDefinition
	Stream       bool
}

// Response is a partial or final chunk emitted by a model. Partial responses
// carry incremental text in Text. The final response carries the complete
// text plus any tool calls the model requested.
type Response struct {
	Partial      bool
	Text         string
	ToolCalls    []engine.ToolCall
	FinishReason string
}

// Info describes a model implementation.
type Info struct {
	Name     string
	Provider string
}

// Model is the minimal interface the runner needs to drive generation.
// Generate returns a response channel and an error channel; both are closed
// when generation ends. At most one error is sent.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)
	Info() Info
}

// New builds a Model for the named provider. Supported providers are
// "openai", "anthropic", and "mock" (for offline operation and tests).
func New(provider, modelName, apiKey string, temperature float64, maxTokens int64) (Model, error) {
	switch strings.ToLower(provider) {
	case "openai":
		return NewOpenAI(modelName, apiKey, temperature, maxTokens), nil
	case "anthropic":
		return NewAnthropic(modelName, apiKey, temperature, maxTokens), nil
	case "mock":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q (expected openai, anthropic, or mock)", provider)
	}
}
