// ABOUTME: Deterministic in-memory model for tests and offline operation
// ABOUTME: Replays scripted responses in order, chunking text when streaming

package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/troupehq/troupe-gateway/internal/engine"
)

// Mock is a scripted Model. Responses enqueued with Enqueue are replayed in
// order, one per Generate call; when the queue is empty it echoes the last
// turn. Every request is recorded for assertions.
type Mock struct {
	mu       sync.Mutex
	queue    []Response
	requests []Request
	failErr  error
}

// NewMock constructs an empty mock model.
func NewMock() *Mock {
	return &Mock{}
}

// Enqueue appends scripted final responses to the replay queue.
func (m *Mock) Enqueue(responses ...Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, responses...)
}

// Fail makes every subsequent Generate call report err instead of a response.
func (m *Mock) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// Requests returns a copy of every request seen so far.
func (m *Mock) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Generate implements the Model interface. Streaming requests emit the
// response text rune by rune as partial deltas before the final response.
func (m *Mock) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	out := make(chan Response, 32)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	failErr := m.failErr
	var resp Response
	if len(m.queue) > 0 {
		resp = m.queue[0]
		m.queue = m.queue[1:]
	} else {
		resp = Response{Text: fmt.Sprintf("Mock response to: %s", lastText(req.Turns)), FinishReason: "stop"}
	}
	m.mu.Unlock()

	go func() {
		defer close(out)
		defer close(errCh)
		if failErr != nil {
			errCh <- failErr
			return
		}
		if req.Stream && resp.Text != "" && len(resp.ToolCalls) == 0 {
			for _, r := range resp.Text {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case out <- Response{Partial: true, Text: string(r)}:
				}
			}
		}
		resp.Partial = false
		if resp.FinishReason == "" {
			resp.FinishReason = "stop"
		}
		out <- resp
	}()

	return out, errCh
}

// Info returns metadata describing this adapter.
func (m *Mock) Info() Info {
	return Info{Name: "mock", Provider: "mock"}
}

func lastText(turns []engine.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Content != "" {
			return turns[i].Content
		}
	}
	return ""
}
