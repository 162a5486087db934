// ABOUTME: Stream carries incremental text deltas from a running agent
// ABOUTME: Producer pushes deltas then finishes with a Result or error

package engine

// Stream is the streaming counterpart of a run: a sequence of text deltas
// followed by exactly one finalized result (or error). The producer side is
// driven by the engine; consumers range over Deltas and then call Wait.
type Stream struct {
	deltas chan string
	done   chan struct{}
	result *Result
	err    error
}

// NewStream creates a stream with a buffered delta channel.
func NewStream(buffer int) *Stream {
	return &Stream{
		deltas: make(chan string, buffer),
		done:   make(chan struct{}),
	}
}

// Deltas returns the channel of incremental text fragments. It is closed when
// the run finishes, after which Wait returns immediately.
func (s *Stream) Deltas() <-chan string {
	return s.deltas
}

// Wait blocks until the run finishes and returns its result or terminal error.
func (s *Stream) Wait() (*Result, error) {
	<-s.done
	return s.result, s.err
}

// Push delivers one text delta to the consumer. Producer side only.
func (s *Stream) Push(delta string) {
	s.deltas <- delta
}

// Finish records the final result and releases consumers. Producer side only;
// must be called exactly once.
func (s *Stream) Finish(result *Result, err error) {
	s.result = result
	s.err = err
	close(s.deltas)
	close(s.done)
}
