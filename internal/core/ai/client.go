package ai

import (
	"context"
	"sync"
)

// Usage is the provider's token accounting. In stream mode exact counters
// are unavailable and callers approximate from character counts.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is a batch-mode generation result. The content is raw provider
// text and must never reach a caller unvalidated.
type Result struct {
	Content string
	Usage   Usage
	Model   string
}

// Fragment is one incremental piece of streamed output. Err is set on the
// final fragment of a failed stream; Done marks a clean end.
type Fragment struct {
	Delta string
	Done  bool
	Err   error
}

// Stream carries token fragments in provider arrival order. Closing it
// aborts the underlying provider connection; producers must stop on the
// first failed send after Close.
type Stream struct {
	frames chan Fragment
	cancel context.CancelFunc
	once   sync.Once
}

// NewStream builds a stream whose lifetime is bound to cancel.
func NewStream(buffer int, cancel context.CancelFunc) *Stream {
	return &Stream{
		frames: make(chan Fragment, buffer),
		cancel: cancel,
	}
}

// Frames returns the fragment channel. It is closed by the producer after
// the terminal fragment.
func (s *Stream) Frames() <-chan Fragment {
	return s.frames
}

// Emit pushes a fragment, giving up when ctx ends so an abandoned consumer
// never wedges the producer. Reports whether the fragment was delivered.
func (s *Stream) Emit(ctx context.Context, f Fragment) bool {
	select {
	case s.frames <- f:
		return true
	case <-ctx.Done():
		return false
	}
}

// Finish closes the fragment channel; used by client implementations.
func (s *Stream) Finish() {
	close(s.frames)
}

// Close aborts the underlying provider connection. Safe to call more than
// once and after the stream has already finished.
func (s *Stream) Close() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// Client is the generation provider boundary. Implementations perform the
// outbound call and nothing else: no payload interpretation, no retries.
type Client interface {
	// Generate performs a batch-mode call and returns the full text.
	Generate(ctx context.Context, instructions, userContent string, temperature float64) (*Result, error)

	// GenerateStream opens a token stream. Fragments arrive in provider
	// order; cancelling ctx or closing the stream aborts the call.
	GenerateStream(ctx context.Context, instructions, userContent string, temperature float64) (*Stream, error)

	// Model reports the configured model name.
	Model() string

	Close() error
}
