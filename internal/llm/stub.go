package llm

import (
	"context"
	"fmt"
	"sync"
)

// Reply is one scripted Stub answer.
type Reply struct {
	Text string
	Err  error
}

// Stub is a deterministic Generator that replays scripted replies in order
// and records every prompt it receives. Once the script is exhausted the
// last reply repeats; an empty script answers ErrUnavailable.
type Stub struct {
	mu      sync.Mutex
	replies []Reply
	prompts []string
}

// NewStub creates a Stub with the given replies.
func NewStub(replies ...Reply) *Stub {
	return &Stub{replies: replies}
}

// Unreachable returns a Stub that always reports the service as unavailable.
func Unreachable() *Stub {
	return NewStub(Reply{Err: fmt.Errorf("%w: connection refused", ErrUnavailable)})
}

// Generate returns the next scripted reply.
func (s *Stub) Generate(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, prompt)
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if len(s.replies) == 0 {
		return "", fmt.Errorf("%w: no scripted reply", ErrUnavailable)
	}
	idx := len(s.prompts) - 1
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	reply := s.replies[idx]
	return reply.Text, reply.Err
}

// Prompts returns a copy of the prompts received so far.
func (s *Stub) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Calls reports how many times Generate was invoked.
func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}
