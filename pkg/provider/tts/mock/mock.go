// Package mock provides a scriptable tts.Synthesizer for tests.
package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/TheRemi120/runcoach/pkg/provider/tts"
)

// Synthesizer is a scriptable tts.Synthesizer. Set SynthesizeFunc to control
// responses; every text input is recorded and retrievable via Calls.
type Synthesizer struct {
	SynthesizeFunc func(ctx context.Context, text string) (*tts.Speech, error)

	mu    sync.Mutex
	calls []string
}

var _ tts.Synthesizer = (*Synthesizer)(nil)

// Synthesize implements tts.Synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (*tts.Speech, error) {
	s.mu.Lock()
	s.calls = append(s.calls, text)
	s.mu.Unlock()

	if s.SynthesizeFunc != nil {
		return s.SynthesizeFunc(ctx, text)
	}
	return nil, errors.New("mock: SynthesizeFunc not set")
}

// Calls returns a copy of all texts received so far.
func (s *Synthesizer) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}
