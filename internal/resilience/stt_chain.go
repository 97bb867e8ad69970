package resilience

import (
	"context"

	"github.com/TheRemi120/runcoach/pkg/provider/stt"
)

// Transcriber composes multiple stt.Transcriber backends behind the same
// interface, so callers see one transcriber with automatic failover.
type Transcriber struct {
	chain *Chain[stt.Transcriber]
}

var _ stt.Transcriber = (*Transcriber)(nil)

// NewTranscriber creates a failover Transcriber with primary as the first
// backend.
func NewTranscriber(primaryName string, primary stt.Transcriber, breakerCfg BreakerConfig) *Transcriber {
	return &Transcriber{chain: NewChain(primaryName, primary, breakerCfg)}
}

// Add appends a fallback transcription backend.
func (t *Transcriber) Add(name string, backend stt.Transcriber) {
	t.chain.Add(name, backend)
}

// Transcribe implements stt.Transcriber with failover across backends.
func (t *Transcriber) Transcribe(ctx context.Context, clip stt.Clip) (string, error) {
	return TryResult(t.chain, func(_ string, backend stt.Transcriber) (string, error) {
		return backend.Transcribe(ctx, clip)
	})
}
