// Package mock provides a scriptable stt.Transcriber for tests.
package mock

import (
	"context"
	"sync"

	"github.com/TheRemi120/runcoach/pkg/provider/stt"
)

// Transcriber implements stt.Transcriber with a scriptable function.
// The zero value returns empty text for every clip.
type Transcriber struct {
	// TranscribeFunc is invoked by Transcribe when non-nil.
	TranscribeFunc func(ctx context.Context, clip stt.Clip) (string, error)

	mu    sync.Mutex
	calls []stt.Clip
}

var _ stt.Transcriber = (*Transcriber)(nil)

// Transcribe implements stt.Transcriber and records the clip.
func (m *Transcriber) Transcribe(ctx context.Context, clip stt.Clip) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, clip)
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, clip)
	}
	return "", nil
}

// Calls returns a copy of all clips submitted so far.
func (m *Transcriber) Calls() []stt.Clip {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]stt.Clip, len(m.calls))
	copy(out, m.calls)
	return out
}
