// Package tts defines the text-to-speech provider interface used to voice
// coaching messages back to the athlete.
package tts

import "context"

// Speech is a synthesized audio payload.
type Speech struct {
	// Audio is the encoded audio, typically MPEG.
	Audio []byte
	// MIMEType describes the encoding, e.g. "audio/mpeg".
	MIMEType string
}

// Synthesizer converts text into speech.
type Synthesizer interface {
	// Synthesize renders text as audio. It blocks until the full payload is
	// available or ctx is done.
	Synthesize(ctx context.Context, text string) (*Speech, error)
}
