// Package stt defines the Transcriber interface for speech-to-text backends.
//
// A transcriber wraps a batch transcription service (e.g., ElevenLabs
// speech-to-text, or a local whisper.cpp server) behind a single
// request/response call. There is no streaming and no partial output: the
// caller finalizes a complete audio clip first, then submits it.
//
// Implementations must be safe for concurrent use and must not retry on their
// own — fallback across backends is composed at a higher layer.
package stt

import "context"

// Clip is a finalized, encoded audio recording ready for transcription.
type Clip struct {
	// Data is the complete encoded audio payload.
	Data []byte

	// MIMEType describes the encoding (e.g., "audio/webm;codecs=opus",
	// "audio/wav").
	MIMEType string

	// FileName is the name used in multipart uploads. Providers fall back to a
	// default when empty.
	FileName string
}

// Transcriber is the abstraction over any batch STT backend.
type Transcriber interface {
	// Transcribe submits the clip and returns the transcribed text. It is a
	// single request/response exchange; on a non-2xx answer it returns a
	// *provider.ServiceError carrying status and body, and it never retries.
	Transcribe(ctx context.Context, clip Clip) (string, error)
}
