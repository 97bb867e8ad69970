// Package chat defines the Completer interface for chat-completion backends.
//
// A completer wraps a hosted chat-completion API (the Hugging Face router, the
// Mistral API, or any OpenAI-compatible endpoint) behind a single
// request/response call. Streaming and tool calling are deliberately out of
// scope: the review pipeline only ever needs one bounded completion per call.
//
// Implementations must be safe for concurrent use and must propagate context
// cancellation promptly — callers bound worst-case latency with short
// deadlines.
package chat

import "context"

// Message is a single entry in the conversation sent to the model.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// Request carries everything the model needs to produce one completion.
type Request struct {
	// Messages is the ordered conversation. At minimum one user message.
	Messages []Message

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int

	// Temperature controls output randomness in [0.0, 2.0].
	Temperature float64
}

// Response is the full (non-streaming) completion result.
type Response struct {
	// Content is the text of the assistant's reply.
	Content string
}

// Completer is the abstraction over any chat-completion backend.
type Completer interface {
	// Complete sends req and waits for the full response. Returns a
	// *provider.ServiceError for remote failures; callers treat any error as a
	// signal to degrade, never to retry here.
	Complete(ctx context.Context, req Request) (*Response, error)
}
