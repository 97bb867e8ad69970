// Package anyllm provides a chat.Completer backed by
// github.com/mozilla-ai/any-llm-go, a unified multi-provider client. The
// service uses it for the Mistral backend that serves coaching motivation
// messages, but any supported provider name works.
//
// Usage:
//
//	c, err := anyllm.New("mistral", "mistral-small", anyllmlib.WithAPIKey("..."))
package anyllm

import (
	"context"
	"fmt"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/TheRemi120/runcoach/pkg/provider"
	"github.com/TheRemi120/runcoach/pkg/provider/chat"
)

// Completer implements chat.Completer by wrapping an any-llm-go provider.
type Completer struct {
	backend anyllmlib.Provider
	name    string
	model   string
}

var _ chat.Completer = (*Completer)(nil)

// New creates a Completer backed by the given provider name, one of
// "mistral", "openai", "groq", or "ollama". model is the specific model
// (e.g., "mistral-small"). opts are any-llm-go options such as
// anyllmlib.WithAPIKey and anyllmlib.WithBaseURL; without an API key option
// the provider falls back to its environment variable (MISTRAL_API_KEY etc.).
func New(providerName, model string, opts ...anyllmlib.Option) (*Completer, error) {
	if providerName == "" {
		return nil, fmt.Errorf("anyllm: providerName must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("anyllm: model must not be empty")
	}

	backend, err := createBackend(providerName, opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", providerName, err)
	}
	return &Completer{backend: backend, name: providerName, model: model}, nil
}

// createBackend creates the underlying any-llm-go provider.
func createBackend(providerName string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(providerName) {
	case "mistral":
		return mistral.New(opts...)
	case "openai":
		return anyllmoai.New(opts...)
	case "groq":
		return groq.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q; supported: mistral, openai, groq, ollama", providerName)
	}
}

// Complete implements chat.Completer.
func (c *Completer) Complete(ctx context.Context, req chat.Request) (*chat.Response, error) {
	params := anyllmlib.CompletionParams{
		Model:    c.model,
		Messages: convertMessages(req.Messages),
	}
	if req.Temperature != 0 {
		t := req.Temperature
		params.Temperature = &t
	}
	if req.MaxTokens > 0 {
		mt := req.MaxTokens
		params.MaxTokens = &mt
	}

	resp, err := c.backend.Completion(ctx, params)
	if err != nil {
		return nil, &provider.ServiceError{Service: c.name, Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &provider.ServiceError{Service: c.name, Err: fmt.Errorf("empty choices in response")}
	}

	return &chat.Response{Content: resp.Choices[0].Message.ContentString()}, nil
}

// convertMessages maps chat messages onto any-llm messages.
func convertMessages(msgs []chat.Message) []anyllmlib.Message {
	out := make([]anyllmlib.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, anyllmlib.Message{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return out
}
