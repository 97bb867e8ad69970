// Package openai provides a chat.Completer backed by the OpenAI Go SDK.
//
// Any OpenAI-compatible endpoint works through WithBaseURL; the service uses
// it to reach the Hugging Face inference router
// (https://router.huggingface.co/v1), which speaks the same chat-completions
// dialect.
package openai

import (
	"context"
	"errors"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/TheRemi120/runcoach/pkg/provider"
	"github.com/TheRemi120/runcoach/pkg/provider/chat"
)

// Completer implements chat.Completer using the OpenAI API client.
type Completer struct {
	client oai.Client
	model  string
}

var _ chat.Completer = (*Completer)(nil)

// config holds optional configuration for the completer.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Completer.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL. Required when
// targeting a compatible third-party endpoint such as the Hugging Face router.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a Completer. Returns a *provider.ConfigError when apiKey is
// empty and an error when model is empty.
func New(apiKey, model string, opts ...Option) (*Completer, error) {
	if apiKey == "" {
		return nil, &provider.ConfigError{Service: "openai"}
	}
	if model == "" {
		return nil, errEmptyModel
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Completer{client: oai.NewClient(reqOpts...), model: model}, nil
}

// Complete implements chat.Completer.
func (c *Completer) Complete(ctx context.Context, req chat.Request) (*chat.Response, error) {
	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: convertMessages(req.Messages),
	}
	if req.Temperature != 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, &provider.ServiceError{Service: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &provider.ServiceError{Service: "openai", Err: errEmptyChoices}
	}

	return &chat.Response{Content: resp.Choices[0].Message.Content}, nil
}

// convertMessages maps chat messages onto SDK message params. Unknown roles
// are sent as user messages rather than rejected.
func convertMessages(msgs []chat.Message) []oai.ChatCompletionMessageParamUnion {
	out := make([]oai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, oai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, oai.AssistantMessage(m.Content))
		default:
			out = append(out, oai.UserMessage(m.Content))
		}
	}
	return out
}

var (
	errEmptyModel   = errors.New("openai: model must not be empty")
	errEmptyChoices = errors.New("empty choices in response")
)
