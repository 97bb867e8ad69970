// Package elevenlabs provides an ElevenLabs-backed tts.Synthesizer using the
// non-streaming text-to-speech endpoint. Coaching messages are short, so a
// single request/response round trip is sufficient.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/TheRemi120/runcoach/pkg/provider"
	"github.com/TheRemi120/runcoach/pkg/provider/tts"
)

const (
	defaultEndpoint = "https://api.elevenlabs.io/v1/text-to-speech"
	defaultModel    = "eleven_monolingual_v1"

	// maxErrorBody bounds how much of an error response is kept for reporting.
	maxErrorBody = 512
)

// Option is a functional option for configuring the Synthesizer.
type Option func(*Synthesizer)

// WithEndpoint overrides the API base URL. Useful for tests.
func WithEndpoint(url string) Option {
	return func(s *Synthesizer) {
		s.endpoint = url
	}
}

// WithModel sets the ElevenLabs model ID (e.g., "eleven_multilingual_v2").
func WithModel(model string) Option {
	return func(s *Synthesizer) {
		s.model = model
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Synthesizer) {
		s.httpClient = c
	}
}

// Synthesizer implements tts.Synthesizer backed by the ElevenLabs API.
type Synthesizer struct {
	apiKey     string
	voiceID    string
	endpoint   string
	model      string
	httpClient *http.Client
}

var _ tts.Synthesizer = (*Synthesizer)(nil)

// New creates a new Synthesizer. apiKey and voiceID must be non-empty.
func New(apiKey, voiceID string, opts ...Option) (*Synthesizer, error) {
	if apiKey == "" {
		return nil, &provider.ConfigError{Service: "elevenlabs-tts"}
	}
	if voiceID == "" {
		return nil, errors.New("elevenlabs: voiceID must not be empty")
	}
	s := &Synthesizer{
		apiKey:     apiKey,
		voiceID:    voiceID,
		endpoint:   defaultEndpoint,
		model:      defaultModel,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// synthesizeRequest is the JSON body for the text-to-speech endpoint.
type synthesizeRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// voiceSettings mirrors the ElevenLabs voice_settings object.
type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize implements tts.Synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (*tts.Speech, error) {
	if text == "" {
		return nil, errors.New("elevenlabs: text must not be empty")
	}

	body, err := json.Marshal(synthesizeRequest{
		Text:    text,
		ModelID: s.model,
		VoiceSettings: voiceSettings{
			Stability:       0.6,
			SimilarityBoost: 0.8,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s", s.endpoint, s.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: create request: %w", err)
	}
	req.Header.Set("xi-api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &provider.ServiceError{Service: "elevenlabs-tts", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &provider.ServiceError{
			Service: "elevenlabs-tts",
			Status:  resp.StatusCode,
			Body:    string(snippet),
		}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.ServiceError{Service: "elevenlabs-tts", Err: fmt.Errorf("read audio: %w", err)}
	}
	return &tts.Speech{Audio: audio, MIMEType: "audio/mpeg"}, nil
}
