// Package elevenlabs provides an ElevenLabs-backed batch transcriber using
// the speech-to-text REST endpoint. It implements the stt.Transcriber interface.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/TheRemi120/runcoach/pkg/provider"
	"github.com/TheRemi120/runcoach/pkg/provider/stt"
)

const (
	defaultEndpoint = "https://api.elevenlabs.io/v1/speech-to-text"
	defaultModel    = "scribe_v1"
	defaultFileName = "recording.webm"

	// maxErrorBody caps how much of an error response body is carried in a
	// ServiceError.
	maxErrorBody = 512
)

// Option is a functional option for configuring the ElevenLabs Transcriber.
type Option func(*Transcriber)

// WithEndpoint overrides the default speech-to-text endpoint URL. Used by
// tests to point at a local server.
func WithEndpoint(url string) Option {
	return func(t *Transcriber) {
		t.endpoint = url
	}
}

// WithModel sets the ElevenLabs transcription model identifier.
func WithModel(model string) Option {
	return func(t *Transcriber) {
		t.model = model
	}
}

// WithHTTPClient replaces the HTTP client. The default has no timeout; the
// caller bounds the request through ctx.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transcriber) {
		t.httpClient = c
	}
}

// Transcriber implements stt.Transcriber backed by the ElevenLabs
// speech-to-text API.
type Transcriber struct {
	apiKey     string
	endpoint   string
	model      string
	httpClient *http.Client
}

var _ stt.Transcriber = (*Transcriber)(nil)

// New creates a new ElevenLabs Transcriber. Returns a *provider.ConfigError
// when apiKey is empty.
func New(apiKey string, opts ...Option) (*Transcriber, error) {
	if apiKey == "" {
		return nil, &provider.ConfigError{Service: "elevenlabs"}
	}
	t := &Transcriber{
		apiKey:     apiKey,
		endpoint:   defaultEndpoint,
		model:      defaultModel,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// sttResponse is the JSON body returned by the speech-to-text endpoint.
type sttResponse struct {
	Text string `json:"text"`
}

// Transcribe implements stt.Transcriber. The clip is uploaded as
// multipart/form-data with the audio payload and the model identifier;
// authentication uses the xi-api-key header.
func (t *Transcriber) Transcribe(ctx context.Context, clip stt.Clip) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	name := clip.FileName
	if name == "" {
		name = defaultFileName
	}
	fw, err := mw.CreateFormFile("audio", name)
	if err != nil {
		return "", fmt.Errorf("elevenlabs: create form file: %w", err)
	}
	if _, err := fw.Write(clip.Data); err != nil {
		return "", fmt.Errorf("elevenlabs: write audio data: %w", err)
	}
	if err := mw.WriteField("model_id", t.model); err != nil {
		return "", fmt.Errorf("elevenlabs: write model field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("elevenlabs: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("elevenlabs: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("xi-api-key", t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", &provider.ServiceError{Service: "elevenlabs", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &provider.ServiceError{
			Service: "elevenlabs",
			Status:  resp.StatusCode,
			Body:    string(snippet),
		}
	}

	var result sttResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &provider.ServiceError{
			Service: "elevenlabs",
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("decode response: %w", err),
		}
	}
	return result.Text, nil
}
