// Package review turns a free-form transcript into bullet-point text plus a
// performance score. The primary path asks a chat-completion model; every
// failure there degrades to a local heuristic, so Structure never returns an
// error for ordinary processing failures.
package review

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/TheRemi120/runcoach/pkg/provider/chat"
)

// Source identifies which path produced a Result.
type Source string

const (
	// SourceModel means the chat model produced the structured output.
	SourceModel Source = "model"
	// SourceHeuristic means the local fallback produced the output.
	SourceHeuristic Source = "heuristic"
)

// Result is the outcome of structuring a transcript. It is always usable:
// BulletText is non-empty for non-empty input and Score is within [1,10].
// Source and FallbackReason let callers distinguish a model success from a
// degraded run without sniffing message strings.
type Result struct {
	BulletText     string
	Score          int
	Source         Source
	FallbackReason string
}

// Degraded reports whether the heuristic path produced this result.
func (r Result) Degraded() bool {
	return r.Source == SourceHeuristic
}

const (
	defaultTimeout   = 5 * time.Second
	completionTokens = 300
	temperature      = 0.3
)

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout bounds the primary-path completion call.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// Engine structures transcripts. A nil completer disables the primary path
// entirely; the heuristic still works.
type Engine struct {
	completer chat.Completer
	timeout   time.Duration
	log       *slog.Logger
}

// NewEngine creates an Engine using completer for the primary path.
func NewEngine(completer chat.Completer, opts ...Option) *Engine {
	e := &Engine{
		completer: completer,
		timeout:   defaultTimeout,
		log:       slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Structure converts text into bullet points and a score. distanceKm and
// durationMin are optional context; zero (or negative) means absent. The
// primary model path runs only when both are present; otherwise, or on any
// primary-path failure, the local heuristic produces the result.
func (e *Engine) Structure(ctx context.Context, text string, distanceKm, durationMin float64) Result {
	hasContext := distanceKm > 0 && durationMin > 0

	if hasContext && e.completer != nil {
		res, reason := e.complete(ctx, text, distanceKm, durationMin)
		if reason == "" {
			return res
		}
		e.log.Warn("structuring primary path degraded", "reason", reason)
		return e.heuristic(text, distanceKm, durationMin, reason)
	}

	reason := ""
	if !hasContext {
		reason = "no numeric context"
	} else {
		reason = "no completer configured"
	}
	return e.heuristic(text, distanceKm, durationMin, reason)
}

// complete runs the primary model path. A non-empty reason means the path did
// not yield a usable structured result.
func (e *Engine) complete(ctx context.Context, text string, distanceKm, durationMin float64) (Result, string) {
	payload, err := json.Marshal(structuredInput{
		DistanceKm:  distanceKm,
		DurationMin: durationMin,
		ReviewText:  text,
	})
	if err != nil {
		return Result{}, "marshal input: " + err.Error()
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.completer.Complete(ctx, chat.Request{
		Messages: []chat.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(payload)},
		},
		MaxTokens:   completionTokens,
		Temperature: temperature,
	})
	if err != nil {
		return Result{}, "completion: " + err.Error()
	}

	var out structuredOutput
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Content)), &out); err != nil {
		return Result{}, "decode response: " + err.Error()
	}
	if len(out.BulletPoints) == 0 {
		return Result{}, "response missing bullet_points"
	}
	if out.Score < 1 || out.Score > 10 {
		return Result{}, "response score out of range"
	}

	lines := make([]string, 0, len(out.BulletPoints))
	for _, p := range out.BulletPoints {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "-") {
			p = "- " + p
		}
		lines = append(lines, p)
	}
	if len(lines) == 0 {
		return Result{}, "response bullet_points all empty"
	}

	return Result{
		BulletText: strings.Join(lines, "\n"),
		Score:      out.Score,
		Source:     SourceModel,
	}, ""
}

// heuristic runs the local fallback path.
func (e *Engine) heuristic(text string, distanceKm, durationMin float64, reason string) Result {
	score := defaultScore
	if distanceKm > 0 && durationMin > 0 {
		score = blendedScore(text, distanceKm, durationMin)
	}
	return Result{
		BulletText:     formatBullets(text),
		Score:          score,
		Source:         SourceHeuristic,
		FallbackReason: reason,
	}
}
