// Package coach turns an athlete's recent scored activities into a training
// recommendation: a lap target, reasoning, and a motivational message. The
// message can optionally be refined by a chat model and voiced through TTS;
// both steps are best-effort and never fail the request.
package coach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/TheRemi120/runcoach/internal/activity"
	"github.com/TheRemi120/runcoach/internal/observe"
	"github.com/TheRemi120/runcoach/pkg/provider/chat"
	"github.com/TheRemi120/runcoach/pkg/provider/tts"
)

// Category buckets the recent average score.
type Category string

const (
	CategoryUnderperforming Category = "underperforming"
	CategoryModerate        Category = "moderate"
	CategoryHigh            Category = "high"
)

// recentLimit is how many recent scored activities feed the analysis.
const recentLimit = 5

// Recommendation is the template-derived analysis of recent performance.
type Recommendation struct {
	Category        Category
	AverageScore    float64
	RecommendedLaps string
	Reasoning       string
	Message         string
}

// Advice is the final coaching output. Message equals the recommendation's
// template message unless the model refinement passed the quality gate, in
// which case Refined is true. Speech carries the optional TTS rendering.
type Advice struct {
	Recommendation Recommendation
	Message        string
	Refined        bool
	Speech         *tts.Speech
}

// Option configures a Coach.
type Option func(*Coach)

// WithCompleter enables model refinement of the coaching message.
func WithCompleter(c chat.Completer) Option {
	return func(co *Coach) {
		co.completer = c
	}
}

// WithSynthesizer enables TTS rendering of the final message.
func WithSynthesizer(s tts.Synthesizer) Option {
	return func(co *Coach) {
		co.synth = s
	}
}

// WithMetrics enables metric recording.
func WithMetrics(m *observe.Metrics) Option {
	return func(co *Coach) {
		co.metrics = m
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(co *Coach) {
		co.log = log
	}
}

// Coach produces training advice from the activity store.
type Coach struct {
	store     activity.Store
	completer chat.Completer
	synth     tts.Synthesizer
	metrics   *observe.Metrics
	log       *slog.Logger

	refineTimeout time.Duration
	synthTimeout  time.Duration
}

// New creates a Coach reading from store.
func New(store activity.Store, opts ...Option) *Coach {
	c := &Coach{
		store:         store,
		log:           slog.Default(),
		refineTimeout: 3 * time.Second,
		synthTimeout:  8 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Advise analyzes the owner's recent scored activities and returns coaching
// advice. Only the store read can fail; refinement and speech degrade
// silently to the template message.
func (c *Coach) Advise(ctx context.Context, ownerID string) (*Advice, error) {
	records, err := c.store.RecentReviewed(ctx, ownerID, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("coach: load recent activities: %w", err)
	}

	rec := analyze(records)
	advice := &Advice{Recommendation: rec, Message: rec.Message}

	if c.completer != nil {
		if refined, ok := c.refine(ctx, rec); ok {
			advice.Message = refined
			advice.Refined = true
		}
	}
	if c.metrics != nil {
		c.metrics.RecordCoachRequest(ctx, advice.Refined)
	}

	if c.synth != nil {
		advice.Speech = c.speak(ctx, advice.Message)
	}
	return advice, nil
}

// analyze buckets the average of the recent scores and builds the template
// recommendation.
func analyze(records []activity.Record) Recommendation {
	if len(records) == 0 {
		return Recommendation{
			Category:        CategoryModerate,
			AverageScore:    5,
			RecommendedLaps: "3-4",
			Reasoning:       "No recent activities found - starting with baseline assessment.",
			Message: "Ready to start your running journey? Let's begin with a comfortable 3-4 lap " +
				"session to establish your baseline. Focus on maintaining a steady pace and listening to your body.",
		}
	}

	if len(records) > recentLimit {
		records = records[:recentLimit]
	}

	var sum float64
	scores := make([]string, 0, len(records))
	for _, r := range records {
		if r.Score == nil {
			continue
		}
		sum += float64(*r.Score)
		scores = append(scores, fmt.Sprintf("%d/10", *r.Score))
	}
	if len(scores) == 0 {
		return analyze(nil)
	}
	avg := sum / float64(len(scores))

	rec := Recommendation{AverageScore: avg}
	switch {
	case avg <= 4:
		rec.Category = CategoryUnderperforming
		rec.RecommendedLaps = "2-3"
		rec.Reasoning = fmt.Sprintf("Recent average score of %.1f/10 indicates you need recovery time and lighter training load.", avg)
	case avg < 8:
		rec.Category = CategoryModerate
		rec.RecommendedLaps = "4-5"
		rec.Reasoning = fmt.Sprintf("Your %.1f/10 average shows steady performance. Maintain consistent effort to build endurance.", avg)
	default:
		rec.Category = CategoryHigh
		rec.RecommendedLaps = "6-7"
		rec.Reasoning = fmt.Sprintf("Excellent %.1f/10 average! You're ready for a more challenging session.", avg)
	}

	prefix := fmt.Sprintf("Based on your recent scores (%s), ", strings.Join(scores, ", "))
	switch rec.Category {
	case CategoryUnderperforming:
		rec.Message = prefix + fmt.Sprintf("let's dial it back today: aim for %s relaxed laps focusing on steady pacing and recovery. "+
			"You'll build strength without overtaxing yourself.", rec.RecommendedLaps)
	case CategoryModerate:
		rec.Message = prefix + fmt.Sprintf("let's maintain steady progress: target %s laps with consistent effort. "+
			"Focus on maintaining good form and breathing rhythm.", rec.RecommendedLaps)
	default:
		rec.Message = prefix + fmt.Sprintf("you're ready to push harder: challenge yourself with %s laps. "+
			"Increase your pace gradually and see how strong you feel today!", rec.RecommendedLaps)
	}
	return rec
}

// speak renders the message as audio, best-effort.
func (c *Coach) speak(ctx context.Context, message string) *tts.Speech {
	if len(strings.TrimSpace(message)) < 10 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.synthTimeout)
	defer cancel()

	speech, err := c.synth.Synthesize(ctx, message)
	if err != nil {
		c.log.Warn("coach speech synthesis failed", "error", err)
		if c.metrics != nil {
			c.metrics.RecordProviderError(ctx, "tts", "synthesize")
		}
		return nil
	}
	return speech
}
