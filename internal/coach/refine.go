package coach

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/TheRemi120/runcoach/pkg/provider/chat"
)

const refineSystemPrompt = "You are an experienced running coach. Improve coaching messages to make them " +
	"more motivational and specific. Always respond in English only. Include specific training details " +
	"like pace, form, and actionable advice."

const (
	refineMaxTokens   = 120
	refineTemperature = 0.6
	refineMinLength   = 30
)

// promptEchoes are fragments of the refinement prompt itself; a response
// containing any of them is the model parroting instructions and is rejected.
var promptEchoes = []string{
	"improve this",
	"coaching message",
	"max 2 sentences",
	"training details",
	"performance analysis",
}

// trainingTerms is the concrete vocabulary a usable refinement must mention.
var trainingTerms = []string{
	"pace", "form", "breathing", "cadence", "effort", "stride",
	"midfoot", "core", "shoulders", "steps per minute", "%", "tempo",
	"rhythm", "technique", "posture", "landing",
}

var (
	listPrefixRe   = regexp.MustCompile(`(?m)^[•\-\*]\s*`)
	numberPrefixRe = regexp.MustCompile(`(?m)^\d+\.\s*`)
	quoteWrapRe    = regexp.MustCompile(`(?s)^["'](.*)["']$`)
)

// refine asks the model for a sharper version of the template message. The
// second return value reports whether the refinement passed the quality gate;
// on false the caller keeps the template message.
func (c *Coach) refine(ctx context.Context, rec Recommendation) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.refineTimeout)
	defer cancel()

	user := fmt.Sprintf(`Improve this running coaching message (max 2 sentences in English, be specific about training details):

Performance Analysis:
- Category: %s
- Average Score: %.1f/10
- Recommended Laps: %s

Original Message: %q

Make it more specific with actionable training advice (pace, technique, goals).`,
		rec.Category, rec.AverageScore, rec.RecommendedLaps, rec.Message)

	resp, err := c.completer.Complete(ctx, chat.Request{
		Messages: []chat.Message{
			{Role: "system", Content: refineSystemPrompt},
			{Role: "user", Content: user},
		},
		MaxTokens:   refineMaxTokens,
		Temperature: refineTemperature,
	})
	if err != nil {
		c.log.Warn("coach refinement failed", "error", err)
		if c.metrics != nil {
			c.metrics.RecordProviderError(ctx, "chat", "refine")
		}
		return "", false
	}

	refined := cleanRefined(resp.Content)
	if !usableRefinement(refined, rec.Message) {
		c.log.Warn("coach refinement rejected by quality gate")
		return "", false
	}
	return refined, true
}

// cleanRefined strips list markers, numbering, and wrapping quotes, and keeps
// only the first paragraph.
func cleanRefined(s string) string {
	s = strings.TrimSpace(s)
	s = listPrefixRe.ReplaceAllString(s, "")
	s = numberPrefixRe.ReplaceAllString(s, "")
	s = quoteWrapRe.ReplaceAllString(s, "$1")
	s, _, _ = strings.Cut(s, "\n\n")
	return strings.TrimSpace(s)
}

// usableRefinement is the quality gate: the refinement must differ from the
// template, be long enough, not echo the prompt, and mention at least one
// concrete training term.
func usableRefinement(refined, original string) bool {
	if refined == "" || refined == original || len(refined) < refineMinLength {
		return false
	}
	lower := strings.ToLower(refined)
	for _, echo := range promptEchoes {
		if strings.Contains(lower, echo) {
			return false
		}
	}
	for _, term := range trainingTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
