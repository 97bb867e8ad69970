package review

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

const (
	// maxBullets caps how many sentences the formatter keeps.
	maxBullets = 5
	// minFragmentLen drops fragments shorter than this after trimming.
	minFragmentLen = 6
	// defaultScore is used when no numeric context is available.
	defaultScore = 5

	sentimentStep = 0.8
	paceWeight    = 0.3
	sentWeight    = 0.7
)

// Keyword lexicon for the sentiment sub-score. Matching is on whole
// lowercased words, so "easily" does not count as "easy".
var (
	positiveWords = map[string]bool{
		"amazing": true, "awesome": true, "excellent": true,
		"fantastic": true, "fast": true, "fresh": true,
		"good": true, "great": true, "relaxed": true,
		"smooth": true, "solid": true, "strong": true,
	}
	negativeWords = map[string]bool{
		"bad": true, "cramp": true, "exhausted": true,
		"heavy": true, "hurt": true, "injured": true,
		"painful": true, "slow": true, "sore": true,
		"struggled": true, "tired": true, "weak": true,
	}
)

// formatBullets converts free text into hyphen-prefixed bullet lines: split on
// sentence-terminating punctuation, trim, drop short fragments, keep the first
// five, capitalize. If nothing survives the filter the whole input is wrapped
// in a single line.
func formatBullets(text string) string {
	fragments := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var lines []string
	for _, f := range fragments {
		f = strings.TrimSpace(f)
		if len(f) < minFragmentLen {
			continue
		}
		lines = append(lines, "- "+capitalize(f))
		if len(lines) == maxBullets {
			break
		}
	}
	if len(lines) == 0 {
		return strings.TrimSpace(fmt.Sprintf("- Training session: %s", strings.TrimSpace(text)))
	}
	return strings.Join(lines, "\n")
}

// capitalize upper-cases the first rune of s.
func capitalize(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// paceScore maps pace (minutes per kilometer) onto a step function in [4,9].
// Faster pace bands map to monotonically higher scores.
func paceScore(pace float64) float64 {
	switch {
	case pace <= 4:
		return 9
	case pace <= 5:
		return 8
	case pace <= 6:
		return 7
	case pace <= 7:
		return 6
	case pace <= 8:
		return 5
	default:
		return 4
	}
}

// sentimentScore derives a lexical sentiment sub-score from whole-word keyword
// hits: base 5, +0.8 per positive hit, -0.8 per negative hit, clamped to
// [1,10].
func sentimentScore(text string) float64 {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	score := 5.0
	for _, w := range words {
		if positiveWords[w] {
			score += sentimentStep
		}
		if negativeWords[w] {
			score -= sentimentStep
		}
	}
	return clampFloat(score, 1, 10)
}

// blendedScore combines the pace sub-score (30%) with the sentiment sub-score
// (70%), rounds, and clamps to [1,10].
func blendedScore(text string, distanceKm, durationMin float64) int {
	pace := durationMin / distanceKm
	blend := paceWeight*paceScore(pace) + sentWeight*sentimentScore(text)
	return clampInt(int(math.Round(blend)), 1, 10)
}

// BasicPaceScore is the coarse score used when only the raw transcript can be
// persisted: 7 for pace at or under 5 min/km, 6 up to 6, 4 at 8 or above, 5
// otherwise. Without numeric context it is the middle score.
func BasicPaceScore(distanceKm, durationMin float64) int {
	if distanceKm <= 0 || durationMin <= 0 {
		return defaultScore
	}
	pace := durationMin / distanceKm
	switch {
	case pace <= 5:
		return 7
	case pace <= 6:
		return 6
	case pace >= 8:
		return 4
	default:
		return defaultScore
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
