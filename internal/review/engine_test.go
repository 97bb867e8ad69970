package review

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/TheRemi120/runcoach/pkg/provider/chat"
	"github.com/TheRemi120/runcoach/pkg/provider/chat/mock"
)

func TestStructureModelPath(t *testing.T) {
	completer := mock.Static(`{"bullet_points": ["Felt strong", "- Good pace"], "score": 8}`)
	e := NewEngine(completer)

	res := e.Structure(context.Background(), "felt strong, good pace", 5, 25)

	if res.Source != SourceModel {
		t.Fatalf("Source = %q, want %q (reason %q)", res.Source, SourceModel, res.FallbackReason)
	}
	if res.Score != 8 {
		t.Errorf("Score = %d, want 8", res.Score)
	}
	want := "- Felt strong\n- Good pace"
	if res.BulletText != want {
		t.Errorf("BulletText = %q, want %q", res.BulletText, want)
	}
	if res.Degraded() {
		t.Error("Degraded() = true for model result")
	}
}

func TestStructureFallsBackOnBadResponses(t *testing.T) {
	tests := []struct {
		name     string
		complete func(context.Context, chat.Request) (*chat.Response, error)
	}{
		{
			name: "not json",
			complete: func(context.Context, chat.Request) (*chat.Response, error) {
				return &chat.Response{Content: "Sure! Here are your bullet points:"}, nil
			},
		},
		{
			name: "missing bullet_points",
			complete: func(context.Context, chat.Request) (*chat.Response, error) {
				return &chat.Response{Content: `{"score": 7}`}, nil
			},
		},
		{
			name: "score out of range",
			complete: func(context.Context, chat.Request) (*chat.Response, error) {
				return &chat.Response{Content: `{"bullet_points": ["ok run"], "score": 42}`}, nil
			},
		},
		{
			name: "request error",
			complete: func(context.Context, chat.Request) (*chat.Response, error) {
				return nil, errors.New("boom")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(&mock.Completer{CompleteFunc: tt.complete})
			res := e.Structure(context.Background(), "Solid run today. Legs felt fresh.", 5, 25)

			if res.Source != SourceHeuristic {
				t.Fatalf("Source = %q, want %q", res.Source, SourceHeuristic)
			}
			if res.FallbackReason == "" {
				t.Error("FallbackReason empty on degraded run")
			}
			if res.BulletText == "" {
				t.Error("BulletText empty")
			}
			if res.Score < 1 || res.Score > 10 {
				t.Errorf("Score = %d, out of [1,10]", res.Score)
			}
		})
	}
}

func TestStructureSkipsModelWithoutContext(t *testing.T) {
	completer := &mock.Completer{}
	e := NewEngine(completer)

	res := e.Structure(context.Background(), "Nice easy recovery jog around the park.", 0, 0)

	if got := len(completer.Calls()); got != 0 {
		t.Errorf("completer called %d times, want 0", got)
	}
	if res.Source != SourceHeuristic {
		t.Errorf("Source = %q, want %q", res.Source, SourceHeuristic)
	}
	if res.Score != 5 {
		t.Errorf("Score = %d, want default 5", res.Score)
	}
}

func TestStructureEmptyTranscript(t *testing.T) {
	e := NewEngine(nil)
	res := e.Structure(context.Background(), "", 0, 0)

	if res.BulletText != "- Training session:" {
		t.Errorf("BulletText = %q", res.BulletText)
	}
	if res.Score != 5 {
		t.Errorf("Score = %d, want 5", res.Score)
	}
}

func TestStructureBlendedScenario(t *testing.T) {
	// 5 km in 20 min is a 4 min/km pace (sub-score 9); "great" and "strong"
	// are the only lexicon hits, so sentiment is 6.6 and the blend rounds
	// to 7.
	e := NewEngine(nil)
	res := e.Structure(context.Background(), "Felt great, strong pace, finished easily.", 5, 20)

	if res.Score != 7 {
		t.Errorf("Score = %d, want 7", res.Score)
	}
}

func TestFormatBullets(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "capitalizes and prefixes",
			in:   "felt strong today. pace was steady.",
			want: "- Felt strong today\n- Pace was steady",
		},
		{
			name: "drops short fragments",
			in:   "ok. great long run through the hills!",
			want: "- Great long run through the hills",
		},
		{
			name: "wraps when nothing survives",
			in:   "ok. no.",
			want: "- Training session: ok. no.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatBullets(tt.in); got != tt.want {
				t.Errorf("formatBullets(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatBulletsCapsAtFive(t *testing.T) {
	in := "first sentence here. second sentence here. third sentence here. " +
		"fourth sentence here. fifth sentence here. sixth sentence here."
	got := formatBullets(in)
	lines := strings.Split(got, "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5:\n%s", len(lines), got)
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "- ") || len(l) == 2 {
			t.Errorf("bad bullet line %q", l)
		}
	}
}

func TestPaceScoreMonotonic(t *testing.T) {
	paces := []float64{3, 4, 4.5, 5, 5.5, 6, 6.5, 7, 7.5, 8, 9, 12}
	prev := 10.0
	for _, p := range paces {
		got := paceScore(p)
		if got < 4 || got > 9 {
			t.Errorf("paceScore(%v) = %v, out of [4,9]", p, got)
		}
		if got > prev {
			t.Errorf("paceScore(%v) = %v, not non-increasing (prev %v)", p, got, prev)
		}
		prev = got
	}
}

func TestSentimentScoreClamps(t *testing.T) {
	pos := strings.Repeat("great strong fantastic excellent amazing ", 5)
	if got := sentimentScore(pos); got != 10 {
		t.Errorf("sentimentScore(positive flood) = %v, want 10", got)
	}
	neg := strings.Repeat("tired sore painful exhausted injured ", 5)
	if got := sentimentScore(neg); got != 1 {
		t.Errorf("sentimentScore(negative flood) = %v, want 1", got)
	}
	if got := sentimentScore("finished the usual loop"); got != 5 {
		t.Errorf("sentimentScore(neutral) = %v, want 5", got)
	}
}

func TestSentimentMatchesWholeWords(t *testing.T) {
	// "easily" must not count as a hit even though "easy"-like words read
	// positive; matching is exact per word.
	if got := sentimentScore("finished easily"); got != 5 {
		t.Errorf("sentimentScore = %v, want 5", got)
	}
}

func TestBlendedScoreClamps(t *testing.T) {
	pos := strings.Repeat("great strong fantastic ", 10)
	if got := blendedScore(pos, 5, 15); got < 1 || got > 10 {
		t.Errorf("blendedScore(positive flood) = %d, out of [1,10]", got)
	}
	neg := strings.Repeat("tired sore injured ", 10)
	if got := blendedScore(neg, 5, 60); got < 1 || got > 10 {
		t.Errorf("blendedScore(negative flood) = %d, out of [1,10]", got)
	}
}

func TestBasicPaceScore(t *testing.T) {
	tests := []struct {
		distance, duration float64
		want               int
	}{
		{5, 20, 7},  // 4 min/km
		{5, 25, 7},  // 5 min/km
		{5, 30, 6},  // 6 min/km
		{5, 35, 5},  // 7 min/km
		{5, 40, 4},  // 8 min/km
		{5, 50, 4},  // 10 min/km
		{0, 0, 5},   // no context
		{-1, -1, 5}, // skipped
	}
	for _, tt := range tests {
		if got := BasicPaceScore(tt.distance, tt.duration); got != tt.want {
			t.Errorf("BasicPaceScore(%v, %v) = %d, want %d", tt.distance, tt.duration, got, tt.want)
		}
	}
}
