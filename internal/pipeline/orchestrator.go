// Package pipeline sequences a voice review end to end: capture →
// transcription → structuring → persistence. The orchestrator owns an
// explicit state machine; observers receive every transition so callers can
// surface progress without reaching into internals.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/TheRemi120/runcoach/internal/activity"
	"github.com/TheRemi120/runcoach/internal/observe"
	"github.com/TheRemi120/runcoach/internal/review"
	"github.com/TheRemi120/runcoach/pkg/capture"
	"github.com/TheRemi120/runcoach/pkg/provider/stt"
)

// Params is the pre-recording numeric context for a run. Either both values
// are positive, or Skip marks them intentionally omitted.
type Params struct {
	DistanceKm  float64
	DurationMin float64
	Skip        bool
}

// Validate checks the context before any side effect: values must be numeric
// and positive unless Skip is set.
func (p Params) Validate() error {
	if p.Skip {
		return nil
	}
	if math.IsNaN(p.DistanceKm) || math.IsInf(p.DistanceKm, 0) || p.DistanceKm <= 0 {
		return &ValidationError{Field: "distance_km", Reason: "must be a positive number"}
	}
	if math.IsNaN(p.DurationMin) || math.IsInf(p.DurationMin, 0) || p.DurationMin <= 0 {
		return &ValidationError{Field: "duration_min", Reason: "must be a positive number"}
	}
	return nil
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.log = log
	}
}

// WithMetrics enables metric recording.
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// Orchestrator runs voice reviews. At most one run is in flight at a time; a
// second start while not idle is rejected with ErrBusy.
type Orchestrator struct {
	transcriber stt.Transcriber
	engine      *review.Engine
	store       activity.Store
	metrics     *observe.Metrics
	log         *slog.Logger

	mu        sync.Mutex
	state     State
	observers map[int]Observer
	nextObsID int

	// per-run
	recorder *capture.Recorder
	ownerID  string
	params   Params
}

// New creates an Orchestrator.
func New(transcriber stt.Transcriber, engine *review.Engine, store activity.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		transcriber: transcriber,
		engine:      engine,
		store:       store,
		log:         slog.Default(),
		state:       StateIdle,
		observers:   make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current pipeline state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Subscribe registers an observer for state transitions and returns a
// function that removes it.
func (o *Orchestrator) Subscribe(obs Observer) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextObsID
	o.nextObsID++
	o.observers[id] = obs
	o.mu.Unlock()
	return func() {
		o.mu.Lock()
		delete(o.observers, id)
		o.mu.Unlock()
	}
}

// transition moves to the given state and notifies observers. notify is split
// out of the lock so observers may call State().
func (o *Orchestrator) transition(to State) {
	o.mu.Lock()
	from := o.state
	o.state = to
	obs := make([]Observer, 0, len(o.observers))
	for _, ob := range o.observers {
		obs = append(obs, ob)
	}
	o.mu.Unlock()

	tr := Transition{From: from, To: to}
	for _, ob := range obs {
		ob(tr)
	}
}

// Start validates params, acquires the audio source, and begins recording.
// It fails with a *ValidationError before any side effect when params are
// invalid, with ErrBusy when a run is in flight, and with an error wrapping
// capture.ErrPermission when the source cannot be acquired.
func (o *Orchestrator) Start(ctx context.Context, ownerID string, source capture.Source, params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}

	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return ErrBusy
	}
	rec := capture.NewRecorder(source)
	o.recorder = rec
	o.ownerID = ownerID
	o.params = params
	o.mu.Unlock()

	o.transition(StateRecording)

	if err := rec.Start(ctx); err != nil {
		o.fail(ctx, err)
		return err
	}
	return nil
}

// Finish stops the recording and runs the rest of the pipeline: transcribe,
// structure, persist. On success the new record is returned and the
// orchestrator is immediately ready for the next run; on any error the
// orchestrator returns to idle and in-flight data is discarded.
func (o *Orchestrator) Finish(ctx context.Context) (*activity.Record, error) {
	o.mu.Lock()
	if o.state != StateRecording {
		o.mu.Unlock()
		return nil, fmt.Errorf("pipeline: finish in state %q", o.state)
	}
	rec := o.recorder
	ownerID := o.ownerID
	params := o.params
	o.mu.Unlock()

	clip, err := rec.Stop()
	if err != nil {
		return nil, o.fail(ctx, err)
	}

	// Transcribe.
	o.transition(StateTranscribing)
	start := time.Now()
	text, err := o.transcriber.Transcribe(ctx, stt.Clip{Data: clip.Data, MIMEType: clip.MIMEType})
	o.recordStage(ctx, "transcribing", start)
	if err != nil {
		return nil, o.fail(ctx, fmt.Errorf("pipeline: transcribe: %w", err))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, o.fail(ctx, ErrEmptyTranscript)
	}

	// Structure. The engine absorbs its own failures; the result is always
	// usable and tagged with the path that produced it.
	o.transition(StateStructuring)
	start = time.Now()
	distance, duration := params.DistanceKm, params.DurationMin
	if params.Skip {
		distance, duration = 0, 0
	}
	res := o.engine.Structure(ctx, text, distance, duration)
	o.recordStage(ctx, "structuring", start)
	if o.metrics != nil {
		o.metrics.RecordStructuring(ctx, string(res.Source))
	}
	if res.Degraded() {
		o.log.Warn("structuring degraded", "reason", res.FallbackReason)
	}

	// Persist.
	o.transition(StatePersisting)
	start = time.Now()
	record, err := o.store.CreateReviewed(ctx, o.buildRecord(ownerID, params, text, res))
	o.recordStage(ctx, "persisting", start)
	if err != nil {
		// Known gap: the structured text is lost when the final write
		// fails. There is no compensating retry.
		return nil, o.fail(ctx, fmt.Errorf("pipeline: persist: %w", err))
	}

	o.transition(StateComplete)
	if o.metrics != nil {
		o.metrics.RecordRun(ctx, "complete")
	}

	// Complete is momentary; the orchestrator is immediately idle for the
	// next run. Observers see the run end at complete.
	o.mu.Lock()
	o.state = StateIdle
	o.recorder = nil
	o.mu.Unlock()

	return &record, nil
}

// Run executes one full pipeline run over a finalized audio source, typically
// an upload. It is Start followed by Finish.
func (o *Orchestrator) Run(ctx context.Context, ownerID string, source capture.Source, params Params) (*activity.Record, error) {
	if err := o.Start(ctx, ownerID, source, params); err != nil {
		return nil, err
	}
	return o.Finish(ctx)
}

// buildRecord maps the structuring result onto a store write. Skipped context
// persists the sentinel; duration is stored in seconds. When the engine could
// not produce usable bullet text the raw transcript is persisted with a
// coarse pace score instead.
func (o *Orchestrator) buildRecord(ownerID string, params Params, transcript string, res review.Result) activity.NewRecord {
	elapsed := float64(activity.Skipped)
	distance := float64(activity.Skipped)
	if !params.Skip {
		elapsed = math.Round(params.DurationMin * 60)
		distance = params.DistanceKm
	}

	text := res.BulletText
	score := res.Score
	if strings.TrimSpace(text) == "" {
		text = transcript
		score = review.BasicPaceScore(params.DistanceKm, params.DurationMin)
	}

	return activity.NewRecord{
		OwnerID:        ownerID,
		ElapsedSeconds: elapsed,
		DistanceKm:     distance,
		ReviewText:     &text,
		Score:          &score,
	}
}

// fail returns the orchestrator to idle and records the failed run.
func (o *Orchestrator) fail(ctx context.Context, err error) error {
	o.log.Error("pipeline run failed", "state", o.State(), "error", err)
	if o.metrics != nil {
		o.metrics.RecordRun(ctx, "error")
	}
	o.transition(StateIdle)
	o.mu.Lock()
	o.recorder = nil
	o.mu.Unlock()
	return err
}

// recordStage records one stage latency when metrics are enabled.
func (o *Orchestrator) recordStage(ctx context.Context, stage string, start time.Time) {
	if o.metrics != nil {
		o.metrics.RecordStage(ctx, stage, time.Since(start))
	}
}
