package pipeline

// State is the orchestrator's position in the review pipeline. A run moves
// strictly through Recording → Transcribing → Structuring → Persisting →
// Complete; any error returns the orchestrator to Idle.
type State string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
	StateStructuring  State = "structuring"
	StatePersisting   State = "persisting"
	StateComplete     State = "complete"
)

// Transition is one observed state change.
type Transition struct {
	From State
	To   State
}

// Observer receives every state transition of a pipeline run. Observers are
// called synchronously from the run's goroutine and must not block.
type Observer func(Transition)
