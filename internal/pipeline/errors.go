package pipeline

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when a run is requested while another is in flight.
var ErrBusy = errors.New("pipeline: run already in progress")

// ErrEmptyTranscript is returned when transcription yields no text to review.
var ErrEmptyTranscript = errors.New("pipeline: empty transcript")

// ValidationError reports an invalid pre-recording context value. It blocks
// the run before any side effect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pipeline: invalid %s: %s", e.Field, e.Reason)
}
