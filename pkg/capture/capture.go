// Package capture records audio clips from a Source. A Recorder holds a
// single in-flight recording; chunks are buffered in memory and nothing is
// durable until Stop finalizes the clip.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPermission is returned by Start when the source cannot be acquired,
// typically because access was denied or no device is available.
var ErrPermission = errors.New("capture: permission denied")

// ErrBusy is returned by Start while a recording is already in progress.
var ErrBusy = errors.New("capture: recording already in progress")

// Source supplies raw audio. Open acquires the underlying input; the returned
// reader yields encoded chunks until the recording stops.
type Source interface {
	// Open acquires the input and starts producing chunks. Implementations
	// return an error wrapping ErrPermission when access is denied.
	Open(ctx context.Context) (ChunkReader, error)
	// MIMEType describes the encoding of produced chunks, e.g. "audio/webm".
	MIMEType() string
}

// ChunkReader yields successive audio chunks. Close signals the source to
// stop producing; Next still drains any chunks buffered before the close and
// then reports ok false.
type ChunkReader interface {
	Next(ctx context.Context) (chunk []byte, ok bool, err error)
	Close() error
}

// Clip is a finalized recording.
type Clip struct {
	Data     []byte
	MIMEType string
}

// Empty reports whether the clip holds no audio.
func (c Clip) Empty() bool {
	return len(c.Data) == 0
}

// Recorder buffers audio from a Source between Start and Stop. It is safe for
// concurrent use; only one recording may be in flight at a time.
type Recorder struct {
	source Source

	mu        sync.Mutex
	recording bool
	buf       []byte
	reader    ChunkReader
	pumpDone  chan struct{}
	pumpErr   error
}

// NewRecorder creates a Recorder reading from source.
func NewRecorder(source Source) *Recorder {
	return &Recorder{source: source}
}

// Start acquires the source and begins buffering chunks. A second Start while
// recording returns ErrBusy. Permission failures surface as errors wrapping
// ErrPermission.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return ErrBusy
	}
	r.recording = true
	r.buf = nil
	r.pumpErr = nil
	r.mu.Unlock()

	reader, err := r.source.Open(ctx)
	if err != nil {
		r.mu.Lock()
		r.recording = false
		r.mu.Unlock()
		return fmt.Errorf("capture: open source: %w", err)
	}

	done := make(chan struct{})

	r.mu.Lock()
	r.reader = reader
	r.pumpDone = done
	r.mu.Unlock()

	go r.pump(context.Background(), reader, done)
	return nil
}

// pump drains the reader into the buffer until the source is exhausted or the
// recording is stopped.
func (r *Recorder) pump(ctx context.Context, reader ChunkReader, done chan struct{}) {
	defer close(done)
	for {
		chunk, ok, err := reader.Next(ctx)
		if err != nil {
			r.mu.Lock()
			r.pumpErr = err
			r.mu.Unlock()
			return
		}
		if !ok {
			return
		}
		r.mu.Lock()
		r.buf = append(r.buf, chunk...)
		r.mu.Unlock()
	}
}

// Stop finalizes the recording and returns the buffered clip. The source is
// signalled to stop producing and any chunks it buffered before the close are
// drained first. Stopping an idle recorder is a no-op returning an empty
// clip.
func (r *Recorder) Stop() (Clip, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return Clip{}, nil
	}
	done := r.pumpDone
	reader := r.reader
	r.mu.Unlock()

	reader.Close()
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = false
	clip := Clip{Data: r.buf, MIMEType: r.source.MIMEType()}
	r.buf = nil
	r.reader = nil
	r.pumpDone = nil
	if r.pumpErr != nil {
		return clip, fmt.Errorf("capture: read source: %w", r.pumpErr)
	}
	return clip, nil
}

// Recording reports whether a recording is currently in flight.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}
