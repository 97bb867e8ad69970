package capture

import "context"

// BytesSource is a Source over an in-memory payload, used when the audio
// arrives as an upload rather than from a local device.
type BytesSource struct {
	Data []byte
	MIME string
	// ChunkSize splits the payload into chunks of this many bytes. Zero means
	// a single chunk.
	ChunkSize int
}

var _ Source = (*BytesSource)(nil)

// Open implements Source.
func (s *BytesSource) Open(ctx context.Context) (ChunkReader, error) {
	return &bytesReader{data: s.Data, chunkSize: s.ChunkSize}, nil
}

// MIMEType implements Source.
func (s *BytesSource) MIMEType() string {
	if s.MIME == "" {
		return "audio/webm"
	}
	return s.MIME
}

type bytesReader struct {
	data      []byte
	chunkSize int
	off       int
}

// Next serves the payload until it is exhausted. The whole payload counts as
// buffered before any close, so Close does not truncate it.
func (r *bytesReader) Next(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if r.off >= len(r.data) {
		return nil, false, nil
	}
	end := len(r.data)
	if r.chunkSize > 0 && r.off+r.chunkSize < end {
		end = r.off + r.chunkSize
	}
	chunk := r.data[r.off:end]
	r.off = end
	return chunk, true, nil
}

func (r *bytesReader) Close() error {
	return nil
}
