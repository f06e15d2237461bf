// Package producer adapts external token producers to the parser.
//
// The generation model lives elsewhere; from this side it is just an ordered
// sequence of text chunks with an explicit end. Source is pull-based so the
// pipeline controls pacing, and chunk boundaries carry no meaning - the
// parser guarantees identical output for any re-chunking of the same stream.
package producer

import (
	"bufio"
	"context"
	"io"
)

// Source yields stream chunks in order. Next returns io.EOF after the last
// chunk; that is the end-of-stream signal, distinct from an empty chunk.
type Source interface {
	Next(ctx context.Context) (string, error)
	Close() error
}

// readChunkSize bounds how much a single Next call returns. Small enough to
// keep screen-completion latency low, large enough to amortize call
// overhead.
const readChunkSize = 4096

// ReaderSource adapts an io.Reader (stdin, a recorded stream file) to
// Source.
type ReaderSource struct {
	r      *bufio.Reader
	closer io.Closer
	buf    []byte
}

// NewReaderSource wraps a reader. If r also implements io.Closer it is
// closed by Close.
func NewReaderSource(r io.Reader) *ReaderSource {
	closer, _ := r.(io.Closer)
	return &ReaderSource{
		r:      bufio.NewReader(r),
		closer: closer,
		buf:    make([]byte, readChunkSize),
	}
}

// Next reads the next chunk, honoring context cancellation between reads.
func (s *ReaderSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	n, err := s.r.Read(s.buf)
	if n > 0 {
		return string(s.buf[:n]), nil
	}
	if err == nil {
		err = io.EOF
	}
	return "", err
}

// Close closes the underlying reader when it is closable.
func (s *ReaderSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// Ensure ReaderSource implements Source.
var _ Source = (*ReaderSource)(nil)
