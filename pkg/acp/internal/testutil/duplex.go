// Package testutil provides in-memory streams for hermetic connection
// tests: no subprocesses, no sockets.
package testutil

import "io"

// Stream is one end of an in-memory duplex byte stream.
type Stream struct {
	r *io.PipeReader
	w *io.PipeWriter
}

// Duplex returns two cross-connected stream ends: bytes written on one end
// are read on the other, in both directions. Closing either end unblocks
// readers and writers on both.
func Duplex() (*Stream, *Stream) {
	leftRead, rightWrite := io.Pipe()
	rightRead, leftWrite := io.Pipe()

	left := &Stream{r: leftRead, w: leftWrite}
	right := &Stream{r: rightRead, w: rightWrite}

	return left, right
}

func (s *Stream) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

func (s *Stream) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// Close closes both directions of this end.
func (s *Stream) Close() error {
	_ = s.w.Close()

	return s.r.Close()
}
