// Package stdcopy reads and writes the multiplexed stdout/stderr framing
// used by the container logs and attach endpoints when a container has no
// TTY.
package stdcopy

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// StdType is the type of standard stream
// a writer can multiplex to.
type StdType byte

const (
	// Stdin represents standard input stream type.
	Stdin StdType = iota
	// Stdout represents standard output stream type.
	Stdout
	// Stderr represents standard error steam type.
	Stderr

	stdWriterPrefixLen = 8
	stdWriterFdIndex   = 0
	stdWriterSizeIndex = 4
)

// ErrInvalidStdHeader is returned when a frame header names a stream that
// is not stdin, stdout or stderr.
var ErrInvalidStdHeader = errors.New("unrecognized input header")

// stdWriter is wrapper of io.Writer with extra customized info.
type stdWriter struct {
	io.Writer
	prefix byte
}

// Write sends the buffer to the underlying writer.
// It inserts the prefix header before the buffer,
// so the reader knows where to multiplex the output.
// It makes stdWriter to implement io.Writer.
func (w *stdWriter) Write(p []byte) (int, error) {
	if w == nil || w.Writer == nil {
		return 0, errors.New("writer not instantiated")
	}
	if p == nil {
		return 0, nil
	}

	header := [stdWriterPrefixLen]byte{stdWriterFdIndex: w.prefix}
	binary.BigEndian.PutUint32(header[stdWriterSizeIndex:], uint32(len(p)))
	buf := make([]byte, 0, len(header)+len(p))
	buf = append(buf, header[:]...)
	buf = append(buf, p...)

	n, err := w.Writer.Write(buf)
	if n > stdWriterPrefixLen {
		n -= stdWriterPrefixLen
	} else {
		n = 0
	}
	return n, err
}

// NewStdWriter instantiates a new Writer.
// Everything written to it will be encapsulated using a custom format,
// and written to the underlying `w` stream.
// This allows multiple write streams (e.g. stdout and stderr) to be muxed into a single connection.
// `t` indicates the id of the stream to encapsulate.
// It can be stdcopy.Stdin, stdcopy.Stdout, stdcopy.Stderr.
func NewStdWriter(w io.Writer, t StdType) io.Writer {
	return &stdWriter{
		Writer: w,
		prefix: byte(t),
	}
}

// ReadFrames reads frames from src until it is exhausted and hands each
// frame's payload to fn, in order. Every payload is a freshly allocated
// slice that fn may retain.
//
// A stream that ends in the middle of a header or payload is treated as
// closed: the incomplete frame is dropped and ReadFrames returns nil. A
// header naming an unknown stream returns an error wrapping
// [ErrInvalidStdHeader]. Errors returned by fn are returned unchanged.
func ReadFrames(src io.Reader, fn func(StdType, []byte) error) error {
	var header [stdWriterPrefixLen]byte
	for {
		if _, err := io.ReadFull(src, header[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}

		stream := StdType(header[stdWriterFdIndex])
		switch stream {
		case Stdin, Stdout, Stderr:
		default:
			return fmt.Errorf("%w: stream type %d", ErrInvalidStdHeader, header[stdWriterFdIndex])
		}

		frameSize := binary.BigEndian.Uint32(header[stdWriterSizeIndex : stdWriterSizeIndex+4])
		payload := make([]byte, frameSize)
		if _, err := io.ReadFull(src, payload); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
		if err := fn(stream, payload); err != nil {
			return err
		}
	}
}
