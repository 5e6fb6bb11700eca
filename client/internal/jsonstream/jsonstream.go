// Package jsonstream decodes the concatenated JSON records that the daemon
// writes to the response body of long-running operations.
package jsonstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"
)

// Stream is a forward-only sequence of records of type T read from a
// response body. Only one record is held in memory at a time.
type Stream[T any] struct {
	rc    io.ReadCloser
	close func() error
}

// NewStream constructs a typed stream that yields values of T.
func NewStream[T any](rc io.ReadCloser) *Stream[T] {
	if rc == nil {
		panic("nil io.ReadCloser")
	}
	return &Stream[T]{
		rc:    rc,
		close: sync.OnceValue(rc.Close),
	}
}

// Close implements io.Closer.
func (s *Stream[T]) Close() error {
	return s.close()
}

// Records decodes the stream as a sequence of T. The sequence ends after
// the last complete record, or after the first error is yielded; an error
// is never followed by another value. If the context is canceled, the
// underlying reader is closed and the context error is yielded.
func (s *Stream[T]) Records(ctx context.Context) iter.Seq2[T, error] {
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	dec := json.NewDecoder(s.rc)

	return func(yield func(T, error) bool) {
		defer stop()
		for {
			var rec T
			err := dec.Decode(&rec)
			if err == nil {
				if !yield(rec, nil) {
					return
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			} else {
				err = fmt.Errorf("error decoding stream record: %w", err)
			}
			yield(rec, err)
			return
		}
	}
}

// Decode reads every record from rc and hands it to fn synchronously, in
// arrival order. It stops at the first decode error or the first error
// returned by fn, and returns that error. Reaching the end of the stream
// after a complete record is not an error. rc is closed before Decode
// returns.
func Decode[T any](ctx context.Context, rc io.ReadCloser, fn func(T) error) error {
	s := NewStream[T](rc)
	defer s.Close()

	for rec, err := range s.Records(ctx) {
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}
