package client

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/moby/imagestream/api/types/image"
	"github.com/moby/imagestream/client/internal/jsonstream"
	"github.com/opencontainers/go-digest"
)

// UpdateListener receives the records of a streaming operation.
//
// OnStart is called once before the request is sent. OnUpdate is called for
// every record, in the order the daemon sent them; returning an error
// aborts the operation with that error. OnFinish is called once when the
// operation ends, whether it succeeded or not.
//
// Calls into a listener are never concurrent, but a listener must not
// assume it is used for a single operation only.
type UpdateListener[E any] interface {
	OnStart()
	OnUpdate(event E) error
	OnFinish()
}

// UpdateListenerFuncs adapts plain functions to an [UpdateListener].
// Nil functions are skipped.
type UpdateListenerFuncs[E any] struct {
	Start  func()
	Update func(E) error
	Finish func()
}

func (l UpdateListenerFuncs[E]) OnStart() {
	if l.Start != nil {
		l.Start()
	}
}

func (l UpdateListenerFuncs[E]) OnUpdate(event E) error {
	if l.Update != nil {
		return l.Update(event)
	}
	return nil
}

func (l UpdateListenerFuncs[E]) OnFinish() {
	if l.Finish != nil {
		l.Finish()
	}
}

// NopListener returns an [UpdateListener] that ignores every notification.
func NopListener[E any]() UpdateListener[E] {
	return UpdateListenerFuncs[E]{}
}

var errNilListener = errInvalidParameter(errors.New("listener must not be nil"))

// fanOut delivers each event to every listener in order, stopping at the
// first error.
type fanOut[E any] []UpdateListener[E]

func (f fanOut[E]) OnStart() {}

func (f fanOut[E]) OnUpdate(event E) error {
	for _, l := range f {
		if err := l.OnUpdate(event); err != nil {
			return err
		}
	}
	return nil
}

func (f fanOut[E]) OnFinish() {}

// streamEvents decodes body into records of type E and hands each of them
// to the listeners, in order.
func streamEvents[E any](ctx context.Context, body io.ReadCloser, listeners ...UpdateListener[E]) error {
	return jsonstream.Decode(ctx, body, fanOut[E](listeners).OnUpdate)
}

const digestPrefix = "Digest:"

// digestCapture records the digest the daemon reports in a "Digest: ..."
// status while pulling an image.
type digestCapture struct {
	digest digest.Digest
}

func (c *digestCapture) OnStart() {}

func (c *digestCapture) OnUpdate(event image.PullEvent) error {
	v, ok := strings.CutPrefix(event.Status, digestPrefix)
	if !ok {
		return nil
	}
	dgst := digest.Digest(strings.TrimSpace(v))
	if c.digest != "" && c.digest != dgst {
		return inconsistentResponse("different digests reported for the same image: %s and %s", c.digest, dgst)
	}
	c.digest = dgst
	return nil
}

func (c *digestCapture) OnFinish() {}

// errorCapture fails on the first push record that carries an error.
type errorCapture struct{}

func (errorCapture) OnStart() {}

func (errorCapture) OnUpdate(event image.PushEvent) error {
	if event.ErrorDetail != nil {
		return inconsistentResponse("%s", event.ErrorDetail.Message)
	}
	return nil
}

func (errorCapture) OnFinish() {}

// streamCapture retains the last non-empty "stream" text of a load.
type streamCapture struct {
	stream string
}

func (c *streamCapture) OnStart() {}

func (c *streamCapture) OnUpdate(event image.LoadEvent) error {
	if event.Stream != "" {
		c.stream = event.Stream
	}
	return nil
}

func (c *streamCapture) OnFinish() {}
