package client

import (
	"context"
	"errors"
	"io"
	"net/url"

	"github.com/moby/imagestream/api/types/container"
	"github.com/moby/imagestream/pkg/stdcopy"
)

// ContainerLogs follows the stdout and stderr logs of a container until the
// container stops or ctx is canceled, and hands every log frame to listener.
//
// If the daemon sends a frame for a stream other than stdin, stdout or
// stderr, following stops: the error is reported to listener as a last
// stderr event, and the rest of the response is discarded.
func (cli *Client) ContainerLogs(ctx context.Context, containerID string, listener UpdateListener[container.LogEvent]) error {
	if listener == nil {
		return errNilListener
	}
	listener.OnStart()
	defer listener.OnFinish()

	containerID, err := trimID("container", containerID)
	if err != nil {
		return err
	}

	query := url.Values{}
	query.Set("stdout", "1")
	query.Set("stderr", "1")
	query.Set("follow", "1")

	resp, err := cli.get(ctx, "/containers/"+containerID+"/logs", query, nil)
	defer ensureReaderClosed(resp)
	if err != nil {
		return err
	}

	err = stdcopy.ReadFrames(resp.Body, func(stream stdcopy.StdType, payload []byte) error {
		return listener.OnUpdate(container.LogEvent{
			Stream:  container.StreamType(stream),
			Payload: payload,
		})
	})
	if errors.Is(err, stdcopy.ErrInvalidStdHeader) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return listener.OnUpdate(container.LogEvent{
			Stream:  container.Stderr,
			Payload: []byte(err.Error()),
		})
	}
	return err
}
