package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/moby/imagestream/api/types/image"
)

// ImageLoadOptions holds parameters to load images.
type ImageLoadOptions struct {
	// Tag is the tag of the image in the archive, if known. It is only
	// used to describe the image in errors.
	Tag string
}

// ImageLoad loads an image in the docker host from the client host. input
// is a tar archive in the format produced by "docker save"; see
// [github.com/moby/imagestream/pkg/imagearchive.Archive].
//
// Progress records are reported to listener. The daemon confirms a
// successful load with a record carrying a "stream" text; if no record
// carries one, the load fails with an error for which
// [IsErrInconsistentResponse] returns true.
func (cli *Client) ImageLoad(ctx context.Context, input io.Reader, listener UpdateListener[image.LoadEvent], options ImageLoadOptions) error {
	if listener == nil {
		return errNilListener
	}
	listener.OnStart()
	defer listener.OnFinish()

	if input == nil {
		return errInvalidParameter(errors.New("no image archive provided"))
	}

	query := url.Values{}
	query.Set("quiet", "0")

	resp, err := cli.postRaw(ctx, "/images/load", query, input, http.Header{
		"Content-Type": {"application/x-tar"},
	})
	defer ensureReaderClosed(resp)
	if err != nil {
		return err
	}

	capture := &streamCapture{}
	if err := streamEvents(ctx, resp.Body, capture, listener); err != nil {
		return err
	}
	if capture.stream == "" {
		if options.Tag != "" {
			return inconsistentResponse("invalid response received when loading image %q", options.Tag)
		}
		return inconsistentResponse("invalid response received when loading image")
	}
	return nil
}
