package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/distribution/reference"
	"github.com/moby/imagestream/api/types/image"
	"github.com/moby/imagestream/api/types/registry"
)

// ImagePushOptions holds parameters to push images.
type ImagePushOptions struct {
	// RegistryAuth is the base64 encoded credentials for the registry. It is
	// sent to the daemon as-is.
	RegistryAuth string
}

// ImagePush requests the docker host to push an image to a remote registry,
// reporting every progress record to listener.
//
// The daemon reports a failed push as a record carrying an error, after
// the HTTP response already succeeded. The first such record fails the
// push with its message. Records received before it have already been
// handed to listener, so a listener can see progress of a push that
// eventually fails; the failing record itself is not forwarded.
func (cli *Client) ImagePush(ctx context.Context, refStr string, listener UpdateListener[image.PushEvent], options ImagePushOptions) error {
	if listener == nil {
		return errNilListener
	}
	listener.OnStart()
	defer listener.OnFinish()

	ref, err := parseImageRef(refStr)
	if err != nil {
		return err
	}

	if _, ok := ref.(reference.Digested); ok {
		return errInvalidParameter(errors.New("cannot push a digest reference"))
	}

	query := url.Values{}
	if tagged, ok := ref.(reference.Tagged); ok {
		query.Set("tag", tagged.Tag())
	}

	var headers http.Header
	if options.RegistryAuth != "" {
		headers = http.Header{registry.AuthHeader: {options.RegistryAuth}}
	}

	resp, err := cli.post(ctx, "/images/"+reference.FamiliarName(ref)+"/push", query, nil, headers)
	defer ensureReaderClosed(resp)
	if err != nil {
		return err
	}

	return streamEvents(ctx, resp.Body, errorCapture{}, listener)
}
