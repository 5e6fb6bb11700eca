package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/distribution/reference"
	"github.com/moby/imagestream/api/types/image"
	"github.com/moby/imagestream/api/types/registry"
	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// ImagePullOptions holds parameters to pull images.
type ImagePullOptions struct {
	// RegistryAuth is the base64 encoded credentials for the registry. It is
	// sent to the daemon as-is.
	RegistryAuth string

	// Platform selects the platform to pull for a multi-platform image.
	Platform *ocispec.Platform
}

// ImagePullResult holds the result of a successful pull.
type ImagePullResult struct {
	// Image is the pulled image, as inspected after the pull completed.
	Image image.InspectResponse

	// Digest is the digest the daemon reported for the pulled image. It is
	// empty if the daemon did not report one.
	Digest digest.Digest
}

// ImagePull requests the docker host to pull an image from a remote registry,
// reporting every progress record to listener. Once the pull completed, the
// image is inspected and returned.
//
// The progress stream must report at most one digest; if the daemon reports
// two different digests, the pull fails with an error for which
// [IsErrInconsistentResponse] returns true.
func (cli *Client) ImagePull(ctx context.Context, refStr string, listener UpdateListener[image.PullEvent], options ImagePullOptions) (ImagePullResult, error) {
	if listener == nil {
		return ImagePullResult{}, errNilListener
	}
	listener.OnStart()
	defer listener.OnFinish()

	ref, err := parseImageRef(refStr)
	if err != nil {
		return ImagePullResult{}, err
	}

	query := url.Values{}
	query.Set("fromImage", ref.Name())
	query.Set("tag", getAPITagFromNamedRef(ref))
	if options.Platform != nil {
		if p := formatPlatform(*options.Platform); p != "unknown" {
			query.Set("platform", p)
		}
	}

	var headers http.Header
	if options.RegistryAuth != "" {
		headers = http.Header{registry.AuthHeader: {options.RegistryAuth}}
	}

	resp, err := cli.post(ctx, "/images/create", query, nil, headers)
	defer ensureReaderClosed(resp)
	if err != nil {
		return ImagePullResult{}, err
	}

	capture := &digestCapture{}
	if err := streamEvents(ctx, resp.Body, capture, listener); err != nil {
		return ImagePullResult{}, err
	}

	img, err := cli.ImageInspect(ctx, reference.FamiliarString(reference.TagNameOnly(ref)))
	if err != nil {
		return ImagePullResult{}, err
	}
	return ImagePullResult{Image: img, Digest: capture.digest}, nil
}
