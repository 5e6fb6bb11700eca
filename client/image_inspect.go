package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/url"

	"github.com/moby/imagestream/api/types/image"
)

// ImageInspectOption is a type representing functional options for the image inspect operation.
type ImageInspectOption func(*imageInspectOpts) error

type imageInspectOpts struct {
	raw *bytes.Buffer
}

// ImageInspectWithRawResponse instructs the client to additionally store the
// raw inspect response in the provided buffer.
func ImageInspectWithRawResponse(raw *bytes.Buffer) ImageInspectOption {
	return func(opts *imageInspectOpts) error {
		opts.raw = raw
		return nil
	}
}

// ImageInspect returns the image information.
func (cli *Client) ImageInspect(ctx context.Context, imageID string, inspectOpts ...ImageInspectOption) (image.InspectResponse, error) {
	imageID, err := trimID("image", imageID)
	if err != nil {
		return image.InspectResponse{}, err
	}

	var opts imageInspectOpts
	for _, opt := range inspectOpts {
		if err := opt(&opts); err != nil {
			return image.InspectResponse{}, err
		}
	}

	resp, err := cli.get(ctx, "/images/"+imageID+"/json", url.Values{}, nil)
	defer ensureReaderClosed(resp)
	if err != nil {
		return image.InspectResponse{}, err
	}

	buf := opts.raw
	if buf == nil {
		buf = &bytes.Buffer{}
	}
	if _, err := io.Copy(buf, resp.Body); err != nil {
		return image.InspectResponse{}, err
	}

	var response image.InspectResponse
	err = json.Unmarshal(buf.Bytes(), &response)
	return response, err
}
