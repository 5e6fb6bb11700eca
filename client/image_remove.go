package client

import (
	"context"
	"encoding/json"

	"github.com/moby/imagestream/api/types/image"
)

// ImageRemoveOptions holds parameters to remove images.
type ImageRemoveOptions struct {
	// Force removes the image even if it is in use by stopped containers
	// or has other tags.
	Force bool
}

// ImageRemove untags an image and deletes it once no tag refers to it. The
// result lists every untagged reference and deleted image ID.
func (cli *Client) ImageRemove(ctx context.Context, imageID string, options ImageRemoveOptions) ([]image.DeleteResponse, error) {
	imageID, err := trimID("image", imageID)
	if err != nil {
		return nil, err
	}

	resp, err := cli.delete(ctx, "/images/"+imageID, forceQuery(options.Force), nil)
	defer ensureReaderClosed(resp)
	if err != nil {
		return nil, err
	}

	var dels []image.DeleteResponse
	err = json.NewDecoder(resp.Body).Decode(&dels)
	return dels, err
}
