package client

import (
	"context"
	"net/url"
)

// ContainerRemoveOptions holds parameters to remove containers.
type ContainerRemoveOptions struct {
	// Force removes the container even if it is running.
	Force bool
}

// ContainerRemove deletes a container. A running container is only
// removed, after being killed, if options.Force is set.
func (cli *Client) ContainerRemove(ctx context.Context, containerID string, options ContainerRemoveOptions) error {
	containerID, err := trimID("container", containerID)
	if err != nil {
		return err
	}
	resp, err := cli.delete(ctx, "/containers/"+containerID, forceQuery(options.Force), nil)
	defer ensureReaderClosed(resp)
	return err
}

// forceQuery returns the query of a delete request, which is "force=1"
// for a forced delete and empty otherwise.
func forceQuery(force bool) url.Values {
	query := url.Values{}
	if force {
		query.Set("force", "1")
	}
	return query
}
