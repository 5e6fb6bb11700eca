package client

import (
	"context"
	"net/url"
)

// ContainerStart sends a request to the docker daemon to start a container.
func (cli *Client) ContainerStart(ctx context.Context, containerID string) error {
	containerID, err := trimID("container", containerID)
	if err != nil {
		return err
	}

	resp, err := cli.post(ctx, "/containers/"+containerID+"/start", url.Values{}, nil, nil)
	ensureReaderClosed(resp)
	return err
}
