package client

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/moby/imagestream/api/types/container"
)

// ContainerWait blocks until the container stops, and returns its exit
// status. Canceling ctx stops waiting, but does not stop the container.
func (cli *Client) ContainerWait(ctx context.Context, containerID string) (container.WaitResponse, error) {
	containerID, err := trimID("container", containerID)
	if err != nil {
		return container.WaitResponse{}, err
	}

	resp, err := cli.post(ctx, "/containers/"+containerID+"/wait", url.Values{}, nil, nil)
	defer ensureReaderClosed(resp)
	if err != nil {
		return container.WaitResponse{}, err
	}

	var res container.WaitResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return container.WaitResponse{}, err
	}
	return res, nil
}
