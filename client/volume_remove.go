package client

import "context"

// VolumeRemove deletes a volume. With force set, the daemon also removes
// a volume it cannot find on its driver.
func (cli *Client) VolumeRemove(ctx context.Context, volumeID string, force bool) error {
	volumeID, err := trimID("volume", volumeID)
	if err != nil {
		return err
	}
	resp, err := cli.delete(ctx, "/volumes/"+volumeID, forceQuery(force), nil)
	defer ensureReaderClosed(resp)
	return err
}
