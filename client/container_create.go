package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/moby/go-archive"
	"github.com/moby/imagestream/api/types/container"
)

// ContainerContent is a tar archive to extract into a container before it
// is started.
type ContainerContent struct {
	// Destination is the absolute path of the directory in the container
	// the archive is extracted to.
	Destination string

	// Archive is the tar stream to upload.
	Archive io.Reader
}

// NewContainerContent builds a [ContainerContent] holding regular files.
// nameAndContents lists file names and their contents in pairs, as in
// "name1", "content1", "name2", "content2".
func NewContainerContent(destination string, nameAndContents ...string) (ContainerContent, error) {
	if !strings.HasPrefix(destination, "/") {
		return ContainerContent{}, cerrdefs.ErrInvalidArgument.WithMessage("destination must be an absolute path")
	}
	rdr, err := archive.Generate(nameAndContents...)
	if err != nil {
		return ContainerContent{}, errInvalidParameter(err)
	}
	return ContainerContent{Destination: destination, Archive: rdr}, nil
}

// ContainerCreate creates a new container based on the given configuration,
// then uploads each of contents into it.
func (cli *Client) ContainerCreate(ctx context.Context, config *container.Config, contents ...ContainerContent) (container.CreateResponse, error) {
	if config == nil {
		return container.CreateResponse{}, cerrdefs.ErrInvalidArgument.WithMessage("config is nil")
	}
	for _, c := range contents {
		if c.Archive == nil {
			return container.CreateResponse{}, cerrdefs.ErrInvalidArgument.WithMessage("content archive is nil")
		}
	}

	resp, err := cli.post(ctx, "/containers/create", url.Values{}, config, nil)
	defer ensureReaderClosed(resp)
	if err != nil {
		return container.CreateResponse{}, err
	}

	var response container.CreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return container.CreateResponse{}, err
	}

	for _, c := range contents {
		if err := cli.copyToContainer(ctx, response.ID, c); err != nil {
			return response, fmt.Errorf("error uploading content to %s: %w", c.Destination, err)
		}
	}
	return response, nil
}

func (cli *Client) copyToContainer(ctx context.Context, containerID string, content ContainerContent) error {
	query := url.Values{}
	query.Set("path", content.Destination)

	resp, err := cli.putRaw(ctx, "/containers/"+containerID+"/archive", query, content.Archive, http.Header{
		"Content-Type": {"application/x-tar"},
	})
	ensureReaderClosed(resp)
	return err
}
