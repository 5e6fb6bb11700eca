package client

import (
	"context"
	"io"
	"net/http"

	containertypes "github.com/moby/imagestream/api/types/container"
	"github.com/moby/imagestream/api/types/image"
)

// APIClient is an interface that clients that talk with a docker server must implement.
type APIClient interface {
	ContainerAPIClient
	ImageAPIClient
	VolumeAPIClient
	ClientVersion() string
	DaemonHost() string
	HTTPClient() *http.Client
	Ping(ctx context.Context) (PingResult, error)
	Close() error
}

// Ensure that Client always implements APIClient.
var _ APIClient = &Client{}

// ContainerAPIClient defines API client methods for the containers
type ContainerAPIClient interface {
	ContainerCreate(ctx context.Context, config *containertypes.Config, contents ...ContainerContent) (containertypes.CreateResponse, error)
	ContainerLogs(ctx context.Context, container string, listener UpdateListener[containertypes.LogEvent]) error
	ContainerRemove(ctx context.Context, container string, options ContainerRemoveOptions) error
	ContainerStart(ctx context.Context, container string) error
	ContainerWait(ctx context.Context, container string) (containertypes.WaitResponse, error)
}

// ImageAPIClient defines API client methods for the images
type ImageAPIClient interface {
	ImageExportLayerFiles(ctx context.Context, image string, fn func(name, path string) error) error
	ImageExportLayers(ctx context.Context, image string, fn func(name string, layer io.Reader) error) error
	ImageInspect(ctx context.Context, image string, opts ...ImageInspectOption) (image.InspectResponse, error)
	ImageLoad(ctx context.Context, input io.Reader, listener UpdateListener[image.LoadEvent], options ImageLoadOptions) error
	ImagePull(ctx context.Context, ref string, listener UpdateListener[image.PullEvent], options ImagePullOptions) (ImagePullResult, error)
	ImagePush(ctx context.Context, ref string, listener UpdateListener[image.PushEvent], options ImagePushOptions) error
	ImageRemove(ctx context.Context, image string, options ImageRemoveOptions) ([]image.DeleteResponse, error)
	ImageTag(ctx context.Context, image, ref string) error
}

// VolumeAPIClient defines API client methods for the volumes
type VolumeAPIClient interface {
	VolumeRemove(ctx context.Context, volumeID string, force bool) error
}
