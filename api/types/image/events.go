package image

import "github.com/moby/imagestream/api/types/jsonstream"

// ProgressEvent holds the fields shared by the progress records that the
// daemon streams while an image operation is in flight.
type ProgressEvent struct {
	// ID is the layer or image the record refers to, if any.
	ID string `json:"id,omitempty"`

	// Status is the human readable status text, for example
	// "Downloading" or "Digest: sha256:...".
	Status string `json:"status,omitempty"`

	// Progress is the pre-rendered progress bar.
	Progress string `json:"progress,omitempty"`

	// ProgressDetail holds the raw counters behind Progress.
	ProgressDetail *jsonstream.Progress `json:"progressDetail,omitempty"`
}

// PullEvent is a single record of the "POST /images/create" response stream.
type PullEvent struct {
	ProgressEvent
}

// PushEvent is a single record of the "POST /images/{name}/push" response
// stream. ErrorDetail is set when the daemon reports that the push failed.
type PushEvent struct {
	ProgressEvent
	ErrorDetail *jsonstream.Error `json:"errorDetail,omitempty"`
}

// LoadEvent is a single record of the "POST /images/load" response stream.
// Stream carries the final "Loaded image: ..." text.
type LoadEvent struct {
	Stream string `json:"stream,omitempty"`
}
