package image

import (
	dockerspec "github.com/moby/docker-image-spec/specs-go/v1"
)

// InspectResponse contains response of Engine API:
// GET "/images/{name:.*}/json"
type InspectResponse struct {
	// ID is the content-addressable ID of an image.
	ID string `json:"Id"`

	// RepoTags is a list of image names/tags in the local image cache that
	// reference this image.
	RepoTags []string

	// RepoDigests is a list of content-addressable digests of locally available
	// image manifests that the image is referenced from.
	RepoDigests []string

	// Created is the date and time at which the image was created, formatted in
	// RFC 3339 nano-seconds (time.RFC3339Nano).
	Created string `json:",omitempty"`

	// Author is the name of the author that was specified when committing the
	// image, or as specified through MAINTAINER (deprecated) in the Dockerfile.
	Author string `json:",omitempty"`

	// Config holds the configuration of the image.
	Config *dockerspec.DockerOCIImageConfig

	// Architecture is the hardware CPU architecture that the image runs on.
	Architecture string

	// Variant is the CPU architecture variant (presently ARM-only).
	Variant string `json:",omitempty"`

	// OS is the Operating System the image is built to run on.
	Os string

	// Size is the total size of the image including all layers it is composed of.
	Size int64

	// RootFS contains information about the image's RootFS, including the
	// layer IDs.
	RootFS RootFS
}

// RootFS returns Image's RootFS description including the layer IDs.
type RootFS struct {
	Type   string
	Layers []string `json:",omitempty"`
}
