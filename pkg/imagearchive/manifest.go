package imagearchive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"unicode/utf8"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

const (
	// ManifestFileName is the name of the tar entry holding the [Manifest].
	ManifestFileName = "manifest.json"

	// LayerSuffix is the suffix of tar entries that hold a layer archive.
	LayerSuffix = ".tar"
)

// ManifestEntry describes one image of a docker-save archive.
type ManifestEntry struct {
	// Config is the tar path of the image config blob.
	Config string

	// RepoTags lists the references the image was saved with.
	RepoTags []string

	// Layers lists the tar paths of the layer archives, base layer first.
	Layers []string

	// LayerSources is set for foreign layers that are not part of the
	// archive.
	LayerSources map[digest.Digest]ocispec.Descriptor `json:",omitempty"`
}

// Manifest is the parsed content of the "manifest.json" entry of an
// image archive.
type Manifest []ManifestEntry

// ParseManifest reads and parses a manifest from r. The content is
// buffered entirely and must be valid UTF-8.
func ParseManifest(r io.Reader) (Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", ManifestFileName, err)
	}
	if !utf8.Valid(data) {
		return nil, errors.New("invalid " + ManifestFileName + ": content is not valid UTF-8")
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ManifestFileName, err)
	}
	return m, nil
}

// ContainsLayer reports whether name is listed as a layer of any entry.
func (m Manifest) ContainsLayer(name string) bool {
	for _, e := range m {
		if slices.Contains(e.Layers, name) {
			return true
		}
	}
	return false
}
