// Package imagearchive reads and writes the tarball format produced by
// "docker save" and accepted by "docker load".
package imagearchive

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/distribution/reference"
	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Layer is an uncompressed layer tarball.
type Layer struct {
	// DiffID is the digest of the uncompressed layer content.
	DiffID digest.Digest

	// Size is the exact length of the content returned by Open.
	Size int64

	// Open returns the layer content. It is called once per write.
	Open func() (io.ReadCloser, error)
}

// LayerFromBytes returns a Layer backed by an in-memory tarball.
func LayerFromBytes(data []byte) Layer {
	return Layer{
		DiffID: digest.FromBytes(data),
		Size:   int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Archive is a single-image archive that can be loaded into the daemon.
type Archive struct {
	config []byte
	tag    reference.NamedTagged
	layers []Layer
}

// New returns an archive for the given raw image config. The tag is
// optional.
func New(config []byte, tag reference.NamedTagged, layers ...Layer) *Archive {
	return &Archive{
		config: config,
		tag:    tag,
		layers: layers,
	}
}

// FromImage returns an archive whose config is img with its root
// filesystem set to the given layers.
func FromImage(img ocispec.Image, tag reference.NamedTagged, layers ...Layer) (*Archive, error) {
	img.RootFS = ocispec.RootFS{Type: "layers"}
	for _, l := range layers {
		img.RootFS.DiffIDs = append(img.RootFS.DiffIDs, l.DiffID)
	}
	if img.Created == nil {
		epoch := time.Unix(0, 0).UTC()
		img.Created = &epoch
	}
	config, err := json.Marshal(img)
	if err != nil {
		return nil, fmt.Errorf("error marshaling image config: %w", err)
	}
	return New(config, tag, layers...), nil
}

// Tag returns the familiar form of the archive's tag, or an empty string.
func (a *Archive) Tag() string {
	if a.tag == nil {
		return ""
	}
	return reference.FamiliarString(a.tag)
}

func (a *Archive) configName() string {
	return digest.FromBytes(a.config).Encoded() + ".json"
}

func layerName(l Layer) string {
	return path.Join(l.DiffID.Encoded(), "layer"+LayerSuffix)
}

// Manifest returns the manifest written at the end of the archive.
func (a *Archive) Manifest() Manifest {
	entry := ManifestEntry{
		Config: a.configName(),
		Layers: []string{},
	}
	if a.tag != nil {
		entry.RepoTags = []string{reference.FamiliarString(a.tag)}
	}
	for _, l := range a.layers {
		entry.Layers = append(entry.Layers, layerName(l))
	}
	return Manifest{entry}
}

// WriteTo writes the archive to w. The manifest is written last, after
// every layer.
func (a *Archive) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	tw := tar.NewWriter(cw)

	if err := writeFile(tw, a.configName(), a.config); err != nil {
		return cw.n, fmt.Errorf("error writing config: %w", err)
	}
	seen := make(map[string]struct{}, len(a.layers))
	for _, l := range a.layers {
		name := layerName(l)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		if err := writeLayer(tw, name, l); err != nil {
			return cw.n, fmt.Errorf("error writing layer %s: %w", l.DiffID, err)
		}
	}
	manifest, err := json.Marshal(a.Manifest())
	if err != nil {
		return cw.n, err
	}
	if err := writeFile(tw, ManifestFileName, manifest); err != nil {
		return cw.n, fmt.Errorf("error writing %s: %w", ManifestFileName, err)
	}
	if err := tw.Close(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// Open streams the archive through a pipe. Closing the returned reader
// stops the writer.
func (a *Archive) Open() io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		_, err := a.WriteTo(pw)
		_ = pw.CloseWithError(err)
	}()
	return pr
}

func writeLayer(tw *tar.Writer, name string, l Layer) error {
	if err := tw.WriteHeader(&tar.Header{
		Name:     path.Dir(name) + "/",
		Mode:     0o755,
		Typeflag: tar.TypeDir,
	}); err != nil {
		return err
	}
	rc, err := l.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := tw.WriteHeader(&tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     l.Size,
		Typeflag: tar.TypeReg,
	}); err != nil {
		return err
	}
	n, err := io.Copy(tw, rc)
	if err != nil {
		return err
	}
	if n != l.Size {
		return fmt.Errorf("layer size mismatch: expected %d, got %d", l.Size, n)
	}
	return nil
}

func writeFile(tw *tar.Writer, name string, data []byte) error {
	if err := tw.WriteHeader(&tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(data)),
		Typeflag: tar.TypeReg,
	}); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
