package client

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/containerd/log"
	"github.com/distribution/reference"
	"github.com/hashicorp/go-multierror"
	"github.com/moby/imagestream/pkg/imagearchive"
	"github.com/moby/sys/sequential"
)

// ImageExportLayers exports an image and calls fn for every layer archive
// that the image manifest references, in the order they appear in the
// export. The layer reader is only valid until fn returns.
func (cli *Client) ImageExportLayers(ctx context.Context, refStr string, fn func(name string, layer io.Reader) error) error {
	if fn == nil {
		return errInvalidParameter(errors.New("layer callback must not be nil"))
	}
	return cli.ImageExportLayerFiles(ctx, refStr, func(name, path string) error {
		f, err := sequential.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return fn(name, f)
	})
}

// ImageExportLayerFiles exports an image and calls fn with the path of a
// temporary file for every layer archive that the image manifest
// references. The file is removed as soon as fn returns, whether or not fn
// succeeded, and must not be used afterwards.
//
// The export is read in a single pass. Layer archives are spooled to the
// scratch directory (see [WithScratchDir]) as they arrive, because the
// manifest may come after them; they are only handed to fn once the whole
// export was read. Spooled files are all removed before
// ImageExportLayerFiles returns.
func (cli *Client) ImageExportLayerFiles(ctx context.Context, refStr string, fn func(name, path string) error) (retErr error) {
	if fn == nil {
		return errInvalidParameter(errors.New("layer callback must not be nil"))
	}
	ref, err := parseImageRef(refStr)
	if err != nil {
		return err
	}
	name := reference.FamiliarString(reference.TagNameOnly(ref))

	resp, err := cli.get(ctx, "/images/"+name+"/get", nil, nil)
	defer ensureReaderClosed(resp)
	if err != nil {
		return err
	}

	spool := &layerSpool{dir: cli.scratchDir}
	defer func() {
		if err := spool.removeAll(); err != nil {
			if retErr == nil {
				retErr = err
				return
			}
			log.G(ctx).WithError(err).Debug("failed to remove spooled layer files")
		}
	}()

	manifest, err := spool.read(resp.Body)
	if err != nil {
		return err
	}
	if manifest == nil {
		return inconsistentResponse("manifest not found for %s", name)
	}

	for _, l := range spool.layers {
		if !manifest.ContainsLayer(l.name) {
			continue
		}
		if err := spool.yield(l, fn); err != nil {
			return err
		}
	}
	return nil
}

type spooledLayer struct {
	name string
	path string
}

// layerSpool holds the layer archives of an image export on disk until the
// manifest is known.
type layerSpool struct {
	dir    string
	layers []*spooledLayer
	byName map[string]*spooledLayer
}

// read consumes the export archive, spooling every layer archive and
// parsing the manifest. It returns a nil manifest if the archive has none.
func (s *layerSpool) read(r io.Reader) (imagearchive.Manifest, error) {
	var manifest imagearchive.Manifest
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return manifest, nil
		}
		if err != nil {
			return nil, fmt.Errorf("error reading image export: %w", err)
		}
		switch {
		case hdr.Name == imagearchive.ManifestFileName:
			manifest, err = imagearchive.ParseManifest(tr)
			if err != nil {
				return nil, err
			}
		case strings.HasSuffix(hdr.Name, imagearchive.LayerSuffix) && hdr.Typeflag == tar.TypeReg:
			if err := s.add(hdr.Name, tr); err != nil {
				return nil, err
			}
		}
	}
}

// add copies one layer archive to a new scratch file. A later entry with
// the same name replaces the earlier one.
func (s *layerSpool) add(name string, r io.Reader) error {
	f, err := sequential.CreateTemp(s.dir, "layer-")
	if err != nil {
		return fmt.Errorf("error creating scratch file for layer %s: %w", name, err)
	}
	l := &spooledLayer{name: name, path: f.Name()}
	_, err = io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(l.path)
		return fmt.Errorf("error spooling layer %s: %w", name, err)
	}

	if s.byName == nil {
		s.byName = make(map[string]*spooledLayer)
	}
	if prev, ok := s.byName[name]; ok {
		_ = os.Remove(prev.path)
		prev.path = l.path
		return nil
	}
	s.byName[name] = l
	s.layers = append(s.layers, l)
	return nil
}

// yield hands a spooled layer to fn and removes it once fn returns.
func (s *layerSpool) yield(l *spooledLayer, fn func(name, path string) error) error {
	defer s.remove(l)
	return fn(l.name, l.path)
}

func (s *layerSpool) remove(l *spooledLayer) error {
	if l.path == "" {
		return nil
	}
	err := os.Remove(l.path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		l.path = ""
		return nil
	}
	return err
}

// removeAll removes every file that is still spooled.
func (s *layerSpool) removeAll() error {
	var result *multierror.Error
	for _, l := range s.layers {
		if err := s.remove(l); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
