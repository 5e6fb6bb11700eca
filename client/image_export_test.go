package client

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/moby/imagestream/pkg/imagearchive"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

type tarEntry struct {
	name     string
	typeflag byte
	content  string
}

func manifestEntry(t *testing.T, layers ...string) tarEntry {
	t.Helper()
	m, err := json.Marshal(imagearchive.Manifest{{Config: "config.json", Layers: layers}})
	assert.NilError(t, err)
	return tarEntry{name: imagearchive.ManifestFileName, content: string(m)}
}

func exportMock(t *testing.T, entries ...tarEntry) func(*http.Request) (*http.Response, error) {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644, Size: int64(len(e.content)), Typeflag: e.typeflag}
		if e.typeflag == 0 {
			hdr.Typeflag = tar.TypeReg
		}
		if hdr.Typeflag == tar.TypeDir {
			hdr.Size = 0
		}
		assert.NilError(t, tw.WriteHeader(hdr))
		_, err := io.WriteString(tw, e.content)
		assert.NilError(t, err)
	}
	assert.NilError(t, tw.Close())

	return func(req *http.Request) (*http.Response, error) {
		if err := assertRequest(req, http.MethodGet, "/images/app:1/get"); err != nil {
			return nil, err
		}
		return mockResponse(http.StatusOK, http.Header{"Content-Type": {"application/x-tar"}}, buf.String())(req)
	}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	assert.NilError(t, err)
	assert.Check(t, is.Len(entries, 0))
}

func TestImageExportLayerFiles(t *testing.T) {
	tests := []struct {
		doc     string
		entries func(t *testing.T) []tarEntry
	}{
		{
			doc: "manifest last",
			entries: func(t *testing.T) []tarEntry {
				return []tarEntry{
					{name: "a.tar", content: "layer a"},
					{name: "b.tar", content: "layer b"},
					{name: "c.tar", content: "layer c"},
					manifestEntry(t, "a.tar", "b.tar"),
				}
			},
		},
		{
			doc: "manifest first",
			entries: func(t *testing.T) []tarEntry {
				return []tarEntry{
					manifestEntry(t, "a.tar", "b.tar"),
					{name: "c.tar", content: "layer c"},
					{name: "b.tar", content: "layer b"},
					{name: "a.tar", content: "layer a"},
				}
			},
		},
		{
			doc: "other entries are ignored",
			entries: func(t *testing.T) []tarEntry {
				return []tarEntry{
					{name: "config.json", content: "{}"},
					{name: "dir.tar/", typeflag: tar.TypeDir},
					{name: "a.tar", content: "layer a"},
					{name: "repositories", content: "{}"},
					{name: "b.tar", content: "layer b"},
					{name: "c.tar", content: "layer c"},
					manifestEntry(t, "a.tar", "b.tar"),
				}
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.doc, func(t *testing.T) {
			scratch := t.TempDir()
			client, err := New(WithMockClient(exportMock(t, tc.entries(t)...)), WithScratchDir(scratch))
			assert.NilError(t, err)

			got := map[string]string{}
			err = client.ImageExportLayerFiles(t.Context(), "app:1", func(name, path string) error {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				got[name] = string(data)
				return nil
			})
			assert.NilError(t, err)
			assert.Check(t, is.DeepEqual(got, map[string]string{"a.tar": "layer a", "b.tar": "layer b"}))
			assertEmptyDir(t, scratch)
		})
	}
}

func TestImageExportLayers(t *testing.T) {
	scratch := t.TempDir()
	client, err := New(WithMockClient(exportMock(t,
		tarEntry{name: "l1/layer.tar", content: "first"},
		tarEntry{name: "l2/layer.tar", content: "second"},
		manifestEntry(t, "l1/layer.tar", "l2/layer.tar"),
	)), WithScratchDir(scratch))
	assert.NilError(t, err)

	var names []string
	var contents []string
	err = client.ImageExportLayers(t.Context(), "app:1", func(name string, layer io.Reader) error {
		data, err := io.ReadAll(layer)
		if err != nil {
			return err
		}
		names = append(names, name)
		contents = append(contents, string(data))
		return nil
	})
	assert.NilError(t, err)
	assert.Check(t, is.DeepEqual(names, []string{"l1/layer.tar", "l2/layer.tar"}, cmpopts.SortSlices(func(a, b string) bool { return a < b })))
	assert.Check(t, is.DeepEqual(contents, []string{"first", "second"}))
	assertEmptyDir(t, scratch)
}

func TestImageExportLayerFilesMissingManifest(t *testing.T) {
	scratch := t.TempDir()
	client, err := New(WithMockClient(exportMock(t,
		tarEntry{name: "a.tar", content: "layer a"},
	)), WithScratchDir(scratch))
	assert.NilError(t, err)

	var called bool
	err = client.ImageExportLayerFiles(t.Context(), "app:1", func(string, string) error {
		called = true
		return nil
	})
	assert.Check(t, is.Error(err, "manifest not found for app:1"))
	assert.Check(t, is.ErrorType(err, IsErrInconsistentResponse))
	assert.Check(t, !called)
	assertEmptyDir(t, scratch)
}

func TestImageExportLayerFilesCallbackError(t *testing.T) {
	scratch := t.TempDir()
	client, err := New(WithMockClient(exportMock(t,
		tarEntry{name: "a.tar", content: "layer a"},
		tarEntry{name: "b.tar", content: "layer b"},
		manifestEntry(t, "a.tar", "b.tar"),
	)), WithScratchDir(scratch))
	assert.NilError(t, err)

	errCallback := errors.New("callback failed")
	var paths []string
	err = client.ImageExportLayerFiles(t.Context(), "app:1", func(_, path string) error {
		paths = append(paths, path)
		return errCallback
	})
	assert.Check(t, is.ErrorIs(err, errCallback))
	assert.Check(t, is.Len(paths, 1))
	for _, p := range paths {
		_, err := os.Stat(p)
		assert.Check(t, is.ErrorIs(err, os.ErrNotExist))
	}
	assertEmptyDir(t, scratch)
}

func TestImageExportLayerFilesDeletedAfterCallback(t *testing.T) {
	scratch := t.TempDir()
	client, err := New(WithMockClient(exportMock(t,
		tarEntry{name: "a.tar", content: "layer a"},
		tarEntry{name: "b.tar", content: "layer b"},
		manifestEntry(t, "a.tar", "b.tar"),
	)), WithScratchDir(scratch))
	assert.NilError(t, err)

	var prev string
	err = client.ImageExportLayerFiles(t.Context(), "app:1", func(_, path string) error {
		if prev != "" {
			if _, err := os.Stat(prev); !errors.Is(err, os.ErrNotExist) {
				return errors.New("previous layer file still exists")
			}
		}
		prev = path
		return nil
	})
	assert.NilError(t, err)
}

func TestImageExportLayerFilesDuplicateEntries(t *testing.T) {
	scratch := t.TempDir()
	client, err := New(WithMockClient(exportMock(t,
		tarEntry{name: "a.tar", content: "old"},
		tarEntry{name: "a.tar", content: "new"},
		manifestEntry(t, "a.tar"),
	)), WithScratchDir(scratch))
	assert.NilError(t, err)

	var got []string
	err = client.ImageExportLayerFiles(t.Context(), "app:1", func(_, path string) error {
		data, err := os.ReadFile(path)
		got = append(got, string(data))
		return err
	})
	assert.NilError(t, err)
	assert.Check(t, is.DeepEqual(got, []string{"new"}))
	assertEmptyDir(t, scratch)
}

func TestImageExportLayerFilesErrors(t *testing.T) {
	client, err := New(WithMockClient(errorMock(http.StatusNotFound, "reference does not exist")))
	assert.NilError(t, err)

	err = client.ImageExportLayerFiles(t.Context(), "app:1", func(string, string) error { return nil })
	assert.Check(t, is.ErrorType(err, cerrdefs.IsNotFound))

	err = client.ImageExportLayerFiles(t.Context(), "app:1", nil)
	assert.Check(t, is.ErrorType(err, cerrdefs.IsInvalidArgument))

	err = client.ImageExportLayers(t.Context(), "", func(string, io.Reader) error { return nil })
	assert.Check(t, is.ErrorType(err, cerrdefs.IsInvalidArgument))
}

func TestImageExportLayerFilesMalformedManifest(t *testing.T) {
	scratch := t.TempDir()
	client, err := New(WithMockClient(exportMock(t,
		tarEntry{name: "a.tar", content: "layer a"},
		tarEntry{name: imagearchive.ManifestFileName, content: `[{"Layers": [`},
	)), WithScratchDir(scratch))
	assert.NilError(t, err)

	err = client.ImageExportLayerFiles(t.Context(), "app:1", func(string, string) error { return nil })
	assert.Check(t, is.ErrorContains(err, "invalid manifest.json"))
	assertEmptyDir(t, scratch)
}
