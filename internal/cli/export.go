package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/containerd/log"
	"github.com/docker/go-units"
	"github.com/moby/go-archive/compression"
	"github.com/moby/sys/sequential"
	"github.com/spf13/cobra"
)

type exportOptions struct {
	image    string
	output   string
	compress string
}

func newExportLayersCommand(c *Cli) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export-layers [OPTIONS] IMAGE",
		Short: "Write the layer archives of an image to a directory",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.image = args[0]
			return runExportLayers(cmd, c, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "Directory to write the layers to")
	flags.StringVar(&opts.compress, "compress", "none", `Compression for the written layers ("none", "gzip")`)
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func parseCompression(s string) (compression.Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return compression.None, nil
	case "gzip":
		return compression.Gzip, nil
	default:
		return compression.None, fmt.Errorf("unsupported compression: %s", s)
	}
}

func runExportLayers(cmd *cobra.Command, c *Cli, opts exportOptions) error {
	comp, err := parseCompression(opts.compress)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.output, 0o755); err != nil {
		return err
	}

	var count int
	err = c.Client().ImageExportLayers(cmd.Context(), opts.image, func(name string, layer io.Reader) error {
		dst, size, err := writeLayer(opts.output, name, layer, comp)
		if err != nil {
			return err
		}
		count++
		log.G(cmd.Context()).WithFields(log.Fields{"layer": name, "path": dst}).Debug("layer written")
		_, err = fmt.Fprintf(c.Out(), "%s\t%s\n", dst, units.HumanSize(float64(size)))
		return err
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.Out(), "Exported %d layer(s) to %s\n", count, opts.output)
	return nil
}

// layerPath returns the path that the layer archive called name is written
// to below dir. The name is taken from the export and may not escape dir.
func layerPath(dir, name string, comp compression.Compression) (string, error) {
	clean := strings.TrimPrefix(path.Clean("/"+name), "/")
	if clean == "" || clean == "." {
		return "", errors.New("invalid layer name: " + name)
	}
	return filepath.Join(dir, filepath.FromSlash(strings.TrimSuffix(clean, ".tar")+"."+comp.Extension())), nil
}

func writeLayer(dir, name string, layer io.Reader, comp compression.Compression) (_ string, _ int64, retErr error) {
	dst, err := layerPath(dir, name, comp)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", 0, err
	}
	f, err := sequential.Create(dst)
	if err != nil {
		return "", 0, err
	}
	defer func() {
		if err := f.Close(); err != nil && retErr == nil {
			retErr = err
		}
		if retErr != nil {
			_ = os.Remove(dst)
		}
	}()

	w, err := compression.CompressStream(f, comp)
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(w, layer)
	if err != nil {
		_ = w.Close()
		return "", 0, err
	}
	if err := w.Close(); err != nil {
		return "", 0, err
	}
	return dst, n, nil
}
