package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/containerd/log"
	"github.com/containerd/platforms"
	"github.com/moby/go-archive/compression"
	"github.com/moby/imagestream/api/types/image"
	"github.com/moby/imagestream/client"
	"github.com/moby/sys/sequential"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/spf13/cobra"
)

type pullOptions struct {
	remote       string
	platform     string
	registryAuth string
}

func newPullCommand(c *Cli) *cobra.Command {
	var opts pullOptions

	cmd := &cobra.Command{
		Use:   "pull [OPTIONS] NAME[:TAG|@DIGEST]",
		Short: "Download an image from a registry",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.remote = args[0]
			return runPull(cmd, c, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.platform, "platform", "", `Pull the image for a specific platform ("os[/arch[/variant]]")`)
	flags.StringVar(&opts.registryAuth, "registry-auth", "", "Encoded registry credential passed to the daemon")
	return cmd
}

func runPull(cmd *cobra.Command, c *Cli, opts pullOptions) error {
	options := client.ImagePullOptions{RegistryAuth: opts.registryAuth}
	if opts.platform != "" {
		p, err := platforms.Parse(opts.platform)
		if err != nil {
			return err
		}
		options.Platform = &p
	}

	res, err := c.Client().ImagePull(cmd.Context(), opts.remote, pullProgress(c.Out()), options)
	if err != nil {
		return err
	}
	if res.Digest != "" {
		_, _ = fmt.Fprintf(c.Out(), "Digest: %s\n", res.Digest)
	}
	_, _ = fmt.Fprintf(c.Out(), "Image: %s\n", res.Image.ID)
	if p := imagePlatform(res.Image); p != "" {
		_, _ = fmt.Fprintf(c.Out(), "Platform: %s\n", p)
	}
	return nil
}

func imagePlatform(img image.InspectResponse) string {
	if img.Os == "" {
		return ""
	}
	return platforms.Format(ocispec.Platform{
		OS:           img.Os,
		Architecture: img.Architecture,
		Variant:      img.Variant,
	})
}

type pushOptions struct {
	remote       string
	registryAuth string
}

func newPushCommand(c *Cli) *cobra.Command {
	var opts pushOptions

	cmd := &cobra.Command{
		Use:   "push [OPTIONS] NAME[:TAG]",
		Short: "Upload an image to a registry",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.remote = args[0]
			return c.Client().ImagePush(cmd.Context(), opts.remote, pushProgress(c.Out()), client.ImagePushOptions{
				RegistryAuth: opts.registryAuth,
			})
		},
	}
	cmd.Flags().StringVar(&opts.registryAuth, "registry-auth", "", "Encoded registry credential passed to the daemon")
	return cmd
}

type loadOptions struct {
	input string
	tag   string
}

func newLoadCommand(c *Cli) *cobra.Command {
	var opts loadOptions

	cmd := &cobra.Command{
		Use:   "load [OPTIONS]",
		Short: "Load an image from a tar archive or STDIN",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, c, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.input, "input", "i", "-", "Read from a tar archive file instead of STDIN ('-'); compressed archives are accepted")
	flags.StringVar(&opts.tag, "tag", "", "Reference the loaded image is expected to carry")
	return cmd
}

func runLoad(cmd *cobra.Command, c *Cli, opts loadOptions) error {
	var in io.Reader = c.in
	if opts.input != "-" {
		f, err := sequential.Open(opts.input)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	archive, err := compression.DecompressStream(in)
	if err != nil {
		return err
	}
	defer archive.Close()

	listener := client.UpdateListenerFuncs[image.LoadEvent]{
		Update: func(ev image.LoadEvent) error {
			_, err := io.WriteString(c.Out(), ev.Stream)
			return err
		},
		Finish: func() {
			log.G(cmd.Context()).WithField("input", opts.input).Debug("image load stream finished")
		},
	}
	return c.Client().ImageLoad(cmd.Context(), archive, listener, client.ImageLoadOptions{Tag: opts.tag})
}

func newInspectCommand(c *Cli) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect IMAGE",
		Short: "Display detailed information on an image",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := c.Client().ImageInspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(c.Out())
			enc.SetIndent("", "    ")
			return enc.Encode(img)
		},
	}
}

func newRemoveCommand(c *Cli) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "rm [OPTIONS] IMAGE",
		Short: "Remove an image",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := c.Client().ImageRemove(cmd.Context(), args[0], client.ImageRemoveOptions{Force: force})
			if err != nil {
				return err
			}
			for _, d := range deleted {
				if d.Untagged != "" {
					_, _ = fmt.Fprintf(c.Out(), "Untagged: %s\n", d.Untagged)
				}
				if d.Deleted != "" {
					_, _ = fmt.Fprintf(c.Out(), "Deleted: %s\n", d.Deleted)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Force removal of the image")
	return cmd
}

func newTagCommand(c *Cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tag SOURCE_IMAGE[:TAG] TARGET_IMAGE[:TAG]",
		Short: "Create a tag TARGET_IMAGE that refers to SOURCE_IMAGE",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Client().ImageTag(cmd.Context(), args[0], args[1])
		},
	}
}

func newPingCommand(c *Cli) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the daemon is reachable",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.Client().Ping(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(c.Out(), "Host: %s\nAPI version: %s\nOS type: %s\nExperimental: %t\n",
				c.Client().DaemonHost(), res.APIVersion, res.OSType, res.Experimental)
			return nil
		},
	}
}
