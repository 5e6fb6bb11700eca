// Package cli implements the imagestream command line. Each command is a
// thin layer over the streaming operations of the client package.
package cli

import (
	"fmt"
	"io"

	"github.com/containerd/log"
	"github.com/moby/imagestream/client"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Cli holds the streams and the API client shared by all commands.
type Cli struct {
	in       io.Reader
	out, err io.Writer

	opts   globalOptions
	config Config
	client client.APIClient
}

// NewCli returns a Cli that reads from in and writes to out and errOut.
func NewCli(in io.Reader, out, errOut io.Writer) *Cli {
	return &Cli{in: in, out: out, err: errOut}
}

// Client returns the API client. It is only available while a command runs.
func (c *Cli) Client() client.APIClient {
	return c.client
}

// Out returns the writer for regular output.
func (c *Cli) Out() io.Writer {
	return c.out
}

// Err returns the writer for diagnostics.
func (c *Cli) Err() io.Writer {
	return c.err
}

func (c *Cli) initialize(cmd *cobra.Command) error {
	cfg, err := c.opts.resolve(cmd.Flags())
	if err != nil {
		return err
	}
	c.config = cfg

	if err := configureLogging(cfg.LogLevel, c.err); err != nil {
		return err
	}
	if c.client != nil {
		// preset by tests
		return nil
	}
	apiClient, err := client.New(cfg.clientOptions()...)
	if err != nil {
		return err
	}
	c.client = apiClient
	return nil
}

func (c *Cli) close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func configureLogging(level string, out io.Writer) error {
	if err := log.SetLevel(level); err != nil {
		return fmt.Errorf("unable to parse logging level: %s", level)
	}
	log.L.Logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: log.RFC3339NanoFixed,
		DisableColors:   true,
		FullTimestamp:   true,
	})
	log.L.Logger.SetOutput(out)
	return nil
}

// NewRootCommand returns the top-level command with all subcommands added.
func NewRootCommand(c *Cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "imagestream [OPTIONS] COMMAND [ARG...]",
		Short:         "Stream images, layers and logs from a container engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initialize(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
			}
			return cmd.Help()
		},
	}
	cmd.SetIn(c.in)
	cmd.SetOut(c.out)
	cmd.SetErr(c.err)
	c.opts.installFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newPullCommand(c),
		newPushCommand(c),
		newLoadCommand(c),
		newExportLayersCommand(c),
		newLogsCommand(c),
		newInspectCommand(c),
		newRemoveCommand(c),
		newTagCommand(c),
		newPingCommand(c),
	)
	return cmd
}

// exactArgs returns an error if the command does not get exactly n
// arguments.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == n {
			return nil
		}
		noun := "argument"
		if n != 1 {
			noun = "arguments"
		}
		return fmt.Errorf("%q requires exactly %d %s.\nSee '%s --help'.\n\nUsage:  %s\n\n%s",
			cmd.CommandPath(), n, noun, cmd.CommandPath(), cmd.UseLine(), cmd.Short)
	}
}
