package cli

import (
	"github.com/moby/imagestream/api/types/container"
	"github.com/moby/imagestream/client"
	"github.com/spf13/cobra"
)

func newLogsCommand(c *Cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logs CONTAINER",
		Short: "Fetch the logs of a container",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Client().ContainerLogs(cmd.Context(), args[0], logWriter(c))
		},
	}
}

// logWriter copies stdout frames to the regular output and every other
// frame to the error output.
func logWriter(c *Cli) client.UpdateListener[container.LogEvent] {
	return client.UpdateListenerFuncs[container.LogEvent]{
		Update: func(ev container.LogEvent) error {
			w := c.Err()
			if ev.Stream == container.Stdout {
				w = c.Out()
			}
			_, err := w.Write(ev.Payload)
			return err
		},
	}
}
