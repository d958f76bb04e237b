package main

import (
	"github.com/spf13/cobra"

	"github.com/foodgram/foodgram/internal/shell/deploy"
)

// newDownCommand creates the down command.
func newDownCommand(opts *globalOptions) *cobra.Command {
	var (
		remove  bool
		volumes bool
	)

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Stop the stack",
		Long: `Stop the project's containers in reverse dependency order.
With --remove the containers and networks are removed as well; --volumes
additionally removes the named volumes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := setupLogger(opts)

			runner, client, err := newRunner(opts, logger, deploy.Config{})
			if err != nil {
				return err
			}
			defer client.Close()

			return runner.Down(cmd.Context(), deploy.DownOptions{
				RemoveContainers: remove || volumes,
				RemoveNetworks:   remove || volumes,
				RemoveVolumes:    volumes,
			})
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "Remove containers and networks after stopping")
	cmd.Flags().BoolVarP(&volumes, "volumes", "v", false, "Also remove named volumes (implies --remove)")

	return cmd
}
