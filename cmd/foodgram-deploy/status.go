package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/foodgram/foodgram/internal/shell/deploy"
)

// newStatusCommand creates the status command.
func newStatusCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-service container state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := setupLogger(opts)

			runner, client, err := newRunner(opts, logger, deploy.Config{})
			if err != nil {
				return err
			}
			defer client.Close()

			statuses, err := runner.Status(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SERVICE\tSTATUS\tHEALTH\tCONTAINER")
			for _, s := range statuses {
				health := s.Health
				if health == "" {
					health = "-"
				}
				id := s.ContainerID
				if len(id) > 12 {
					id = id[:12]
				}
				if id == "" {
					id = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Service, s.Status, health, id)
			}
			return w.Flush()
		},
	}

	return cmd
}
