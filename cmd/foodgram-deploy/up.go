package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/foodgram/foodgram/internal/shell/deploy"
)

// newUpCommand creates the up command.
func newUpCommand(opts *globalOptions) *cobra.Command {
	var (
		readyTimeout time.Duration
		pollInterval time.Duration
		retries      int
		skipMigrate  bool
		skipStatic   bool
	)

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Start the stack and run the release steps",
		Long: `Start the Compose services in dependency order, wait for every
container to report healthy, then run migrations and static collection
inside the backend container. The first failing step aborts the release.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := setupLogger(opts)

			runner, client, err := newRunner(opts, logger, deploy.Config{
				ReadyTimeout: readyTimeout,
				PollInterval: pollInterval,
				Retries:      retries,
				SkipMigrate:  skipMigrate,
				SkipStatic:   skipStatic,
			})
			if err != nil {
				return err
			}
			defer client.Close()

			return runner.Up(cmd.Context())
		},
	}

	cmd.Flags().DurationVar(&readyTimeout, "timeout", 2*time.Minute, "Deadline for the stack to become healthy")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 2*time.Second, "Interval between readiness checks")
	cmd.Flags().IntVar(&retries, "retries", 3, "Retry budget for transient engine errors")
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Skip database migrations")
	cmd.Flags().BoolVar(&skipStatic, "skip-static", false, "Skip static collection and copy")

	return cmd
}
