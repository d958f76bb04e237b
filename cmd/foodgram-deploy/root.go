package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/foodgram/foodgram/internal/core/compose"
	"github.com/foodgram/foodgram/internal/shell/deploy"
	"github.com/foodgram/foodgram/internal/shell/docker"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// globalOptions holds flags shared by every subcommand.
type globalOptions struct {
	composeFile    string
	envFile        string
	envFileSet     bool
	projectName    string
	dockerHost     string
	backendService string
	staticSource   string
	staticDest     string
	logLevel       string
	logFormat      string
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "foodgram-deploy",
		Short: "Release tool for the Foodgram stack",
		Long: `foodgram-deploy manages the Foodgram Compose stack on a Docker engine.

It starts services in dependency order, waits for their healthchecks to
pass, runs database migrations and static collection inside the backend
container, and copies the collected static files out to the host.`,
		Version:      fmt.Sprintf("%s (built %s)", Version, BuildTime),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			opts.envFileSet = cmd.Flags().Changed("env-file")
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.composeFile, "file", "f", "docker-compose.yml", "Compose file")
	pf.StringVar(&opts.envFile, "env-file", ".env", "Environment file for variable interpolation")
	pf.StringVarP(&opts.projectName, "project-name", "p", "foodgram", "Project name")
	pf.StringVar(&opts.dockerHost, "docker-host", "", "Docker host (defaults to the environment)")
	pf.StringVar(&opts.backendService, "backend", "backend", "Service that receives the management commands")
	pf.StringVar(&opts.staticSource, "static-source", "/app/collected_static", "Static files path inside the backend container")
	pf.StringVar(&opts.staticDest, "static-dest", "./static", "Host directory receiving the static files")
	pf.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(newUpCommand(opts))
	rootCmd.AddCommand(newDownCommand(opts))
	rootCmd.AddCommand(newStatusCommand(opts))

	return rootCmd
}

// =============================================================================
// Shared Setup
// =============================================================================

func setupLogger(opts *globalOptions) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(opts.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(opts.logFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	return slog.New(handler)
}

// loadProject parses the Compose file with the env file and process
// environment applied for interpolation.
func loadProject(opts *globalOptions) (*compose.Project, error) {
	// A missing default .env is fine; an explicitly named one must exist.
	fileEnv, err := deploy.LoadEnvFile(opts.envFile, !opts.envFileSet)
	if err != nil {
		return nil, err
	}
	env := deploy.MergeEnv(fileEnv, os.Environ())

	content, err := os.ReadFile(opts.composeFile)
	if err != nil {
		return nil, fmt.Errorf("read compose file %s: %w", opts.composeFile, err)
	}

	project, err := compose.Parse(content, opts.projectName, env)
	if err != nil {
		return nil, fmt.Errorf("parse compose file %s: %w", opts.composeFile, err)
	}
	return project, nil
}

// newRunner builds a deploy runner for the parsed project. The caller must
// Close the returned client.
func newRunner(opts *globalOptions, logger *slog.Logger, cfg deploy.Config) (*deploy.Runner, docker.Client, error) {
	project, err := loadProject(opts)
	if err != nil {
		return nil, nil, err
	}

	client, err := docker.NewDockerClient(opts.dockerHost)
	if err != nil {
		return nil, nil, err
	}

	cfg.BackendService = opts.backendService
	cfg.StaticSource = opts.staticSource
	cfg.StaticDest = opts.staticDest

	return deploy.NewRunner(client, logger, project, cfg), client, nil
}
