package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/foodgram/foodgram/internal/shell/seed"
	"github.com/foodgram/foodgram/internal/shell/store"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	loadIngredients := flag.String("load-ingredients", "", "Load ingredient fixtures (.json or .csv) and exit")
	loadTags := flag.String("load-tags", "", "Load tag fixtures (.yaml) and exit")
	flag.Parse()

	// Handle version flag
	if *showVersion {
		fmt.Printf("foodgram %s (built %s)\n", Version, BuildTime)
		return ExitSuccess
	}

	// Load configuration
	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return ExitConfigError
	}

	// Setup logger
	logger := SetupLogger(cfg)

	// Fixture loading mode: seed the catalog and exit
	if *loadIngredients != "" || *loadTags != "" {
		return runSeed(cfg, *loadIngredients, *loadTags, logger)
	}

	logger.Info("starting foodgram",
		"version", Version,
		"config", *configPath,
	)

	// Create server
	server, err := NewServer(cfg, logger)
	if err != nil {
		if sErr, ok := err.(*ServerError); ok {
			logger.Error("failed to create server",
				"error", sErr.Err,
				"operation", sErr.Op,
			)
			return sErr.ExitCode
		}
		logger.Error("failed to create server", "error", err)
		return ExitConfigError
	}

	// Start server
	ctx := context.Background()
	if err := server.Start(ctx); err != nil {
		if sErr, ok := err.(*ServerError); ok {
			logger.Error("server error",
				"error", sErr.Err,
				"operation", sErr.Op,
			)
			return sErr.ExitCode
		}
		logger.Error("server error", "error", err)
		return ExitConfigError
	}

	return ExitSuccess
}

func runSeed(cfg *Config, ingredientsPath, tagsPath string, logger *slog.Logger) int {
	s, err := store.NewSQLiteStore(cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return ExitDatabaseError
	}
	defer s.Close()

	ctx := context.Background()
	if ingredientsPath != "" {
		if _, err := seed.LoadIngredients(ctx, s, ingredientsPath, logger); err != nil {
			logger.Error("failed to load ingredients", "error", err)
			return ExitDatabaseError
		}
	}
	if tagsPath != "" {
		if _, err := seed.LoadTags(ctx, s, tagsPath, logger); err != nil {
			logger.Error("failed to load tags", "error", err)
			return ExitDatabaseError
		}
	}
	return ExitSuccess
}
