package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/iudanet/fleetdocs/internal/auth"
	"github.com/iudanet/fleetdocs/internal/cli"
	"github.com/iudanet/fleetdocs/internal/config"
	"github.com/iudanet/fleetdocs/internal/storage/boltdb"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	dbPath := flag.String("db", "", "Path to local database (overrides FLEETDOCS_DB_PATH)")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	cfg := config.Load()
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	ctx := context.Background()

	// Открываем BoltDB storage
	kv, err := boltdb.New(ctx, cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	store, err := auth.NewStore(ctx, kv, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize store: %v\n", err)
		os.Exit(1)
	}

	app := cli.New(auth.NewService(cfg, store), cli.NewStdio())

	args := flag.Args()
	if len(args) == 0 {
		app.PrintUsage()
		os.Exit(1)
	}

	if err := app.Run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("FleetDocs\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
