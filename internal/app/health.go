package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/todos/internal/cli"
	"horse.fit/todos/internal/globaltime"
)

func runHealth(args []string) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env")
	timeout := fs.Duration("timeout", 5*time.Second, "Health check timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, logger, err := loadConfig(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	started := globaltime.Now()
	d, err := openDeps(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Str("backend", cfg.StoreBackend).Msg("health check failed")
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		return 1
	}
	defer d.Close()

	if err := d.store.Ping(ctx); err != nil {
		logger.Error().Err(err).Str("backend", cfg.StoreBackend).Msg("health check failed")
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		return 1
	}

	logger.Info().
		Str("backend", cfg.StoreBackend).
		Dur("latency", globaltime.Since(started)).
		Msg("store healthy")
	fmt.Printf("ok backend=%s\n", cfg.StoreBackend)
	return 0
}
