package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"horse.fit/todos/internal/auth"
	"horse.fit/todos/internal/cli"
	"horse.fit/todos/internal/httpapi"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env")
	host := fs.String("host", "0.0.0.0", "Host interface to bind")
	port := fs.Int("port", 8080, "HTTP port")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 60*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")
	connectTimeout := fs.Duration("connect-timeout", 10*time.Second, "Store connection timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *port <= 0 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "--port must be between 1 and 65535")
		return 2
	}

	cfg, logger, err := loadConfig(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	keys, err := auth.NewKeySet(cfg.APIKeyHashList())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid API_KEY_HASHES: %v\n", err)
		return 1
	}
	if keys.Empty() {
		logger.Warn().Msg("API_KEY_HASHES is empty; write routes are not key-protected")
	}

	connectCtx, connectCancel := context.WithTimeout(context.Background(), *connectTimeout)
	defer connectCancel()

	d, err := openDeps(connectCtx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("serve failed to open store")
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		return 1
	}
	defer d.Close()

	router, err := d.newRouter(connectCtx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure translation: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := httpapi.NewServer(router, keys, logger, httpapi.Options{
		Host:            *host,
		Port:            *port,
		ReadTimeout:     *readTimeout,
		WriteTimeout:    *writeTimeout,
		ShutdownTimeout: *shutdownTimeout,
	})

	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Str("host", *host).Int("port", *port).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}

	return 0
}
