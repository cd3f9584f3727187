package app

import (
	"context"
	"fmt"

	"horse.fit/todos/internal/config"
	"horse.fit/todos/internal/lambdaapi"
	"horse.fit/todos/internal/logging"
)

// NewLambdaHandler wires the API Gateway handler from the process environment.
// The returned func releases the store.
func NewLambdaHandler(ctx context.Context) (*lambdaapi.Handler, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}

	d, err := openDeps(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	router, err := d.newRouter(ctx, "")
	if err != nil {
		d.Close()
		return nil, nil, err
	}
	return lambdaapi.NewHandler(router, logger), d.Close, nil
}
