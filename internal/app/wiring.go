package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/rs/zerolog"

	"horse.fit/todos/internal/cli"
	"horse.fit/todos/internal/config"
	"horse.fit/todos/internal/db"
	"horse.fit/todos/internal/logging"
	"horse.fit/todos/internal/store/badgerstore"
	"horse.fit/todos/internal/store/dynamostore"
	"horse.fit/todos/internal/todo"
	"horse.fit/todos/internal/translation"
)

// backend is a todo.Store the CLI can also health-check and release.
type backend interface {
	todo.Store
	Ping(ctx context.Context) error
}

type deps struct {
	cfg     *config.Config
	logger  zerolog.Logger
	awsCfg  aws.Config
	store   backend
	closeFn func() error
}

func (r *deps) Close() {
	if r == nil || r.closeFn == nil {
		return
	}
	if err := r.closeFn(); err != nil {
		r.logger.Warn().Err(err).Msg("close store failed")
	}
}

// loadConfig applies the .env file, then reads configuration and builds the logger.
func loadConfig(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			return nil, zerolog.Nop(), err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("initialize logger: %w", err)
	}
	return cfg, logger, nil
}

func openDeps(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*deps, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rt := &deps{cfg: cfg, logger: logger, awsCfg: awsCfg}
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		rt.store = pool
		rt.closeFn = pool.Close
	case config.StoreBackendBadger:
		store, err := badgerstore.Open(badgerstore.Options{
			Path:     cfg.BadgerPath,
			InMemory: cfg.BadgerInMemory,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		rt.store = store
		rt.closeFn = store.Close
	case config.StoreBackendDynamoDB:
		store, err := dynamostore.New(dynamostore.NewClient(awsCfg, cfg.DynamoDBEndpoint), cfg.TableName)
		if err != nil {
			return nil, err
		}
		rt.store = store
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}

	logger.Debug().Str("backend", cfg.StoreBackend).Msg("store opened")
	return rt, nil
}

func loadAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region := strings.TrimSpace(cfg.AWSRegion); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

// buildRegistry registers every provider the configuration allows, each behind a breaker.
func buildRegistry(ctx context.Context, cfg *config.Config, awsCfg aws.Config, logger zerolog.Logger) (*translation.Registry, error) {
	registry := translation.NewRegistry(cfg.TranslationProvider)

	if err := registry.Register(translation.NewAWSProvider(awsCfg, cfg.TranslateEndpoint)); err != nil {
		return nil, err
	}
	openAI := translation.NewOpenAIProvider(cfg.TranslationEndpoint, cfg.TranslationModel, cfg.OpenAIAPIKey, cfg.TranslationTimeout)
	if err := registry.Register(openAI); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		gemini, err := translation.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(gemini); err != nil {
			return nil, err
		}
	}

	breakerLogger := logger.With().Str("component", "translation_breaker").Logger()
	registry.Wrap(func(p translation.Provider) translation.Provider {
		return translation.WithBreaker(p, translation.BreakerSettings{
			MaxFailures: cfg.BreakerMaxFailures,
			OpenTimeout: cfg.BreakerOpenTimeout,
			CallTimeout: cfg.TranslationTimeout,
			OnStateChange: func(name, from, to string) {
				breakerLogger.Warn().Str("breaker", name).Str("from", from).Str("to", to).Msg("translation breaker state changed")
			},
		})
	})
	return registry, nil
}

// newRouter builds the router around the store and the named (or default) provider.
func (r *deps) newRouter(ctx context.Context, providerName string) (*todo.Router, error) {
	registry, err := buildRegistry(ctx, r.cfg, r.awsCfg, r.logger)
	if err != nil {
		return nil, fmt.Errorf("build translation providers: %w", err)
	}
	provider, err := registry.Provider(providerName)
	if err != nil {
		return nil, err
	}

	r.logger.Info().
		Str("provider", provider.Name()).
		Str("model", translation.ModelName(provider)).
		Strs("available", registry.ProviderNames()).
		Msg("translation provider selected")

	service := todo.NewService(r.store, provider, r.logger)
	return todo.NewRouter(service, r.logger), nil
}
