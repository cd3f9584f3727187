package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendBadger   = "badger"
	StoreBackendDynamoDB = "dynamodb"
)

// lambdaFunctionVar is set by the Lambda runtime in every function environment.
const lambdaFunctionVar = "AWS_LAMBDA_FUNCTION_NAME"

// DefaultStoreBackend is the backend used when STORE_BACKEND is unset.
func DefaultStoreBackend(inLambda bool) string {
	if inLambda {
		return StoreBackendDynamoDB
	}
	return StoreBackendPostgres
}

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// StoreBackend defaults to postgres, or dynamodb inside AWS Lambda.
	StoreBackend string `envconfig:"STORE_BACKEND"`

	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBMinConns  int32  `envconfig:"NP_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"NP_DB_MAX_CONNS" default:"8"`

	BadgerPath     string `envconfig:"BADGER_PATH" default:"data/todos"`
	BadgerInMemory bool   `envconfig:"BADGER_IN_MEMORY" default:"false"`

	TableName        string `envconfig:"TABLE_NAME" default:"todos"`
	AWSRegion        string `envconfig:"AWS_REGION" default:""`
	DynamoDBEndpoint string `envconfig:"DYNAMODB_ENDPOINT" default:""`

	TranslationProvider string        `envconfig:"TRANSLATION_PROVIDER" default:"aws"`
	TranslateEndpoint   string        `envconfig:"TRANSLATE_ENDPOINT" default:""`
	TranslationEndpoint string        `envconfig:"TRANSLATION_ENDPOINT" default:"http://127.0.0.1:8845/v1"`
	TranslationModel    string        `envconfig:"TRANSLATION_MODEL" default:"tencent/HY-MT1.5-7B"`
	OpenAIAPIKey        string        `envconfig:"OPENAI_API_KEY" default:""`
	GeminiAPIKey        string        `envconfig:"GEMINI_API_KEY" default:""`
	GeminiModel         string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	TranslationTimeout  time.Duration `envconfig:"TRANSLATION_TIMEOUT" default:"30s"`

	BreakerMaxFailures uint32        `envconfig:"TRANSLATION_BREAKER_MAX_FAILURES" default:"5"`
	BreakerOpenTimeout time.Duration `envconfig:"TRANSLATION_BREAKER_OPEN_TIMEOUT" default:"30s"`

	APIKeyHashes string `envconfig:"API_KEY_HASHES" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = DefaultStoreBackend(os.Getenv(lambdaFunctionVar) != "")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreBackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
		if c.DBMinConns < 0 {
			return fmt.Errorf("NP_DB_MIN_CONNS must be >= 0")
		}
		if c.DBMaxConns < 1 {
			return fmt.Errorf("NP_DB_MAX_CONNS must be >= 1")
		}
		if c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("NP_DB_MIN_CONNS (%d) cannot exceed NP_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
		}
	case StoreBackendBadger:
		if !c.BadgerInMemory && strings.TrimSpace(c.BadgerPath) == "" {
			return fmt.Errorf("BADGER_PATH is required unless BADGER_IN_MEMORY=true")
		}
	case StoreBackendDynamoDB:
		if strings.TrimSpace(c.TableName) == "" {
			return fmt.Errorf("TABLE_NAME is required when STORE_BACKEND=dynamodb")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of %s, %s, %s (got %q)",
			StoreBackendPostgres, StoreBackendBadger, StoreBackendDynamoDB, c.StoreBackend)
	}

	if strings.TrimSpace(c.TranslationProvider) == "" {
		return fmt.Errorf("TRANSLATION_PROVIDER is required")
	}
	if c.TranslationTimeout <= 0 {
		return fmt.Errorf("TRANSLATION_TIMEOUT must be > 0")
	}
	if c.BreakerMaxFailures < 1 {
		return fmt.Errorf("TRANSLATION_BREAKER_MAX_FAILURES must be >= 1")
	}
	if c.BreakerOpenTimeout <= 0 {
		return fmt.Errorf("TRANSLATION_BREAKER_OPEN_TIMEOUT must be > 0")
	}
	return nil
}

// APIKeyHashList returns the configured bcrypt hashes, trimmed and de-duplicated.
func (c *Config) APIKeyHashList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.APIKeyHashes, ",")
	hashes := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		hash := strings.TrimSpace(part)
		if hash == "" {
			continue
		}
		if _, exists := seen[hash]; exists {
			continue
		}
		seen[hash] = struct{}{}
		hashes = append(hashes, hash)
	}
	return hashes
}
