package cli

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFileVar overrides the --env flag when set.
const EnvFileVar = "TODOS_ENV_FILE"

// EnvLoader loads a .env file chosen by flag or environment variable.
type EnvLoader struct {
	value       *string
	defaultPath string
}

// AddEnvFlag registers an --env flag and returns an EnvLoader.
func AddEnvFlag(fs *flag.FlagSet, defaultPath string) *EnvLoader {
	if fs == nil {
		fs = flag.CommandLine
	}
	if defaultPath == "" {
		defaultPath = ".env"
	}

	value := fs.String("env", defaultPath, "Path to the .env file")
	return &EnvLoader{
		value:       value,
		defaultPath: defaultPath,
	}
}

// Load applies the resolved file on top of the process environment and returns its path.
// A missing default file is not an error: deployments usually configure the environment directly.
func (l *EnvLoader) Load() (string, error) {
	if l == nil {
		return "", fmt.Errorf("env loader is nil")
	}

	path := strings.TrimSpace(os.Getenv(EnvFileVar))
	explicit := path != ""
	if !explicit && l.value != nil {
		path = strings.TrimSpace(*l.value)
		explicit = path != l.defaultPath
	}
	if path == "" {
		path = l.defaultPath
	}

	if err := godotenv.Overload(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("load env file %s: %w", path, err)
	}
	return path, nil
}
