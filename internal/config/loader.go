package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Environment variables naming the config file, most specific first.
var pathEnvs = []string{"FQCLOCK_CONFIG", "CONFIG_PATH"}

// Files tried in the working directory when no path is set.
var defaultPaths = []string{"./fqclock.yaml", "./config.yaml"}

// Load reads the server configuration. Environment variables override the
// YAML file, which overrides env-default tags. A path named by FQCLOCK_CONFIG
// or CONFIG_PATH must exist; otherwise the first default file found is used,
// and with none the environment alone is read.
func Load() (*Config, error) {
	path, err := resolvePath()
	if err != nil {
		return nil, err
	}

	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// resolvePath returns "" when no config file applies.
func resolvePath() (string, error) {
	for _, env := range pathEnvs {
		path := os.Getenv(env)
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config: %s=%s: %w", env, path, err)
		}
		return path, nil
	}

	for _, path := range defaultPaths {
		_, err := os.Stat(path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("config: %s: %w", path, err)
		}
	}
	return "", nil
}
