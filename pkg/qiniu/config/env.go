package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// WithEnv applies environment variable overrides. Variables that are not
// set leave the current value in place.
//
//	QINIU_ACCESS_KEY, QINIU_SECRET_KEY   credentials
//	QINIU_BUCKET                         token scope
//	QINIU_DOMAIN                         resource path prefix
//	QINIU_UPLOAD_URL                     upload endpoint
//	QINIU_TOKEN_EXPIRY, QINIU_TIME_DELTA durations such as "1h" or "30s"
//	QINIU_PADDED_TOKENS                  true/false
//	QINIU_KEY_SCHEME                     timestamp or uuid
//	QINIU_CONCURRENCY                    parallel uploads
//	QINIU_SERVER_ADDR, QINIU_STORAGE_URL development server
func WithEnv() Option {
	return func(c *Config) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return nil
	}
}

// WithDotEnv loads variables from a .env file into the process environment
// without overriding variables that are already set. With an empty path
// ".env" is tried and silently skipped when missing.
func WithDotEnv(path string) Option {
	return func(c *Config) error {
		if path == "" {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load .env: %w", err)
			}
			return nil
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		return nil
	}
}

// EnvDescription lists the supported environment variables
func EnvDescription() (string, error) {
	header := "Environment variables:"
	var cfg Config
	return cleanenv.GetDescription(&cfg, &header)
}
