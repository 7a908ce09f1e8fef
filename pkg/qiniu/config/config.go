package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/tendant/qiniu-upload/pkg/qiniu/token"
	"github.com/tendant/qiniu-upload/pkg/qiniu/upload"
)

// Key schemes accepted in Config.KeyScheme
const (
	KeySchemeTimestamp = "timestamp"
	KeySchemeUUID      = "uuid"
)

// Option applies configuration to a Config instance.
type Option func(*Config) error

// Load constructs a Config by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*Config, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() Config {
	return Config{
		Endpoint:    upload.DefaultEndpoint,
		TokenExpiry: token.DefaultExpiry,
		TimeDelta:   token.DefaultTimeDelta,
		KeyScheme:   KeySchemeTimestamp,
		Concurrency: 4,
		Server: ServerConfig{
			Addr:       ":9090",
			StorageURL: "memory://",
		},
	}
}

// Config holds client credentials, upload target and development server settings.
// Environment variable names are given by the env tags.
type Config struct {
	AccessKey string `env:"QINIU_ACCESS_KEY" env-description:"access key identifying the account"`
	SecretKey string `env:"QINIU_SECRET_KEY" env-description:"secret key used to sign upload tokens"`
	Bucket    string `env:"QINIU_BUCKET" env-description:"bucket the upload token is scoped to"`
	Domain    string `env:"QINIU_DOMAIN" env-description:"domain prefixed to returned resource paths"`
	Endpoint  string `env:"QINIU_UPLOAD_URL" env-description:"form upload endpoint (default http://up-z2.qiniu.com/)"`

	TokenExpiry  time.Duration `env:"QINIU_TOKEN_EXPIRY" env-description:"lifetime of issued tokens (default 1h)"`
	TimeDelta    time.Duration `env:"QINIU_TIME_DELTA" env-description:"renew cached tokens this long before expiry (default 30s)"`
	PaddedTokens bool          `env:"QINIU_PADDED_TOKENS" env-description:"emit '=' padding in token base64"`

	KeyScheme   string `env:"QINIU_KEY_SCHEME" env-description:"object key scheme: timestamp or uuid"`
	Concurrency int    `env:"QINIU_CONCURRENCY" env-description:"parallel uploads for multi-file runs"`

	Server ServerConfig
}

// ServerConfig configures the development upload server
type ServerConfig struct {
	Addr       string `env:"QINIU_SERVER_ADDR" env-description:"listen address of the development server"`
	StorageURL string `env:"QINIU_STORAGE_URL" env-description:"memory://, file:///path or s3://bucket?region=..&endpoint=.."`
}

// Validate validates the configuration.
// Credentials are checked when the signer is built.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid upload endpoint %q: must be an http(s) URL", c.Endpoint)
	}

	if c.TokenExpiry < time.Second {
		return errors.New("token expiry must be at least one second")
	}
	if c.TimeDelta < 0 || c.TimeDelta >= c.TokenExpiry {
		return fmt.Errorf("time delta %s must be non-negative and shorter than token expiry %s", c.TimeDelta, c.TokenExpiry)
	}

	if c.KeyScheme != KeySchemeTimestamp && c.KeyScheme != KeySchemeUUID {
		return fmt.Errorf("key scheme must be '%s' or '%s', got '%s'", KeySchemeTimestamp, KeySchemeUUID, c.KeyScheme)
	}

	if c.Concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}

	if c.Server.Addr == "" {
		return errors.New("server address is required")
	}

	return nil
}

// BuildSigner creates a token signer from the credentials and bucket.
// Missing credentials return an error matching token.ErrConfiguration.
func (c *Config) BuildSigner(logger *slog.Logger) (*token.Signer, error) {
	return token.New(c.AccessKey, c.SecretKey,
		token.WithBucket(c.Bucket),
		token.WithExpiry(c.TokenExpiry),
		token.WithTimeDelta(c.TimeDelta),
		token.WithPadding(c.PaddedTokens),
		token.WithLogger(logger),
	)
}

// BuildClient creates an upload client authorized by tokens
func (c *Config) BuildClient(tokens upload.TokenSource, logger *slog.Logger, opts ...upload.Option) *upload.Client {
	base := []upload.Option{
		upload.WithEndpoint(c.Endpoint),
		upload.WithDomain(c.Domain),
		upload.WithKeyGenerator(c.KeyGenerator()),
		upload.WithLogger(logger),
	}
	return upload.New(tokens, append(base, opts...)...)
}

// KeyGenerator returns the generator for the configured key scheme
func (c *Config) KeyGenerator() upload.KeyGenerator {
	if c.KeyScheme == KeySchemeUUID {
		return upload.NewUUIDKeys()
	}
	return upload.NewTimestampKeys()
}
