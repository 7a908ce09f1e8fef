package config

import "time"

// WithCredentials sets the access and secret key when both are non-empty
func WithCredentials(accessKey, secretKey string) Option {
	return func(c *Config) error {
		if accessKey != "" && secretKey != "" {
			c.AccessKey = accessKey
			c.SecretKey = secretKey
		}
		return nil
	}
}

// WithBucket overrides the bucket when name is non-empty
func WithBucket(name string) Option {
	return func(c *Config) error {
		if name != "" {
			c.Bucket = name
		}
		return nil
	}
}

// WithDomain overrides the resource domain when non-empty
func WithDomain(domain string) Option {
	return func(c *Config) error {
		if domain != "" {
			c.Domain = domain
		}
		return nil
	}
}

// WithEndpoint overrides the upload endpoint when non-empty
func WithEndpoint(endpoint string) Option {
	return func(c *Config) error {
		if endpoint != "" {
			c.Endpoint = endpoint
		}
		return nil
	}
}

// WithTokenExpiry overrides the token lifetime when positive
func WithTokenExpiry(d time.Duration) Option {
	return func(c *Config) error {
		if d > 0 {
			c.TokenExpiry = d
		}
		return nil
	}
}

// WithKeyScheme overrides the key scheme when non-empty
func WithKeyScheme(scheme string) Option {
	return func(c *Config) error {
		if scheme != "" {
			c.KeyScheme = scheme
		}
		return nil
	}
}

// WithConcurrency overrides the upload concurrency when positive
func WithConcurrency(n int) Option {
	return func(c *Config) error {
		if n > 0 {
			c.Concurrency = n
		}
		return nil
	}
}

// WithServer overrides the development server address and storage URL
// when they are non-empty
func WithServer(addr, storageURL string) Option {
	return func(c *Config) error {
		if addr != "" {
			c.Server.Addr = addr
		}
		if storageURL != "" {
			c.Server.StorageURL = storageURL
		}
		return nil
	}
}
