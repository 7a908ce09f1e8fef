package upload

import (
	"log/slog"
	"net/http"
)

// Option is a functional option for configuring a Client
type Option func(*Client)

// WithEndpoint sets the upload service URL. Default is DefaultEndpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithDomain sets the domain prefixed to returned resource paths
func WithDomain(domain string) Option {
	return func(c *Client) {
		c.domain = domain
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithKeyGenerator sets the object key strategy. Default is TimestampKeys.
func WithKeyGenerator(g KeyGenerator) Option {
	return func(c *Client) {
		if g != nil {
			c.keys = g
		}
	}
}

// WithProgress sets a progress callback function
func WithProgress(fn ProgressFunc) Option {
	return func(c *Client) {
		c.progressFunc = fn
	}
}

// WithLogger sets the logger used for upload events
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}
