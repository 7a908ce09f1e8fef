package token

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring a Signer
type Option func(*Signer)

// WithBucket sets the initial bucket scope
func WithBucket(name string) Option {
	return func(s *Signer) {
		s.bucket = name
	}
}

// WithExpiry sets how long an issued token stays valid.
// Default is 1 hour. Sub-second precision is truncated.
func WithExpiry(d time.Duration) Option {
	return func(s *Signer) {
		s.expiry = int64(d / time.Second)
	}
}

// WithTimeDelta sets the safety margin subtracted from the deadline when
// deciding whether a cached token can be reused. Default is 30 seconds.
func WithTimeDelta(d time.Duration) Option {
	return func(s *Signer) {
		s.timeDelta = int64(d / time.Second)
	}
}

// WithClock overrides the time source used by Token
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// WithPadding makes the signer emit padded base64url ('=' suffixes) for the
// signature and policy. Some deployments of the upload service expect it.
func WithPadding(enabled bool) Option {
	return func(s *Signer) {
		s.padded = enabled
	}
}

// WithLogger sets the logger used for cache and signing events
func WithLogger(logger *slog.Logger) Option {
	return func(s *Signer) {
		if logger != nil {
			s.logger = logger
		}
	}
}
