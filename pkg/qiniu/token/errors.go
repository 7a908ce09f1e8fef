package token

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the parent of every caller misconfiguration error.
// Match it with errors.Is.
var ErrConfiguration = errors.New("token: configuration error")

// Configuration errors
var (
	// ErrMissingAccessKey is returned when the access key is empty
	ErrMissingAccessKey = fmt.Errorf("%w: access key is required", ErrConfiguration)

	// ErrInvalidAccessKey is returned when the access key contains the token separator
	ErrInvalidAccessKey = fmt.Errorf("%w: access key must not contain ':'", ErrConfiguration)

	// ErrMissingSecretKey is returned when the secret key is empty
	ErrMissingSecretKey = fmt.Errorf("%w: secret key is required", ErrConfiguration)

	// ErrMissingBucket is returned when a token is requested before a bucket is set
	ErrMissingBucket = fmt.Errorf("%w: bucket name is required", ErrConfiguration)
)

// Verification errors
var (
	// ErrMalformedToken is returned when a token does not have three non-empty parts
	// or its policy cannot be decoded
	ErrMalformedToken = errors.New("token: malformed token")

	// ErrUnknownAccessKey is returned when no secret is registered for the access key
	ErrUnknownAccessKey = errors.New("token: unknown access key")

	// ErrInvalidSignature is returned when the signature does not match the policy
	ErrInvalidSignature = errors.New("token: invalid signature")

	// ErrExpired is returned when the policy deadline has passed
	ErrExpired = errors.New("token: token has expired")
)

// IsAuthError returns true if the error is a token verification error
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrUnknownAccessKey) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrExpired)
}
