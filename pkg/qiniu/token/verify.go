package token

import (
	"crypto/hmac"
	"fmt"
	"strings"
	"time"
)

// KeyLookup returns the secret registered for an access key
type KeyLookup func(accessKey string) (secret []byte, ok bool)

// StaticKeys returns a KeyLookup backed by a fixed access-key to secret map
func StaticKeys(keys map[string]string) KeyLookup {
	return func(accessKey string) ([]byte, bool) {
		secret, ok := keys[accessKey]
		if !ok {
			return nil, false
		}
		return []byte(secret), true
	}
}

// Verifier checks tokens produced by a Signer. It is the service-side half
// of the scheme: split the token, find the secret by access key, check the
// HMAC over the encoded policy, then decode the policy and check the deadline.
type Verifier struct {
	keys KeyLookup
	now  func() time.Time
}

// VerifierOption is a functional option for configuring a Verifier
type VerifierOption func(*Verifier)

// WithVerifierClock overrides the time source used by Verify
func WithVerifierClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		v.now = now
	}
}

// NewVerifier creates a Verifier that resolves secrets with keys
func NewVerifier(keys KeyLookup, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		keys: keys,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify validates tok against the verifier's clock and returns its policy
func (v *Verifier) Verify(tok string) (*Policy, error) {
	return v.VerifyAt(tok, v.now().Unix())
}

// VerifyAt validates tok as of now (unix seconds) and returns its policy.
// A token is accepted up to and including its deadline second.
func (v *Verifier) VerifyAt(tok string, now int64) (*Policy, error) {
	accessKey, signature, encodedPolicy, err := Split(tok)
	if err != nil {
		return nil, err
	}

	secret, ok := v.keys(accessKey)
	if !ok {
		return nil, ErrUnknownAccessKey
	}

	given, err := DecodeURLSafe(signature)
	if err != nil {
		return nil, fmt.Errorf("%w: signature is not base64url: %v", ErrMalformedToken, err)
	}

	// Compare in constant time to prevent timing attacks
	if !hmac.Equal(given, Sign(secret, encodedPolicy)) {
		return nil, ErrInvalidSignature
	}

	policy, err := DecodePolicy(encodedPolicy)
	if err != nil {
		return nil, err
	}

	if now > policy.Deadline {
		return nil, ErrExpired
	}

	return policy, nil
}

// Split breaks a token into its access key, signature and encoded policy
func Split(tok string) (accessKey, signature, encodedPolicy string, err error) {
	parts := strings.Split(tok, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("%w: expected accessKey:signature:policy", ErrMalformedToken)
	}
	return parts[0], parts[1], parts[2], nil
}
