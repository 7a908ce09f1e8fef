package token

import (
	"crypto/hmac"
	"crypto/sha1"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultExpiry is how long an issued token is valid
	DefaultExpiry = time.Hour

	// DefaultTimeDelta is the margin before the deadline at which a cached token is renewed
	DefaultTimeDelta = 30 * time.Second
)

// Signer issues HMAC-SHA1 signed upload tokens scoped to one bucket and
// caches the last token until it nears its deadline.
// A Signer is safe for concurrent use.
type Signer struct {
	accessKey string
	secretKey []byte
	expiry    int64
	timeDelta int64
	padded    bool
	now       func() time.Time
	logger    *slog.Logger

	mu       sync.Mutex
	bucket   string
	token    string
	deadline int64
}

// New creates a Signer for the given credentials.
// Both keys are required; the bucket can be supplied later with SetBucket.
func New(accessKey, secretKey string, opts ...Option) (*Signer, error) {
	if accessKey == "" {
		return nil, ErrMissingAccessKey
	}
	if strings.Contains(accessKey, ":") {
		return nil, ErrInvalidAccessKey
	}
	if secretKey == "" {
		return nil, ErrMissingSecretKey
	}

	s := &Signer{
		accessKey: accessKey,
		secretKey: []byte(secretKey),
		expiry:    int64(DefaultExpiry / time.Second),
		timeDelta: int64(DefaultTimeDelta / time.Second),
		now:       time.Now,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// AccessKey returns the public half of the credentials
func (s *Signer) AccessKey() string {
	return s.accessKey
}

// Bucket returns the current bucket scope
func (s *Signer) Bucket() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bucket
}

// SetBucket changes the bucket scope and drops any cached token
func (s *Signer) SetBucket(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name != s.bucket {
		s.logger.Debug("bucket scope changed", "from", s.bucket, "to", name)
	}
	s.bucket = name
	s.token = ""
	s.deadline = 0
}

// Token returns a token valid at the signer's current clock time
func (s *Signer) Token() (string, error) {
	return s.TokenAt(s.now().Unix())
}

// TokenAt returns a token for the current bucket as of now (unix seconds).
// The cached token is returned while now < deadline-timeDelta; otherwise a
// new one is signed with deadline now+expiry.
func (s *Signer) TokenAt(now int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bucket == "" {
		return "", ErrMissingBucket
	}

	if s.token != "" && now < s.deadline-s.timeDelta {
		return s.token, nil
	}

	policy := Policy{Scope: s.bucket, Deadline: now + s.expiry}
	data, err := policy.CanonicalJSON()
	if err != nil {
		return "", err
	}
	encodedPolicy := encodeURLSafe(data, s.padded)

	token := strings.Join([]string{s.accessKey, s.sign(encodedPolicy), encodedPolicy}, ":")

	s.token = token
	s.deadline = policy.Deadline
	s.logger.Debug("issued upload token", "bucket", s.bucket, "deadline", policy.Deadline)

	return token, nil
}

// sign returns base64url(HMAC-SHA1(secretKey, payload))
func (s *Signer) sign(payload string) string {
	return encodeURLSafe(Sign(s.secretKey, payload), s.padded)
}

// Sign computes the raw HMAC-SHA1 digest of payload under secret
func Sign(secret []byte, payload string) []byte {
	h := hmac.New(sha1.New, secret)
	h.Write([]byte(payload))
	return h.Sum(nil)
}
