package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleVerifier() *Verifier {
	return NewVerifier(StaticKeys(map[string]string{"AK1": "SK1"}))
}

func TestVerifyAt_RoundTrip(t *testing.T) {
	for _, padded := range []bool{false, true} {
		s := newExampleSigner(t, WithPadding(padded))
		tok, err := s.TokenAt(exampleNow)
		require.NoError(t, err)

		p, err := exampleVerifier().VerifyAt(tok, exampleNow+10)
		require.NoError(t, err, "padded=%v", padded)
		assert.Equal(t, &Policy{Scope: "mybucket", Deadline: exampleDeadline}, p)
	}
}

func TestVerifyAt_Rejects(t *testing.T) {
	s := newExampleSigner(t)
	tok, err := s.TokenAt(exampleNow)
	require.NoError(t, err)

	otherSigner, err := New("AK1", "wrong-secret", WithBucket("mybucket"))
	require.NoError(t, err)
	forged, err := otherSigner.TokenAt(exampleNow)
	require.NoError(t, err)

	_, sig, _, _ := Split(tok)
	swapped, err := EncodePolicy(Policy{Scope: "otherbucket", Deadline: exampleDeadline})
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		now     int64
		wantErr error
	}{
		{"empty", "", exampleNow, ErrMalformedToken},
		{"two parts", "AK1:" + sig, exampleNow, ErrMalformedToken},
		{"four parts", tok + ":x", exampleNow, ErrMalformedToken},
		{"unknown key", "AK2:" + sig + ":" + examplePolicy, exampleNow, ErrUnknownAccessKey},
		{"wrong secret", forged, exampleNow, ErrInvalidSignature},
		{"policy swapped", "AK1:" + sig + ":" + swapped, exampleNow, ErrInvalidSignature},
		{"signature not base64", "AK1:!!!:" + examplePolicy, exampleNow, ErrMalformedToken},
		{"expired", tok, exampleDeadline + 1, ErrExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := exampleVerifier().VerifyAt(tt.token, tt.now)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsAuthError(err))
		})
	}
}

func TestVerifyAt_AcceptsDeadlineSecond(t *testing.T) {
	s := newExampleSigner(t)
	tok, err := s.TokenAt(exampleNow)
	require.NoError(t, err)

	_, err = exampleVerifier().VerifyAt(tok, exampleDeadline)
	assert.NoError(t, err)
}

func TestVerify_UsesClock(t *testing.T) {
	s := newExampleSigner(t)
	tok, err := s.TokenAt(exampleNow)
	require.NoError(t, err)

	v := NewVerifier(StaticKeys(map[string]string{"AK1": "SK1"}),
		WithVerifierClock(func() time.Time { return time.Unix(exampleDeadline+60, 0) }))
	_, err = v.Verify(tok)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestIsAuthError(t *testing.T) {
	assert.False(t, IsAuthError(nil))
	assert.False(t, IsAuthError(ErrMissingBucket))
	assert.True(t, IsAuthError(ErrExpired))
}
