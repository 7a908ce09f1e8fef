// Package token issues and verifies bucket-scoped upload tokens.
//
// A token has three colon-separated parts:
//
//	accessKey:signature:encodedPolicy
//
// encodedPolicy is the base64url encoding of the canonical JSON policy
// {"scope":"<bucket>","deadline":<unix-seconds>} and signature is the
// base64url encoded HMAC-SHA1 of encodedPolicy under the secret key.
//
// # Issuing tokens
//
//	signer, err := token.New(accessKey, secretKey, token.WithBucket("photos"))
//	if err != nil {
//	    // missing credentials
//	}
//	tok, err := signer.Token()
//
// The signer caches the last token and keeps returning it until the clock
// reaches deadline minus the time delta (30 seconds by default). Changing the
// bucket with SetBucket drops the cached token.
//
// # Verifying tokens
//
//	verifier := token.NewVerifier(token.StaticKeys(map[string]string{accessKey: secretKey}))
//	policy, err := verifier.Verify(tok)
//	if token.IsAuthError(err) {
//	    // reject the upload
//	}
package token
