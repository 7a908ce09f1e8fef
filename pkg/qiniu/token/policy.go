package token

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Policy is the signed payload of an upload token.
// Field order is part of the wire format: scope, then deadline.
type Policy struct {
	Scope    string `json:"scope"`
	Deadline int64  `json:"deadline"`
}

// CanonicalJSON serializes the policy with fixed key order and no whitespace.
// HTML characters are left unescaped and non-ASCII characters are written as
// \uXXXX escapes so the bytes match other implementations.
func (p Policy) CanonicalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("failed to encode policy: %w", err)
	}
	return escapeNonASCII(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// escapeNonASCII rewrites every rune above U+007F in encoded JSON as a
// lowercase \uXXXX escape, using a surrogate pair outside the BMP.
func escapeNonASCII(data []byte) []byte {
	if !bytes.ContainsFunc(data, func(r rune) bool { return r >= utf8.RuneSelf }) {
		return data
	}

	out := make([]byte, 0, len(data)+16)
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		if r < utf8.RuneSelf {
			out = append(out, byte(r))
			continue
		}
		if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
			out = fmt.Appendf(out, "\\u%04x\\u%04x", r1, r2)
			continue
		}
		out = fmt.Appendf(out, "\\u%04x", r)
	}
	return out
}

// EncodeURLSafe returns the unpadded base64url encoding of data
func EncodeURLSafe(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func encodeURLSafe(data []byte, padded bool) string {
	if padded {
		return base64.URLEncoding.EncodeToString(data)
	}
	return EncodeURLSafe(data)
}

// DecodeURLSafe decodes base64url input with or without padding
func DecodeURLSafe(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

// EncodePolicy returns the base64url-encoded canonical JSON of the policy
func EncodePolicy(p Policy) (string, error) {
	data, err := p.CanonicalJSON()
	if err != nil {
		return "", err
	}
	return EncodeURLSafe(data), nil
}

// DecodePolicy reverses EncodePolicy
func DecodePolicy(encoded string) (*Policy, error) {
	data, err := DecodeURLSafe(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: policy is not base64url: %v", ErrMalformedToken, err)
	}

	var p Policy
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: policy is not JSON: %v", ErrMalformedToken, err)
	}
	return &p, nil
}
