// Package crypto provides HMAC signing for values stored client-side,
// such as the guest usage cookie.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

var (
	ErrInvalidKey       = errors.New("signing key must be 32 bytes")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Signer signs and verifies opaque string payloads with HMAC-SHA256.
// The wire format is: base64url(payload) + "." + base64url(mac).
type Signer struct {
	key []byte
}

// NewSigner creates a Signer with the given key. The key must be 32 bytes.
func NewSigner(key []byte) (*Signer, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	return &Signer{key: key}, nil
}

// Sign returns the signed wire form of payload.
func (s *Signer) Sign(payload string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString([]byte(payload)) +
		"." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify checks the wire form and returns the original payload.
// Returns ErrInvalidSignature for malformed or tampered values.
func (s *Signer) Verify(signed string) (string, error) {
	dot := strings.LastIndexByte(signed, '.')
	if dot < 0 {
		return "", ErrInvalidSignature
	}

	payload, err := base64.RawURLEncoding.DecodeString(signed[:dot])
	if err != nil {
		return "", ErrInvalidSignature
	}
	gotMAC, err := base64.RawURLEncoding.DecodeString(signed[dot+1:])
	if err != nil {
		return "", ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	if !hmac.Equal(gotMAC, mac.Sum(nil)) {
		return "", ErrInvalidSignature
	}

	return string(payload), nil
}
