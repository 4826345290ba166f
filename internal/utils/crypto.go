// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"

	"github.com/google/uuid"
)

// GenerateLicenseKey returns a URL-safe random token with 256 bits of
// entropy. The unpadded encoding keeps it usable in paths and query
// strings without escaping.
func GenerateLicenseKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateAPICredentials returns a hex API key (64 chars) and secret
// (128 chars) pair for a brand.
func GenerateAPICredentials() (string, string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", "", err
	}
	secret := make([]byte, 64)
	if _, err := rand.Read(secret); err != nil {
		return "", "", err
	}
	return hex.EncodeToString(key), hex.EncodeToString(secret), nil
}

// SecureCompare reports whether two secrets are equal without leaking
// the match position through timing.
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// NewRequestID returns a short correlation id for one request.
func NewRequestID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])[:8]
}
