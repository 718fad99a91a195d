package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"time"
)

// opaqueTokenBytes gives 256 bits of entropy.
const opaqueTokenBytes = 32

// NewOpaqueToken returns a random url-safe token and the digest to persist for it.
func NewOpaqueToken() (string, string, error) {
	raw := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	return token, DigestToken(token), nil
}

func DigestToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Expired reports whether expiresAt has passed at now. A missing expiry counts as expired.
func Expired(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil {
		return true
	}
	return now.After(*expiresAt)
}
