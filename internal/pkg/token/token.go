package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// NewCodeVerifier generates a PKCE code verifier: 64 hex characters, which
// sits inside the 43..128 range RFC 7636 allows.
func NewCodeVerifier() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate code verifier: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// CodeChallenge derives the S256 challenge sent with the magic-link request.
func CodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
