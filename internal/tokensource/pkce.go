package tokensource

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// PKCE is an ephemeral verifier/challenge pair. A fresh pair is generated
// per authorization attempt and discarded after the code exchange.
type PKCE struct {
	Verifier  string
	Challenge string
}

// GeneratePKCE produces a PKCE pair: the verifier is the unpadded
// URL-safe base64 encoding of 32 cryptographically random bytes, and the
// challenge is the same encoding of the SHA-256 digest of the verifier's
// ASCII bytes (the S256 method).
func GeneratePKCE() (PKCE, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return PKCE{}, fmt.Errorf("generating code verifier: %w", err)
	}

	verifier := base64.RawURLEncoding.EncodeToString(buf)
	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])

	return PKCE{
		Verifier:  verifier,
		Challenge: challenge,
	}, nil
}
