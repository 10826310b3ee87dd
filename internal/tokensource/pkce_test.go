package tokensource

import (
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePKCE_ChallengeDerivation(t *testing.T) {
	pair, err := GeneratePKCE()
	require.NoError(t, err)

	sum := sha256.Sum256([]byte(pair.Verifier))
	want := base64.RawURLEncoding.EncodeToString(sum[:])
	assert.Equal(t, want, pair.Challenge)
}

func TestGeneratePKCE_VerifierFormat(t *testing.T) {
	pair, err := GeneratePKCE()
	require.NoError(t, err)

	// 32 random bytes encode to 43 unpadded URL-safe characters
	assert.Len(t, pair.Verifier, 43)
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9_-]+$`), pair.Verifier)
	assert.NotContains(t, pair.Verifier, "=")
	assert.NotContains(t, pair.Challenge, "=")
}

func TestGeneratePKCE_UniqueAcrossTrials(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for range 1000 {
		pair, err := GeneratePKCE()
		require.NoError(t, err)
		require.False(t, seen[pair.Verifier], "verifier repeated")
		seen[pair.Verifier] = true
	}
}
