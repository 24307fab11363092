package oauth

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePKCE(t *testing.T) {
	p, err := GeneratePKCE()
	require.NoError(t, err)
	assert.Equal(t, "S256", p.Method)
	assert.NotEmpty(t, p.CodeVerifier)

	hash := sha256.Sum256([]byte(p.CodeVerifier))
	want := base64.RawURLEncoding.EncodeToString(hash[:])
	assert.Equal(t, want, p.CodeChallenge)
}

func TestGeneratePKCE_Unique(t *testing.T) {
	p1, err := GeneratePKCE()
	require.NoError(t, err)
	p2, err := GeneratePKCE()
	require.NoError(t, err)
	assert.NotEqual(t, p1.CodeVerifier, p2.CodeVerifier)
}

func TestGenerateState(t *testing.T) {
	s1, err := GenerateState()
	require.NoError(t, err)
	s2, err := GenerateState()
	require.NoError(t, err)
	assert.NotEmpty(t, s1)
	assert.NotEqual(t, s1, s2)
}
