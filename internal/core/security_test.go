// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("anything", "not-an-encoded-hash")
	assert.Error(t, err)
}

func TestVerifyPasswordTimingSafeWithMissingUser(t *testing.T) {
	ok, _, err := VerifyPasswordTimingSafe("anything", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	empty := ""
	ok, _, err = VerifyPasswordTimingSafe("anything", &empty)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGeneratePassword(t *testing.T) {
	pw, err := GeneratePassword(16)
	require.NoError(t, err)
	assert.Len(t, pw, 16)

	for _, c := range pw {
		assert.Contains(t, passwordAlphabet, string(c))
	}

	other, err := GeneratePassword(16)
	require.NoError(t, err)
	assert.NotEqual(t, pw, other)

	_, err = GeneratePassword(0)
	assert.Error(t, err)
}

func TestGenerateUsername(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantBase string
	}{
		{"simple name", "Acme Corp", "acme_corp"},
		{"punctuation stripped", "Früh & Söhne GmbH!", "frh_shne_gmbh"},
		{"hyphens collapse", "data--driven -- labs", "data_driven_labs"},
		{"empty falls back", "!!!", "company"},
		{"long names truncate", strings.Repeat("a", 40), strings.Repeat("a", 24)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			username, err := GenerateUsername(tt.input)
			require.NoError(t, err)

			idx := strings.LastIndex(username, "_")
			require.Greater(t, idx, 0)
			assert.Equal(t, tt.wantBase, username[:idx])
			assert.Len(t, username[idx+1:], 8)
		})
	}
}

func TestTokenHashing(t *testing.T) {
	token, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	hash := HashToken(token)
	assert.True(t, CompareTokenHash(token, hash))
	assert.False(t, CompareTokenHash("other-token", hash))
}
