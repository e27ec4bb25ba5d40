package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", "u1", "alice")
	require.NoError(t, err)

	claims, err := ValidateToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", "u1", "alice")
	require.NoError(t, err)

	_, err = ValidateToken("other", token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ValidateToken("secret", "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateTokenNeedsSecret(t *testing.T) {
	_, err := GenerateToken("", "u1", "alice")
	assert.Error(t, err)
}
