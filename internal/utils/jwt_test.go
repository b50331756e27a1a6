package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("admin", "admin", "s3cret")
	require.NoError(t, err)

	claims, err := ValidateToken(token, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Role)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("admin", "admin", "s3cret")
	require.NoError(t, err)

	_, err = ValidateToken(token, "other")
	assert.Error(t, err)
}

func TestTokenRequiresSecret(t *testing.T) {
	_, err := GenerateToken("admin", "admin", "")
	assert.Error(t, err)

	_, err = ValidateToken("abc.def.ghi", "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
