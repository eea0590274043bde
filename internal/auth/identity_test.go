package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return signed
}

func TestIdentityFromIDToken(t *testing.T) {
	idToken := signedIDToken(t, jwt.MapClaims{
		"sub":   "user-42",
		"email": "books@example.com",
	})

	identity := IdentityFromIDToken(idToken)

	require.NotNil(t, identity)
	assert.Equal(t, "user-42", identity.Subject)
	assert.Equal(t, "books@example.com", identity.Email)
}

func TestIdentityFromIDToken_Empty(t *testing.T) {
	assert.Nil(t, IdentityFromIDToken(""))
}

func TestIdentityFromIDToken_Garbage(t *testing.T) {
	assert.Nil(t, IdentityFromIDToken("not-a-jwt"))
}

func TestIdentityFromIDToken_NoUsableClaims(t *testing.T) {
	idToken := signedIDToken(t, jwt.MapClaims{"aud": "someone"})
	assert.Nil(t, IdentityFromIDToken(idToken))
}
