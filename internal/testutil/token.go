package testutil

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// TokenSecret signs tokens built by Token.
const TokenSecret = "storefront-test-secret"

// Token builds a signed HS256 token carrying claims.
func Token(t testing.TB, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(TokenSecret))
	require.NoError(t, err)
	return signed
}

// LoginToken builds a token whose claims are {sub:{login}} like the ones the
// shop backend issues.
func LoginToken(t testing.TB, login string) string {
	t.Helper()
	return Token(t, jwt.MapClaims{"sub": map[string]any{"login": login}})
}
