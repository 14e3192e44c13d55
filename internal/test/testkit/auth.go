package testkit

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const JWTSecret = "test-secret-key-for-jwt-signing-must-be-long-enough"

// Token signs {id, role} claims with JWTSecret.
func Token(t testing.TB, id, role string) string {
	t.Helper()
	return sign(t, jwt.MapClaims{
		"id":   id,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
}

// LegacyToken signs the older nested {user: {id, role}} claims.
func LegacyToken(t testing.TB, id, role string) string {
	t.Helper()
	return sign(t, jwt.MapClaims{
		"user": map[string]interface{}{"id": id, "role": role},
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
}

func sign(t testing.TB, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(JWTSecret))
	require.NoError(t, err)
	return s
}
