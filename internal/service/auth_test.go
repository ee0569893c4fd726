package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/mealforge/internal/types"
)

func TestJWTService(t *testing.T) {
	svc := NewJWTService("test-secret")

	t.Run("should round-trip a token", func(t *testing.T) {
		token, err := svc.GenerateToken("user-123", "Alice")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.Subject)
		assert.Equal(t, "user-123", claims.Identity())
		assert.Equal(t, "Alice", claims.Name)
	})

	t.Run("should reject a token signed with another secret", func(t *testing.T) {
		other := NewJWTService("other-secret")
		token, err := other.GenerateToken("user-123", "Alice")
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("should reject an unsigned token", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &types.TokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-123"},
		})
		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("should reject an expired token", func(t *testing.T) {
		expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &types.TokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-123",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})
		token, err := expired.SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("should reject a token without a subject", func(t *testing.T) {
		anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, &types.TokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		token, err := anonymous.SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "subject")
	})

	t.Run("should reject garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.Error(t, err)
	})
}
