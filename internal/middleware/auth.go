package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/mealforge/internal/types"
)

// Context keys set by the identity middleware.
const (
	IdentityKey     = "identity"
	IdentityNameKey = "identity_name"
)

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(token string) (*types.TokenClaims, error)
}

// Identity validates the Bearer token and stores the caller's identity
// in the request context. With allowAnonymous set, requests without an
// Authorization header run under a fresh anonymous identity; a header
// that is present but broken is still rejected.
func Identity(validator TokenValidator, allowAnonymous bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if allowAnonymous {
				c.Set(IdentityKey, "anon-"+uuid.NewString())
				c.Next()
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set(IdentityKey, claims.Identity())
		c.Set(IdentityNameKey, claims.Name)
		c.Next()
	}
}

// IdentityFrom reads the identity the middleware stored.
func IdentityFrom(c *gin.Context) (string, bool) {
	identity := c.GetString(IdentityKey)
	return identity, identity != ""
}
