package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims represents the claims in an access token. Subject is the
// identity the rate limiter charges requests against.
type TokenClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// Identity returns the stable identity string for the token holder.
func (c *TokenClaims) Identity() string {
	return c.Subject
}
