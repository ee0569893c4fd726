package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/pageza/mealforge/internal/types"
)

type fakeValidator struct {
	claims *types.TokenClaims
	err    error
}

func (v *fakeValidator) ValidateToken(string) (*types.TokenClaims, error) {
	return v.claims, v.err
}

func identityRouter(validator TokenValidator, allowAnonymous bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Identity(validator, allowAnonymous))
	router.GET("/whoami", func(c *gin.Context) {
		identity, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"identity": identity})
	})
	return router
}

func validClaims(subject string) *types.TokenClaims {
	claims := &types.TokenClaims{Name: "Tester"}
	claims.Subject = subject
	return claims
}

func TestIdentity(t *testing.T) {
	t.Run("should pass a valid bearer token through", func(t *testing.T) {
		router := identityRouter(&fakeValidator{claims: validClaims("user-42")}, false)

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer some-token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "user-42")
	})

	t.Run("should reject a missing header", func(t *testing.T) {
		router := identityRouter(&fakeValidator{claims: validClaims("user-42")}, false)

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "missing authorization header")
	})

	t.Run("should reject a malformed header", func(t *testing.T) {
		router := identityRouter(&fakeValidator{claims: validClaims("user-42")}, false)

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid authorization header format")
	})

	t.Run("should reject an invalid token", func(t *testing.T) {
		router := identityRouter(&fakeValidator{err: errors.New("token is expired")}, false)

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer stale-token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("should assign an anonymous identity when allowed", func(t *testing.T) {
		router := identityRouter(&fakeValidator{claims: validClaims("user-42")}, true)

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "anon-")
	})

	t.Run("should still reject broken tokens when anonymous is allowed", func(t *testing.T) {
		router := identityRouter(&fakeValidator{err: errors.New("bad signature")}, true)

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer forged")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	t.Run("should assign a request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.NotEmpty(t, w.Body.String())
		assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))
	})

	t.Run("should keep the caller's request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "caller-chosen-id")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "caller-chosen-id", w.Body.String())
		assert.Equal(t, "caller-chosen-id", w.Header().Get("X-Request-ID"))
	})
}
