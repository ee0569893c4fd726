package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := New("localhost:8080", router, 0, zap.NewNop())
	assert.NotNil(t, srv)
	assert.Equal(t, "localhost:8080", srv.http.Addr)
	assert.Equal(t, 5*time.Second, srv.shutdownTimeout)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	srv.http.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
