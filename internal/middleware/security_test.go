package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, enforce := range []bool{false, true} {
		r := gin.New()
		r.Use(SecurityHeaders(enforce))
		r.GET("/ping", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		require.Equal(t, http.StatusOK, w.Code)
		h := w.Header()
		require.Equal(t, "DENY", h.Get("X-Frame-Options"))
		require.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
		require.Contains(t, h.Get("Content-Security-Policy"), "default-src 'self'")
		require.Equal(t, "no-referrer", h.Get("Referrer-Policy"))
		require.Equal(t, "geolocation=(), microphone=(), camera=()", h.Get("Permissions-Policy"))

		if enforce {
			require.Equal(t, "max-age=31536000; includeSubDomains", h.Get("Strict-Transport-Security"))
		} else {
			require.Empty(t, h.Get("Strict-Transport-Security"))
		}
	}
}
