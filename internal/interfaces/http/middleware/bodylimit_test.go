package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trainhub/backend/internal/interfaces/http/dto"
)

func TestBodyLimit(t *testing.T) {
	newRouter := func(limit int64, h gin.HandlerFunc) *gin.Engine {
		router := gin.New()
		router.Use(RequestID(), BodyLimit(limit))
		router.POST("/payments", h)
		router.GET("/payments", h)
		return router
	}
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }

	t.Run("allows request within limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(`{"amount":"10"}`))
		w := httptest.NewRecorder()
		newRouter(1024, ok).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects declared length over limit with envelope", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(strings.Repeat("x", 200)))
		req.Header.Set(HeaderRequestID, "req-big")
		w := httptest.NewRecorder()
		newRouter(100, ok).ServeHTTP(w, req)

		require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeRequestTooLarge, resp.Error.Code)
		assert.Equal(t, "req-big", resp.Error.RequestID)
	})

	t.Run("allows GET requests", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/payments", nil)
		w := httptest.NewRecorder()
		newRouter(10, ok).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("limits chunked bodies while reading", func(t *testing.T) {
		readAll := func(c *gin.Context) {
			buf := make([]byte, 200)
			if _, err := c.Request.Body.Read(buf); err != nil {
				c.String(http.StatusBadRequest, "body too large")
				return
			}
			c.String(http.StatusOK, "ok")
		}
		req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(strings.Repeat("x", 100)))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		newRouter(50, readAll).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("zero limit falls back to default", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(strings.Repeat("x", 2048)))
		w := httptest.NewRecorder()
		newRouter(0, ok).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
