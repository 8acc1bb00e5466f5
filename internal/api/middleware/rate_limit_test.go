package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	t.Run("令牌用盡後拒絕", func(t *testing.T) {
		rl := NewRateLimiter(3, time.Minute)
		for i := 0; i < 3; i++ {
			assert.True(t, rl.Allow())
		}
		assert.False(t, rl.Allow())
	})

	t.Run("隨時間補充令牌", func(t *testing.T) {
		rl := NewRateLimiter(100, time.Second)
		for i := 0; i < 100; i++ {
			rl.Allow()
		}
		assert.False(t, rl.Allow())

		time.Sleep(50 * time.Millisecond)
		assert.True(t, rl.Allow())
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimit(2, time.Minute))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusOK, do())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}
