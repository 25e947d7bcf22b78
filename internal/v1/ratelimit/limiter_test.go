package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/oceanlight-game/server/internal/v1/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) *RateLimiter {
	cfg := &config.Config{
		RateLimitWsIp: "5-M", // 5 per minute
		RateLimitHTTP: "3-M",
	}

	rl, err := NewRateLimiter(cfg)
	require.NoError(t, err)

	return rl
}

func TestNewRateLimiter_InvalidRate(t *testing.T) {
	_, err := NewRateLimiter(&config.Config{RateLimitWsIp: "lots", RateLimitHTTP: "3-M"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid WS IP rate")

	_, err = NewRateLimiter(&config.Config{RateLimitWsIp: "5-M", RateLimitHTTP: "often"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP rate")
}

func TestCheckWebSocket_IPLimit(t *testing.T) {
	rl := newTestLimiter(t)

	gin.SetMode(gin.TestMode)

	newCtx := func() *gin.Context {
		ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
		ctx.Request, _ = http.NewRequest("GET", "/", nil)
		ctx.Request.RemoteAddr = "203.0.113.9:51000"
		return ctx
	}

	// Consume 5
	for i := 0; i < 5; i++ {
		assert.True(t, rl.CheckWebSocket(newCtx()))
	}

	// 6th should be refused
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request, _ = http.NewRequest("GET", "/", nil)
	ctx.Request.RemoteAddr = "203.0.113.9:51000"
	assert.False(t, rl.CheckWebSocket(ctx))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Retry-After"))
}

func TestCheckWebSocket_IsolatedPerIP(t *testing.T) {
	rl := newTestLimiter(t)

	gin.SetMode(gin.TestMode)

	exhaust := func(addr string) {
		for i := 0; i < 5; i++ {
			ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
			ctx.Request, _ = http.NewRequest("GET", "/", nil)
			ctx.Request.RemoteAddr = addr
			rl.CheckWebSocket(ctx)
		}
	}

	exhaust("203.0.113.9:51000")

	// A different address still has its full allowance.
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request, _ = http.NewRequest("GET", "/", nil)
	ctx.Request.RemoteAddr = "198.51.100.4:40000"
	assert.True(t, rl.CheckWebSocket(ctx))
}

func TestHTTPMiddleware(t *testing.T) {
	rl := newTestLimiter(t)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(rl.HTTPMiddleware())
	r.GET("/stats", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Make 3 requests (limit is 3)
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest("GET", "/stats", nil)
		req.RemoteAddr = "203.0.113.9:51000"
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "3", resp.Header().Get("X-RateLimit-Limit"))
	}

	// 4th request should fail
	req, _ := http.NewRequest("GET", "/stats", nil)
	req.RemoteAddr = "203.0.113.9:51000"
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
}
