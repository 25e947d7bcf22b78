// Package ratelimit implements connection admission limits backed by an
// in-process store.
package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/oceanlight-game/server/internal/v1/config"
	"github.com/oceanlight-game/server/internal/v1/logging"
	"github.com/oceanlight-game/server/internal/v1/metrics"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

// RateLimiter guards the WebSocket upgrade path against connection churn
// from a single address, with a separate allowance for the read-only HTTP
// endpoints. Room state is process-local, so the store is too.
type RateLimiter struct {
	wsIP   *limiter.Limiter
	httpIP *limiter.Limiter
	store  limiter.Store
}

// NewRateLimiter creates a RateLimiter from the configured rate strings
// (ulule format, e.g. "30-M" for thirty per minute).
func NewRateLimiter(cfg *config.Config) (*RateLimiter, error) {
	wsIPRate, err := limiter.NewRateFromFormatted(cfg.RateLimitWsIp)
	if err != nil {
		return nil, fmt.Errorf("invalid WS IP rate: %w", err)
	}

	httpRate, err := limiter.NewRateFromFormatted(cfg.RateLimitHTTP)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP rate: %w", err)
	}

	store := memory.NewStore()

	return &RateLimiter{
		wsIP:   limiter.New(store, wsIPRate),
		httpIP: limiter.New(store, httpRate),
		store:  store,
	}, nil
}

// CheckWebSocket checks whether a WebSocket upgrade from this client IP
// should be allowed. Returns true if allowed, false if the limit was
// exceeded (in which case the response has already been written). Store
// errors fail open: availability beats strictness for game traffic.
func (rl *RateLimiter) CheckWebSocket(c *gin.Context) bool {
	ctx := c.Request.Context()

	ip := c.ClientIP()
	ipContext, err := rl.wsIP.Get(ctx, ip)
	if err != nil {
		logging.Error(ctx, "WS rate limiter store failed", zap.Error(err))
		return true // Fail open
	}

	if ipContext.Reached {
		metrics.RateLimitExceeded.WithLabelValues("websocket_connect").Inc()
		c.Header("X-RateLimit-Retry-After", strconv.FormatInt(ipContext.Reset, 10))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many connections from this IP"})
		return false
	}

	return true
}

// HTTPMiddleware returns the stock ulule middleware for the read-only HTTP
// endpoints, keyed by client IP.
func (rl *RateLimiter) HTTPMiddleware() gin.HandlerFunc {
	return mgin.NewMiddleware(rl.httpIP)
}
