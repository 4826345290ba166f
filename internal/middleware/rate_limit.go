// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/utils"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter tracks one token bucket per client IP.
type RateLimiter struct {
	visitors map[string]*visitor
	mtx      sync.Mutex
	rate     rate.Limit
	burst    int
}

func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
	}

	// Clean up idle visitors every minute
	go rl.cleanupVisitors()

	return rl
}

// perMinuteLimiter spreads n requests over a minute, allowing the full
// quota as burst.
func perMinuteLimiter(n int) *RateLimiter {
	if n <= 0 {
		n = 1
	}
	return NewRateLimiter(rate.Every(time.Minute/time.Duration(n)), n)
}

func (rl *RateLimiter) cleanupVisitors() {
	for {
		time.Sleep(time.Minute)
		rl.mtx.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(rl.visitors, ip)
			}
		}
		rl.mtx.Unlock()
	}
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := rl.getVisitor(ip)

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, utils.APIResponse{
				Success: false,
				Error: &utils.APIError{
					Code:    "rate_limit_exceeded",
					Message: "Rate limit exceeded. Please try again later.",
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GeneralRateLimit covers every API route; the auth and activation limits
// stack on top of it for their route groups.
func GeneralRateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	return perMinuteLimiter(cfg.GeneralPerMinute).Middleware()
}

func AuthRateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	return perMinuteLimiter(cfg.AuthPerMinute).Middleware()
}

func ActivationRateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	return perMinuteLimiter(cfg.ActivationPerMinute).Middleware()
}
