package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"seswa/internal/pkg/response"
)

// RateLimiter hands out one token bucket per caller: the user id when
// authenticated, the client IP otherwise.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	idle  time.Duration

	mu       sync.Mutex
	limiters map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		idle:     10 * time.Minute,
		limiters: make(map[string]*visitor),
	}
}

func (rl *RateLimiter) limiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.limiters[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.limiters[key] = v
	}
	v.lastSeen = now

	for k, other := range rl.limiters {
		if now.Sub(other.lastSeen) > rl.idle {
			delete(rl.limiters, k)
		}
	}
	return v.limiter
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString(ctxUserID)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}
		if !rl.limiter(key, time.Now()).Allow() {
			response.Abort(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}
		c.Next()
	}
}
