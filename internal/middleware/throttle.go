package middleware

import (
	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	appErrors "github.com/sigmadocs/ged-api/pkg/errors"
	"github.com/sigmadocs/ged-api/pkg/response"
)

const throttleCacheSize = 4096

// Throttle applies a per-client-IP token bucket. Limiters live in a bounded
// LRU so a flood of distinct source addresses cannot grow memory unbounded.
func Throttle(rps float64, burst int) gin.HandlerFunc {
	limiters, err := lru.New[string, *rate.Limiter](throttleCacheSize)
	if err != nil {
		panic(err)
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter, ok := limiters.Get(ip)
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(rps), burst)
			limiters.Add(ip, limiter)
		}

		if !limiter.Allow() {
			response.Error(c, appErrors.Clone(appErrors.ErrRateLimited, "too many requests"))
			c.Abort()
			return
		}

		c.Next()
	}
}
