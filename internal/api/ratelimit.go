package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/WoushouW/woushBOT/internal/auth"
	"github.com/WoushouW/woushBOT/internal/redis"
)

// LimitHandler answers a request that went over its rate limit.
type LimitHandler func(c echo.Context) error

// RateLimitMiddleware limits requests per session when one is attached and
// per client IP otherwise, using Redis. Sets standard rate limit response
// headers. onLimit may be nil.
func RateLimitMiddleware(redisClient *redis.Client, limit int, window time.Duration, onLimit LimitHandler) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var key string
			if sess := auth.GetSession(c); sess != nil {
				key = fmt.Sprintf("rl:session:%s:%s", sess.ID, c.Path())
			} else {
				key = fmt.Sprintf("rl:ip:%s:%s", c.RealIP(), c.Path())
			}

			allowed, count, ttlMs, err := redisClient.CheckRateLimit(c.Request().Context(), key, limit, window)
			if err != nil {
				// On Redis failure, allow the request through rather than locking everyone out.
				slog.Warn("rate limit check failed", "key", key, "error", err)
				return next(c)
			}

			remaining := int64(limit) - count
			if remaining < 0 {
				remaining = 0
			}
			resetAt := time.Now().Add(time.Duration(ttlMs) * time.Millisecond).Unix()

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			c.Response().Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))

			if !allowed {
				retryAfterSec := (ttlMs + 999) / 1000 // round up to next second
				c.Response().Header().Set("Retry-After", strconv.FormatInt(retryAfterSec, 10))
				if onLimit != nil {
					return onLimit(c)
				}
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
			}

			return next(c)
		}
	}
}
