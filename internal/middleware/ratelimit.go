package middleware

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/video-share-backend/internal/config"
)

// RateLimit returns a fixed-window limiter for credential endpoints.  The
// window is keyed per route and client IP in Redis, so the limit holds
// across replicas.  When Redis is unavailable or the limiter is disabled
// the middleware is a pass-through: availability wins over throttling.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error { return next(c) }
        }
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ip := c.RealIP()
            if ip == "" {
                ip = "unknown"
            }
            key := cfg.Prefix + ":" + c.Path() + ":" + ip
            ctx := c.Request().Context()

            n, err := rdb.Incr(ctx, key).Result()
            if err != nil {
                // Fail open on Redis trouble.
                return next(c)
            }
            if n == 1 {
                _ = rdb.Expire(ctx, key, cfg.Window).Err()
            }

            remaining := int64(cfg.Limit) - n
            if remaining < 0 {
                remaining = 0
            }
            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

            if n > int64(cfg.Limit) {
                if ttl, err := rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
                    c.Response().Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
                }
                return c.JSON(http.StatusTooManyRequests, map[string]any{
                    "statusCode": http.StatusTooManyRequests,
                    "message":    "too many requests",
                    "success":    false,
                    "errors":     []string{},
                })
            }
            return next(c)
        }
    }
}
