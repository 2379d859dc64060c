package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "fmt"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/video-share-backend/internal/config"
)

// bodyCapture duplicates the response body into a buffer while forwarding
// it to the client, so a successful payload can be stored after the fact.
type bodyCapture struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
}

func (w *bodyCapture) WriteHeader(code int) {
    w.status = code
    w.ResponseWriter.WriteHeader(code)
}

func (w *bodyCapture) Write(b []byte) (int, error) {
    w.buf.Write(b)
    return w.ResponseWriter.Write(b)
}

// CacheResponse caches successful JSON responses of a read-only route in
// Redis for a short TTL.  The key varies by route, path parameters and the
// authenticated caller: channel profiles embed a per-viewer isSubscribed
// flag, so two viewers must never share an entry.  Must run after JWTAuth.
// Without Redis the middleware passes every request through.
func CacheResponse(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error { return next(c) }
        }
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if c.Request().Method != http.MethodGet {
                return next(c)
            }

            viewer := "anonymous"
            if ident, ok := IdentityFrom(c); ok {
                viewer = strconv.FormatUint(ident.ID, 10)
            }
            raw := c.Path()
            for _, name := range c.ParamNames() {
                raw += ":" + c.Param(name)
            }
            raw += ":" + viewer
            key := fmt.Sprintf("%s:%x", cfg.Prefix, sha1.Sum([]byte(raw)))

            ctx := c.Request().Context()
            if body, err := rdb.Get(ctx, key).Bytes(); err == nil && len(body) > 0 {
                c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
                c.Response().Header().Set("X-Cache", "HIT")
                c.Response().WriteHeader(http.StatusOK)
                _, werr := c.Response().Write(body)
                return werr
            }

            cw := &bodyCapture{ResponseWriter: c.Response().Writer, status: http.StatusOK}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }
            if cw.status == http.StatusOK && cw.buf.Len() > 0 {
                // Detached context: the request may already be done.
                _ = rdb.SetEx(context.Background(), key, cw.buf.Bytes(), cfg.TTL).Err()
            }
            return nil
        }
    }
}
