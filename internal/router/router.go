package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/video-share-backend/internal/config"
	"github.com/iliyamo/video-share-backend/internal/handler"
	"github.com/iliyamo/video-share-backend/internal/middleware"
)

// Deps carries everything route registration needs: the handlers, the
// access secret used by the JWT middleware, and the optional Redis-backed
// middleware configuration.  A nil Redis client disables rate limiting and
// caching without changing the route table.
type Deps struct {
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Channels *handler.ChannelHandler
	Cfg      config.Config
	Redis    *redis.Client
}

// Register wires the full route table onto the provided Echo instance.
// Unauthenticated session operations live under /api/v1/users; everything
// else requires a valid access token.
func Register(e *echo.Echo, d Deps) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	limiter := middleware.RateLimit(config.LoadRateLimitConfig(), d.Redis)
	profileCache := middleware.CacheResponse(config.LoadCacheConfig(), d.Redis)

	users := e.Group("/api/v1/users")

	// Anonymous operations.  Login and refresh sit behind the limiter
	// because they are the credential-guessing surface.
	users.POST("/register", d.Auth.Register)
	users.POST("/login", d.Auth.Login, limiter)
	users.POST("/refresh-token", d.Auth.Refresh, limiter)

	// Protected operations: the JWT middleware resolves the caller's
	// identity and hands it to the handlers through the request context.
	auth := users.Group("", middleware.JWTAuth(d.Cfg.AccessSecret))
	auth.POST("/logout", d.Auth.Logout)
	auth.POST("/change-password", d.Auth.ChangePassword)
	auth.GET("/current-user", d.Users.CurrentUser)
	auth.PATCH("/update-account", d.Users.UpdateAccount)
	auth.PATCH("/avatar", d.Users.UpdateAvatar)
	auth.PATCH("/cover-image", d.Users.UpdateCoverImage)
	auth.GET("/c/:username", d.Channels.Channel, profileCache)
	auth.GET("/history", d.Channels.History)
}
