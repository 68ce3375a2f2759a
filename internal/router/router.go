// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/jongrhanrhao/reservation-backend/internal/config"
	"github.com/jongrhanrhao/reservation-backend/internal/handler"
	"github.com/jongrhanrhao/reservation-backend/internal/logger"
	"github.com/jongrhanrhao/reservation-backend/internal/metrics"
	"github.com/jongrhanrhao/reservation-backend/internal/middleware"
	"github.com/jongrhanrhao/reservation-backend/internal/oauth"
	"github.com/jongrhanrhao/reservation-backend/internal/session"
)

// Deps is everything the routes need.  Redis and Sessions may be nil; the
// rate limiter and cache are then disabled and only bearer tokens
// authenticate.
type Deps struct {
	Cfg      config.Config
	Redis    *redis.Client
	Sessions *session.Manager
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer

	Auth         *handler.AuthHandler
	OAuth        *handler.OAuthHandler
	Users        *handler.UserHandler
	Stores       *handler.StoreHandler
	Availability *handler.AvailabilityHandler
	Tables       *handler.TableHandler
	Reservations *handler.ReservationHandler
	Favorites    *handler.FavoriteHandler
	Reviews      *handler.ReviewHandler
}

// Guards holds the middleware shared by the route groups.
type Guards struct {
	Auth       echo.MiddlewareFunc
	RateLimit  echo.MiddlewareFunc
	Cache      echo.MiddlewareFunc
	Invalidate echo.MiddlewareFunc
}

// New builds the echo instance with the global middleware chain and every
// route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(logger.Middleware())
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}
	e.Use(echomw.SecureWithConfig(echomw.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		HSTSMaxAge:         hstsMaxAge(d.Cfg.App),
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{d.Cfg.App.ClientURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID},
		AllowCredentials: true,
	}))

	var sessions middleware.SessionReader
	if d.Sessions != nil {
		sessions = d.Sessions
	}
	g := Guards{
		Auth: middleware.Auth(middleware.AuthConfig{
			JWTSecret:  d.Cfg.Auth.JWTSecret,
			CookieName: d.Cfg.Auth.SessionCookie,
			Sessions:   sessions,
		}),
		RateLimit:  middleware.NewTokenBucket(d.Cfg.RateLimit, d.Redis),
		Cache:      middleware.NewRedisCache(d.Cfg.Cache, d.Redis),
		Invalidate: middleware.NewCacheInvalidator(d.Cfg.Cache, d.Redis),
	}

	RegisterRoutes(e, d)
	RegisterAuth(e, d.Auth, d.OAuth, g, d.Cfg.AuthRateLimit)
	RegisterUsers(e, d.Users, g)
	RegisterStores(e, d, g)
	RegisterReservations(e, d.Reservations, g)
	RegisterCustomer(e, d.Favorites, d.Reviews, g)
	return e
}

// RegisterRoutes registers routes that do not require authentication:
// the root message, health check, metrics and uploaded files.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/", handler.Root)
	e.GET("/healthz", handler.Health)
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(d.Gatherer)))
	}
	if dir := d.Cfg.App.UploadDir; dir != "" {
		e.Static("/uploads", dir)
	}
}

// RegisterAuth registers the /users/auth routes.  Credential endpoints are
// throttled per IP.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, o *handler.OAuthHandler, g Guards, rl config.AuthRateLimitConfig) {
	grp := e.Group("/users/auth")
	throttle := middleware.AuthRateLimit(rl)

	grp.POST("/register", a.Register, throttle)
	grp.POST("/login", a.Login, throttle)
	grp.POST("/token/refresh", a.Refresh, throttle)

	grp.GET("/google", o.Begin(oauth.Google))
	grp.GET("/google/callback", o.Callback(oauth.Google))
	grp.GET("/facebook", o.Begin(oauth.Facebook))
	grp.GET("/facebook/callback", o.Callback(oauth.Facebook))

	grp.GET("/me", a.Me, g.Auth)
	grp.GET("/sessions", a.Session, g.Auth)
	grp.POST("/logout", a.Logout, g.Auth)
}

func hstsMaxAge(app config.AppConfig) int {
	if app.IsProd() {
		return 31536000
	}
	return 0
}
