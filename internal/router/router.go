// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/events-booking/internal/config"
	"github.com/iliyamo/events-booking/internal/handler"
	"github.com/iliyamo/events-booking/internal/middleware"
	"github.com/iliyamo/events-booking/internal/model"
)

// Deps carries everything the HTTP layer needs.  Redis may be nil, in
// which case caching and rate limiting are disabled.
type Deps struct {
	JWTSecret     string
	Log           *zap.Logger
	Redis         *redis.Client
	Cache         config.CacheConfig
	RateLimit     config.RateLimitConfig
	Store         handler.Pinger
	Auth          *handler.AuthHandler
	Events        *handler.EventHandler
	Registrations *handler.RegistrationHandler
	Admin         *handler.AdminHandler
}

// New builds the echo server with the global middleware chain and every
// route mounted.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler

	e.Use(echomw.Recover())
	if d.Log != nil {
		e.Use(middleware.RequestLogger(d.Log))
	}
	e.Use(middleware.NewTokenBucket(d.RateLimit, d.Redis))
	e.Use(middleware.NewRedisCache(d.Cache, d.Redis))
	e.Use(middleware.InvalidateCache(d.Cache, d.Redis))

	RegisterRoutes(e, d.Store)
	RegisterAuth(e, d.Auth, d.JWTSecret)
	RegisterPublic(e, d.Events)
	RegisterUser(e, d.Registrations, middleware.NewTokenBucket(d.RateLimit.Writes(), d.Redis), d.JWTSecret)
	RegisterProvider(e, d.Events, d.Registrations, d.JWTSecret)
	RegisterAdmin(e, d.Events, d.Admin, d.JWTSecret)
	return e
}

// RegisterRoutes registers the probes.
func RegisterRoutes(e *echo.Echo, store handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(store))
}

// RegisterAuth registers the token endpoints under /v1/auth and the
// account endpoints under /v1/me.  Logout is not behind JWTAuth so a
// client holding only a refresh token can still end its session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)               // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess) // keeps the refresh token
	g.POST("/logout", a.Logout)
	e.POST("/v1/logout", a.Logout)

	me := e.Group("/v1/me", middleware.JWTAuth(jwtSecret))
	me.GET("", a.Me)
	me.PATCH("", a.UpdateMe)
}

// RegisterPublic registers the anonymous catalogue reads.
func RegisterPublic(e *echo.Echo, h *handler.EventHandler) {
	e.GET("/v1/events", h.List)
	e.GET("/v1/events/:id", h.Get)
}

// RegisterUser registers the booking endpoints.  Only the user role may
// hold seats; writes pass through the stricter per-user bucket.
func RegisterUser(e *echo.Echo, h *handler.RegistrationHandler, writeLimit echo.MiddlewareFunc, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser),
	)
	g.GET("/me/registrations", h.ListMine)
	g.POST("/events/:id/registrations", h.Register, writeLimit)
	g.DELETE("/events/:id/registrations", h.Cancel, writeLimit)

	// Eligibility is open to every role so the UI can show why a
	// provider or admin cannot book.
	e.GET("/v1/events/:id/eligibility", h.Eligibility, middleware.JWTAuth(jwtSecret))
}

// RegisterProvider registers event management for providers.  Admins
// pass the role guard too; ownership is checked in the service.
func RegisterProvider(e *echo.Echo, ev *handler.EventHandler, regs *handler.RegistrationHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleProvider, model.RoleAdmin),
	)
	g.POST("/events", ev.Create)
	g.PATCH("/events/:id", ev.Update)
	g.DELETE("/events/:id", ev.Delete)
	g.GET("/events/:id/registrations", regs.ListForEvent)
	g.GET("/provider/events", ev.ListMine)
}

// RegisterAdmin registers the admin-only lifecycle and user management
// endpoints.
func RegisterAdmin(e *echo.Echo, ev *handler.EventHandler, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.PUT("/events/:id/status", ev.SetStatus)
	g.GET("/admin/users", a.ListUsers)
	g.POST("/admin/users/:id/promote", a.Promote)
	g.POST("/admin/users/:id/demote", a.Demote)
	g.GET("/admin/stats", a.Stats)
}
