// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/omraut/carbon-terminal/internal/config"
	"github.com/omraut/carbon-terminal/internal/handler"
	"github.com/omraut/carbon-terminal/internal/middleware"
	"github.com/omraut/carbon-terminal/internal/model"
)

// Handlers carries every handler the route table needs.
type Handlers struct {
	Auth      *handler.AuthHandler
	Emissions *handler.EmissionHandler
	Authority *handler.AuthorityHandler
	AI        *handler.AIHandler
}

// Register mounts the full route surface. The auth gateway is rate limited
// per IP; authority reads sit behind the short Redis response cache; every
// route under /v1 outside /v1/auth requires a bearer token.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	// Credential endpoints. No session required; the limiter throttles
	// brute-force bursts before the lockout gate even engages.
	g := e.Group("/v1/auth", middleware.RateLimit(rdb, config.LoadRateLimitConfig()))
	g.POST("/register", h.Auth.Register)
	g.POST("/login", h.Auth.Login)
	g.POST("/refresh", h.Auth.Refresh)
	g.POST("/logout", h.Auth.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	auth.GET("/me", h.Auth.Me)

	auth.POST("/emissions/estimate", h.Emissions.Estimate)
	auth.POST("/emissions", h.Emissions.Create)
	auth.GET("/emissions", h.Emissions.List)

	aig := auth.Group("/ai")
	aig.POST("/insights", h.AI.Insights)
	aig.POST("/forecast", h.AI.Forecast)
	aig.POST("/simulate", h.AI.Simulate)
	aig.POST("/locations", h.AI.Locations)
	aig.POST("/scan/receipt", h.AI.ScanReceipt)
	aig.POST("/scan/utility-bill", h.AI.ScanUtilityBill)
	aig.POST("/scan/puc", h.AI.ScanPUC)
	aig.POST("/transform", h.AI.TransformImage)

	// The console is OWNER-only. The registry read is cached for one poll
	// interval; the audit trail is scoped per caller and stays uncached.
	owner := auth.Group("/authority", middleware.RequireRole(model.RoleOwner))
	cacheMW := middleware.Cache(rdb, config.LoadCacheConfig())
	owner.GET("/config", h.Authority.GetConfig)
	owner.PUT("/config", h.Authority.PutConfig)
	owner.GET("/users", h.Authority.ListUsers, cacheMW)
	owner.POST("/users", h.Authority.CreateUser)
	owner.POST("/users/:id/role", h.Authority.AssignRole)
	owner.GET("/logs", h.Authority.ListLogs)
	owner.GET("/export", h.Authority.Export)
	owner.POST("/override", h.Authority.ToggleOverride)
}
