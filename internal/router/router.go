package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"                                 // import the Echo web framework to handle routing
	"github.com/prometheus/client_golang/prometheus/promhttp"     // prometheus metrics endpoint
	"github.com/redis/go-redis/v9"                                // redis backs the cache and rate limiter

	"github.com/seatforge/ticketing/internal/config"
	"github.com/seatforge/ticketing/internal/handler"
	"github.com/seatforge/ticketing/internal/middleware"
)

// RegisterRoutes registers the unauthenticated operational endpoints:
// the health check used by load balancers and the prometheus scrape
// target.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAvailability registers the read-only availability endpoints.
// These carry no buyer identity requirement and sit behind the redis
// response cache when one is configured.
func RegisterAvailability(e *echo.Echo, a *handler.AvailabilityHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
	g := e.Group("/v1")
	g.Use(middleware.NewRedisCache(cacheCfg, rdb))
	g.GET("/ticket-types/:id", a.TicketType)
	g.GET("/events/:id/seats", a.EventSeats)
}

// RegisterCheckout registers the quote and reservation lifecycle
// routes. Every route requires the X-Buyer-ID header and runs through
// the rate limiter so one buyer cannot starve the hold pool.
func RegisterCheckout(e *echo.Echo, h *handler.CheckoutHandler, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1")
	g.Use(middleware.BuyerIdentity())
	g.Use(middleware.NewTokenBucket(rlCfg, rdb))
	g.POST("/quotes", h.Quote)
	g.POST("/reservations", h.Reserve)
	g.GET("/reservations/:id", h.Get)
	g.POST("/reservations/:id/commit", h.Commit)
	g.POST("/reservations/:id/release", h.Release)
}

// RegisterAdmin registers the inventory administration routes. These
// are expected to be reachable only from a trusted network; the engine
// itself performs no authentication.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler) {
	g := e.Group("/v1/admin")
	g.POST("/ticket-types", h.CreateTicketType)
	g.POST("/seats", h.CreateSeats)
	g.POST("/seats/block", h.BlockSeats)
	g.POST("/seats/unblock", h.UnblockSeats)
}
