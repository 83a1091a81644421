// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mohaimenalqadi/kick-donations/internal/handler"
	"github.com/mohaimenalqadi/kick-donations/internal/middleware"
)

// RegisterRoutes registers routes that never require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the auth endpoints. Token-issuing operations live
// under /v1/auth; /v1/me sits behind the JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/setup", a.Setup)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout needs no JWT middleware; the handler accepts either a bearer
	// token or a refresh_token body.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("admin", "operator"))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated snapshot endpoints the
// overlay hits on connect and after every reconnect, plus the WebSocket
// upgrade itself. Extra middleware (the Redis response cache) applies to
// the snapshot reads only, never to the upgrade.
func RegisterPublic(e *echo.Echo, d *handler.DonationHandler, s *handler.SettingsHandler, ws *handler.WSHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mw...)
	g.GET("/settings", s.Get)
	g.GET("/tier-settings", s.ListTiers)
	g.GET("/donations/queue", d.Queue)
	g.GET("/donations/latest", d.Latest)
	g.GET("/donations/top", d.Top)
	e.GET("/ws", ws.Serve)
}

// RegisterOperator registers the donation management surface. Both roles
// may run the queue; destructive bulk operations and settings writes are
// admin only.
func RegisterOperator(e *echo.Echo, d *handler.DonationHandler, s *handler.SettingsHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("admin", "operator"))

	g.POST("/donations", d.Create)
	g.GET("/donations", d.List)
	g.GET("/donations/stats", d.Stats)
	g.GET("/donations/:id", d.Get)
	g.POST("/donations/:id/send", d.Send)

	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole("admin"))

	admin.GET("/donations/analytics", d.Analytics)
	admin.DELETE("/donations/bulk", d.BulkDelete)
	admin.DELETE("/donations/:id", d.Delete)
	admin.PATCH("/settings", s.Patch)
	admin.PATCH("/tier-settings/:id", s.PatchTier)
}
