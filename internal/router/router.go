package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/middleware"
)

// RegisterRoutes registers the health check used by load balancers and
// monitoring systems.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers registration, login, logout and the profile
// endpoint.  limit guards login and registration against brute force.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	e.POST("/register", a.Register, limit)
	e.POST("/login", a.Login, limit)
	// GET is kept so a plain link can end the session.
	e.GET("/logout", a.Logout)
	e.POST("/logout", a.Logout)

	e.GET("/profile", a.Profile, middleware.JWTAuth(jwtSecret))
}

// RegisterPublic registers unauthenticated browse endpoints and the static
// photo directory.  cache fronts the restaurant listing.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc, uploadDir string) {
	e.GET("/", p.Index, cache)
	e.GET("/restaurant/:id", p.Restaurant)
	e.Static(handler.UploadsURL, uploadDir)
}
