// Package router registers the HTTP routes of the POS API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-pos/internal/handler"
	"github.com/iliyamo/restaurant-pos/internal/middleware"
	"github.com/iliyamo/restaurant-pos/internal/model"
)

// Staff is every role that may use the POS at all.
var Staff = []string{model.RoleAdmin, model.RoleCashier, model.RoleWaiter, model.RoleKitchen}

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// v1 is the versioned API group.  It carries no group middleware: echo
// registers catch-all not-found routes for a group as soon as it has
// middleware, which would turn unknown /v1 paths into 401s.  Guards are
// attached per route instead.
func v1(e *echo.Echo) *echo.Group { return e.Group("/v1") }

// staff requires a valid access token held by one of roles (all staff
// when roles is empty).
func staff(jwtSecret string, roles ...string) echo.MiddlewareFunc {
	if len(roles) == 0 {
		roles = Staff
	}
	authn := middleware.JWTAuth(jwtSecret)
	authz := middleware.RequireRole(roles...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return authn(authz(next))
	}
}

// RegisterAuth registers session endpoints.  Login, refresh and logout live
// under /v1/auth without a token; logout also accepts a bearer to end every
// session of that user.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := v1(e)
	g.POST("/auth/login", a.Login)
	g.POST("/auth/refresh", a.Refresh)
	g.POST("/auth/logout", a.Logout)

	g.GET("/me", a.Me, staff(jwtSecret))
	g.POST("/users", a.Register, staff(jwtSecret, model.RoleAdmin))
}
