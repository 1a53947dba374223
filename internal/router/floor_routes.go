package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-pos/internal/handler"
	"github.com/iliyamo/restaurant-pos/internal/model"
)

// RegisterTables registers table endpoints.  Manual status overrides and
// reconciliation are admin only.
func RegisterTables(e *echo.Echo, t *handler.TableHandler, jwtSecret string) {
	g := v1(e)
	all, admin := staff(jwtSecret), staff(jwtSecret, model.RoleAdmin)

	g.GET("/tables", t.List, all)
	g.GET("/tables/available", t.Available, all)
	g.GET("/tables/:id", t.Get, all)

	g.POST("/tables", t.Create, admin)
	g.PATCH("/tables/:id/status", t.SetStatus, admin)
	g.POST("/tables/reconcile", t.Reconcile, admin)
}

// RegisterSettings registers the restaurant settings singleton.
func RegisterSettings(e *echo.Echo, s *handler.SettingsHandler, jwtSecret string) {
	g := v1(e)
	g.GET("/settings", s.Get, staff(jwtSecret))
	g.PUT("/settings", s.Update, staff(jwtSecret, model.RoleAdmin))
}

// RegisterMenu registers the menu catalog.  Reads go through the response
// cache; every admin write evicts it.
func RegisterMenu(e *echo.Echo, m *handler.MenuHandler, jwtSecret string, cache, evict echo.MiddlewareFunc) {
	g := v1(e)
	all, admin := staff(jwtSecret), staff(jwtSecret, model.RoleAdmin)

	g.GET("/menu-items", m.List, all, cache)
	g.GET("/menu-items/:id", m.Get, all, cache)

	g.POST("/menu-items", m.Create, admin, evict)
	g.PUT("/menu-items/:id", m.Update, admin, evict)
	g.PATCH("/menu-items/:id/availability", m.SetAvailability, admin, evict)
}
