package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-pos/internal/handler"
	"github.com/iliyamo/restaurant-pos/internal/model"
)

// RegisterOrders registers the order lifecycle endpoints for all staff.
func RegisterOrders(e *echo.Echo, o *handler.OrderHandler, jwtSecret string) {
	g := v1(e)
	all := staff(jwtSecret)

	g.POST("/orders", o.Create, all)
	g.GET("/orders", o.List, all)
	g.GET("/orders/active", o.Active, all)
	g.GET("/orders/today", o.Today, all)
	g.GET("/orders/:id", o.Get, all)
	g.PUT("/orders/:id", o.Update, all)
	g.PATCH("/orders/:id/status", o.UpdateStatus, all)
	g.PATCH("/orders/:id/cancel", o.Cancel, all)
}

// RegisterPayments registers payment endpoints.  Taking money is limited
// to admins and cashiers.
func RegisterPayments(e *echo.Echo, p *handler.PaymentHandler, jwtSecret string) {
	g := v1(e)
	till := staff(jwtSecret, model.RoleAdmin, model.RoleCashier)

	g.POST("/payments", p.Create, till)
	g.GET("/payments", p.List, till)
	g.GET("/payments/today", p.Today, till)
	g.GET("/payments/summary/by-method", p.SummaryByMethod, till)
	g.GET("/payments/order/:orderId", p.ByOrder, till)
	g.GET("/payments/:id", p.Get, till)
	g.PUT("/payments/:id", p.Update, till)
}
