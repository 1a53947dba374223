package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/apperr"
	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/service"
)

// OrderEngine is the order lifecycle as the HTTP layer sees it.
type OrderEngine interface {
	Create(ctx context.Context, in service.CreateOrderInput) (*model.Order, error)
	Update(ctx context.Context, id uint64, in service.UpdateOrderInput) (*model.Order, error)
	UpdateStatus(ctx context.Context, id uint64, to model.OrderStatus, actorID uint64) (*model.Order, error)
	Cancel(ctx context.Context, id uint64, actorID uint64) (*model.Order, error)
	Get(ctx context.Context, id uint64) (*model.Order, error)
	List(ctx context.Context, f model.OrderFilter) ([]model.Order, error)
	GetActive(ctx context.Context) ([]model.Order, error)
	GetToday(ctx context.Context) ([]model.Order, error)
}

type OrderHandler struct {
	Orders OrderEngine
}

func NewOrderHandler(orders OrderEngine) *OrderHandler { return &OrderHandler{Orders: orders} }

type orderItemReq struct {
	MenuItemID uint64  `json:"menuItemId" validate:"required"`
	Quantity   int     `json:"quantity"`
	Notes      *string `json:"notes" validate:"omitempty,max=255"`
}

type createOrderReq struct {
	OrderType      string           `json:"orderType" validate:"required,oneof=dine_in takeaway"`
	TableID        *uint64          `json:"tableId"`
	Items          []orderItemReq   `json:"items" validate:"required,min=1,dive"`
	DiscountAmount *decimal.Decimal `json:"discountAmount"`
	Notes          *string          `json:"notes"`
}

type updateOrderReq struct {
	Items          []orderItemReq   `json:"items" validate:"omitempty,dive"`
	DiscountAmount *decimal.Decimal `json:"discountAmount"`
	Notes          *string          `json:"notes"`
	Status         *string          `json:"status"`
}

type statusReq struct {
	Status string `json:"status" validate:"required"`
}

// toLineInputs maps request lines.  An absent or empty list yields nil, which
// the engine reads as "leave the lines alone".
func toLineInputs(items []orderItemReq) []service.LineInput {
	if len(items) == 0 {
		return nil
	}
	out := make([]service.LineInput, 0, len(items))
	for _, it := range items {
		out = append(out, service.LineInput{MenuItemID: it.MenuItemID, Quantity: it.Quantity, Notes: it.Notes})
	}
	return out
}

// Create handles POST /v1/orders.
func (h *OrderHandler) Create(c echo.Context) error {
	uid, err := actor(c)
	if err != nil {
		return err
	}
	var req createOrderReq
	if err := bind(c, &req); err != nil {
		return err
	}
	in := service.CreateOrderInput{
		Type:    model.OrderType(req.OrderType),
		TableID: req.TableID,
		Lines:   toLineInputs(req.Items),
		Notes:   req.Notes,
		ActorID: uid,
	}
	if req.DiscountAmount != nil {
		in.Discount = *req.DiscountAmount
	}
	o, err := h.Orders.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, "order created", toOrderDTO(o))
}

// Update handles PUT /v1/orders/:id.
func (h *OrderHandler) Update(c echo.Context) error {
	uid, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateOrderReq
	if err := bind(c, &req); err != nil {
		return err
	}
	in := service.UpdateOrderInput{
		Lines:    toLineInputs(req.Items),
		Discount: req.DiscountAmount,
		Notes:    req.Notes,
		ActorID:  uid,
	}
	if req.Status != nil {
		st := model.OrderStatus(*req.Status)
		in.Status = &st
	}
	o, err := h.Orders.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "order updated", toOrderDTO(o))
}

// UpdateStatus handles PATCH /v1/orders/:id/status.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	uid, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req statusReq
	if err := bind(c, &req); err != nil {
		return err
	}
	o, err := h.Orders.UpdateStatus(c.Request().Context(), id, model.OrderStatus(req.Status), uid)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "order status updated", toOrderDTO(o))
}

// Cancel handles PATCH /v1/orders/:id/cancel.
func (h *OrderHandler) Cancel(c echo.Context) error {
	uid, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	o, err := h.Orders.Cancel(c.Request().Context(), id, uid)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "order cancelled", toOrderDTO(o))
}

// Get handles GET /v1/orders/:id.
func (h *OrderHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	o, err := h.Orders.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", toOrderDTO(o))
}

// List handles GET /v1/orders with optional status, orderType, tableId,
// startDate and endDate filters.
func (h *OrderHandler) List(c echo.Context) error {
	f := model.OrderFilter{
		Status: model.OrderStatus(c.QueryParam("status")),
		Type:   model.OrderType(c.QueryParam("orderType")),
	}
	if s := c.QueryParam("tableId"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return apperr.Validation("invalid tableId")
		}
		f.TableID = id
	}
	from, to, err := dateRange(c)
	if err != nil {
		return err
	}
	f.From, f.To = from, to
	orders, err := h.Orders.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", toOrderDTOs(orders))
}

// Active handles GET /v1/orders/active.
func (h *OrderHandler) Active(c echo.Context) error {
	orders, err := h.Orders.GetActive(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", toOrderDTOs(orders))
}

// Today handles GET /v1/orders/today.
func (h *OrderHandler) Today(c echo.Context) error {
	orders, err := h.Orders.GetToday(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", toOrderDTOs(orders))
}
