package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/apperr"
	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/service"
)

// PaymentEngine is payment reconciliation as the HTTP layer sees it.
type PaymentEngine interface {
	Create(ctx context.Context, in service.CreatePaymentInput) (*model.Payment, error)
	GetByOrder(ctx context.Context, orderID uint64) (*model.Payment, error)
	Get(ctx context.Context, id uint64) (*model.Payment, error)
	Update(ctx context.Context, id uint64, in service.UpdatePaymentInput) (*model.Payment, error)
	List(ctx context.Context, from, to *time.Time) ([]model.Payment, error)
	Today(ctx context.Context) ([]model.Payment, error)
	SummaryByMethod(ctx context.Context, from, to *time.Time) ([]model.MethodSummary, error)
}

type PaymentHandler struct {
	Payments PaymentEngine
}

func NewPaymentHandler(p PaymentEngine) *PaymentHandler { return &PaymentHandler{Payments: p} }

type createPaymentReq struct {
	OrderID       uint64           `json:"orderId" validate:"required"`
	Amount        *decimal.Decimal `json:"amount"`
	Method        string           `json:"method" validate:"required,oneof=cash card upi"`
	TransactionID *string          `json:"transactionId" validate:"omitempty,max=120"`
	Notes         *string          `json:"notes" validate:"omitempty,max=255"`
}

type updatePaymentReq struct {
	Status        *string `json:"status" validate:"omitempty,oneof=pending completed failed refunded"`
	TransactionID *string `json:"transactionId" validate:"omitempty,max=120"`
	Notes         *string `json:"notes" validate:"omitempty,max=255"`
}

func toPaymentDTOs(ps []model.Payment) []paymentDTO {
	out := make([]paymentDTO, 0, len(ps))
	for i := range ps {
		out = append(out, toPaymentDTO(&ps[i]))
	}
	return out
}

// Create handles POST /v1/payments.
func (h *PaymentHandler) Create(c echo.Context) error {
	uid, err := actor(c)
	if err != nil {
		return err
	}
	var req createPaymentReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Amount == nil {
		return apperr.Validation("amount is required")
	}
	p, err := h.Payments.Create(c.Request().Context(), service.CreatePaymentInput{
		OrderID:       req.OrderID,
		Amount:        *req.Amount,
		Method:        model.PaymentMethod(req.Method),
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
		ActorID:       uid,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, "payment recorded", toPaymentDTO(p))
}

// ByOrder handles GET /v1/payments/order/:orderId.  An unpaid order is a
// successful response with null data.
func (h *PaymentHandler) ByOrder(c echo.Context) error {
	orderID, err := pathID(c, "orderId")
	if err != nil {
		return err
	}
	p, err := h.Payments.GetByOrder(c.Request().Context(), orderID)
	if err != nil {
		return err
	}
	if p == nil {
		return ok(c, http.StatusOK, "no payment for this order", nil)
	}
	return ok(c, http.StatusOK, "", toPaymentDTO(p))
}

// Get handles GET /v1/payments/:id.
func (h *PaymentHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.Payments.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", toPaymentDTO(p))
}

// Update handles PUT /v1/payments/:id.
func (h *PaymentHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updatePaymentReq
	if err := bind(c, &req); err != nil {
		return err
	}
	in := service.UpdatePaymentInput{TransactionID: req.TransactionID, Notes: req.Notes}
	if req.Status != nil {
		st := model.PaymentStatus(*req.Status)
		in.Status = &st
	}
	p, err := h.Payments.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "payment updated", toPaymentDTO(p))
}

// List handles GET /v1/payments?startDate&endDate.
func (h *PaymentHandler) List(c echo.Context) error {
	from, to, err := dateRange(c)
	if err != nil {
		return err
	}
	ps, err := h.Payments.List(c.Request().Context(), from, to)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", toPaymentDTOs(ps))
}

// Today handles GET /v1/payments/today.
func (h *PaymentHandler) Today(c echo.Context) error {
	ps, err := h.Payments.Today(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", toPaymentDTOs(ps))
}

// SummaryByMethod handles GET /v1/payments/summary/by-method.
func (h *PaymentHandler) SummaryByMethod(c echo.Context) error {
	from, to, err := dateRange(c)
	if err != nil {
		return err
	}
	sums, err := h.Payments.SummaryByMethod(c.Request().Context(), from, to)
	if err != nil {
		return err
	}
	out := make([]methodSummaryDTO, 0, len(sums))
	for _, s := range sums {
		out = append(out, methodSummaryDTO{Method: string(s.Method), Total: s.Total.StringFixed(2), Count: s.Count})
	}
	return ok(c, http.StatusOK, "", out)
}
