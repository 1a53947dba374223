package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/service"
)

// TableHandler exposes table management and occupancy reconciliation.
type TableHandler struct {
	Tables *service.TableService
}

func NewTableHandler(t *service.TableService) *TableHandler { return &TableHandler{Tables: t} }

type createTableReq struct {
	TableNumber string `json:"tableNumber" validate:"required,max=20"`
	Capacity    uint32 `json:"capacity" validate:"required,min=1"`
}

type tableStatusReq struct {
	Status string `json:"status" validate:"required,oneof=available occupied reserved"`
}

func toTableDTOs(ts []model.Table) []tableDTO {
	out := make([]tableDTO, 0, len(ts))
	for i := range ts {
		out = append(out, toTableDTO(&ts[i]))
	}
	return out
}

// List handles GET /v1/tables?status=.
func (h *TableHandler) List(c echo.Context) error {
	ts, err := h.Tables.List(c.Request().Context(), model.TableStatus(c.QueryParam("status")))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", toTableDTOs(ts))
}

// Available handles GET /v1/tables/available.
func (h *TableHandler) Available(c echo.Context) error {
	ts, err := h.Tables.Available(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", toTableDTOs(ts))
}

// Get handles GET /v1/tables/:id.
func (h *TableHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	t, err := h.Tables.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", toTableDTO(t))
}

// Create handles POST /v1/tables.
func (h *TableHandler) Create(c echo.Context) error {
	var req createTableReq
	if err := bind(c, &req); err != nil {
		return err
	}
	t, err := h.Tables.Create(c.Request().Context(), req.TableNumber, req.Capacity)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, "table created", toTableDTO(t))
}

// SetStatus handles PATCH /v1/tables/:id/status, the manual override.
func (h *TableHandler) SetStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req tableStatusReq
	if err := bind(c, &req); err != nil {
		return err
	}
	t, err := h.Tables.SetStatus(c.Request().Context(), id, model.TableStatus(req.Status))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "table status updated", toTableDTO(t))
}

// Reconcile handles POST /v1/tables/reconcile.
func (h *TableHandler) Reconcile(c echo.Context) error {
	report, err := h.Tables.Reconcile(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "tables reconciled", echo.Map{
		"occupied": report.Occupied,
		"released": report.Released,
	})
}
