package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/apperr"
	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/repository"
)

// MenuCatalog is the menu as the HTTP layer sees it: reads for all staff,
// inserts and edits for admins.
type MenuCatalog interface {
	List(ctx context.Context, availableOnly bool) ([]model.MenuItem, error)
	GetByID(ctx context.Context, id uint64) (model.MenuItem, error)
	Create(ctx context.Context, m *model.MenuItem) error
	Update(ctx context.Context, m *model.MenuItem) error
	SetAvailability(ctx context.Context, id uint64, available bool) (model.MenuItem, error)
}

type MenuHandler struct {
	Items MenuCatalog
}

func NewMenuHandler(items MenuCatalog) *MenuHandler { return &MenuHandler{Items: items} }

type createMenuItemReq struct {
	CategoryID  *uint64          `json:"categoryId"`
	Name        string           `json:"name" validate:"required,max=160"`
	Price       *decimal.Decimal `json:"price"`
	IsAvailable *bool            `json:"isAvailable"`
}

type updateMenuItemReq struct {
	CategoryID  *uint64          `json:"categoryId"`
	Name        *string          `json:"name" validate:"omitempty,min=1,max=160"`
	Price       *decimal.Decimal `json:"price"`
	IsAvailable *bool            `json:"isAvailable"`
}

type availabilityReq struct {
	IsAvailable *bool `json:"isAvailable" validate:"required"`
}

// List handles GET /v1/menu-items?available=true.
func (h *MenuHandler) List(c echo.Context) error {
	items, err := h.Items.List(c.Request().Context(), c.QueryParam("available") == "true")
	if err != nil {
		return err
	}
	out := make([]menuItemDTO, 0, len(items))
	for i := range items {
		out = append(out, toMenuItemDTO(&items[i]))
	}
	return ok(c, http.StatusOK, "", out)
}

// Get handles GET /v1/menu-items/:id.
func (h *MenuHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.Items.GetByID(c.Request().Context(), id)
	if err != nil {
		return menuErr(err, id)
	}
	return ok(c, http.StatusOK, "", toMenuItemDTO(&m))
}

// Create handles POST /v1/menu-items.
func (h *MenuHandler) Create(c echo.Context) error {
	var req createMenuItemReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Price == nil || req.Price.IsNegative() {
		return apperr.Validation("price must be a non-negative amount")
	}
	m := &model.MenuItem{
		CategoryID:  req.CategoryID,
		Name:        strings.TrimSpace(req.Name),
		Price:       *req.Price,
		IsAvailable: req.IsAvailable == nil || *req.IsAvailable,
	}
	if err := h.Items.Create(c.Request().Context(), m); err != nil {
		return err
	}
	return ok(c, http.StatusCreated, "menu item created", toMenuItemDTO(m))
}

// Update handles PUT /v1/menu-items/:id.  Absent fields keep their value.
// Orders already placed keep the prices they were created with.
func (h *MenuHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateMenuItemReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Price != nil && req.Price.IsNegative() {
		return apperr.Validation("price must be a non-negative amount")
	}
	ctx := c.Request().Context()
	m, err := h.Items.GetByID(ctx, id)
	if err != nil {
		return menuErr(err, id)
	}
	if req.CategoryID != nil {
		m.CategoryID = req.CategoryID
	}
	if req.Name != nil {
		if m.Name = strings.TrimSpace(*req.Name); m.Name == "" {
			return apperr.Validation("name must not be blank")
		}
	}
	if req.Price != nil {
		m.Price = *req.Price
	}
	if req.IsAvailable != nil {
		m.IsAvailable = *req.IsAvailable
	}
	if err := h.Items.Update(ctx, &m); err != nil {
		return menuErr(err, id)
	}
	return ok(c, http.StatusOK, "menu item updated", toMenuItemDTO(&m))
}

// SetAvailability handles PATCH /v1/menu-items/:id/availability.
func (h *MenuHandler) SetAvailability(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req availabilityReq
	if err := bind(c, &req); err != nil {
		return err
	}
	m, err := h.Items.SetAvailability(c.Request().Context(), id, *req.IsAvailable)
	if err != nil {
		return menuErr(err, id)
	}
	return ok(c, http.StatusOK, "menu item updated", toMenuItemDTO(&m))
}

func menuErr(err error, id uint64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("menu item %d not found", id)
	}
	return err
}
