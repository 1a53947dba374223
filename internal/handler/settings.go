package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/service"
)

type SettingsHandler struct {
	Settings *service.SettingsService
}

func NewSettingsHandler(s *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{Settings: s}
}

type settingsReq struct {
	Name                    string          `json:"name" validate:"required,max=160"`
	Address                 *string         `json:"address" validate:"omitempty,max=255"`
	Phone                   *string         `json:"phone" validate:"omitempty,max=40"`
	Email                   *string         `json:"email" validate:"omitempty,email"`
	TaxPercentage           decimal.Decimal `json:"taxPercentage"`
	ServiceChargePercentage decimal.Decimal `json:"serviceChargePercentage"`
	Currency                string          `json:"currency" validate:"required,len=3"`
}

// Get handles GET /v1/settings.
func (h *SettingsHandler) Get(c echo.Context) error {
	s, err := h.Settings.Get(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", toSettingsDTO(s))
}

// Update handles PUT /v1/settings.
func (h *SettingsHandler) Update(c echo.Context) error {
	var req settingsReq
	if err := bind(c, &req); err != nil {
		return err
	}
	s, err := h.Settings.Save(c.Request().Context(), model.Settings{
		Name:                    req.Name,
		Address:                 req.Address,
		Phone:                   req.Phone,
		Email:                   req.Email,
		TaxPercentage:           req.TaxPercentage,
		ServiceChargePercentage: req.ServiceChargePercentage,
		Currency:                req.Currency,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "settings updated", toSettingsDTO(s))
}
