package handler

import (
	"time"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// Money leaves the engine at full precision and is rounded to two places
// only here, at the edge.

type orderItemDTO struct {
	MenuItemID   uint64  `json:"menuItemId"`
	MenuItemName string  `json:"menuItemName"`
	Quantity     int     `json:"quantity"`
	UnitPrice    string  `json:"unitPrice"`
	LineTotal    string  `json:"lineTotal"`
	Notes        *string `json:"notes"`
}

type orderDTO struct {
	ID             uint64         `json:"id"`
	OrderNumber    string         `json:"orderNumber"`
	OrderType      string         `json:"orderType"`
	TableID        *uint64        `json:"tableId"`
	TableNumber    *string        `json:"tableNumber"`
	Status         string         `json:"status"`
	Items          []orderItemDTO `json:"items"`
	Subtotal       string         `json:"subtotal"`
	DiscountAmount string         `json:"discountAmount"`
	TaxAmount      string         `json:"taxAmount"`
	ServiceCharge  string         `json:"serviceCharge"`
	TotalAmount    string         `json:"totalAmount"`
	Notes          *string        `json:"notes"`
	CreatedBy      uint64         `json:"createdBy"`
	CreatedByName  string         `json:"createdByName"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func toOrderDTO(o *model.Order) orderDTO {
	items := make([]orderItemDTO, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, orderItemDTO{
			MenuItemID:   l.MenuItemID,
			MenuItemName: l.MenuItemName,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice.StringFixed(2),
			LineTotal:    l.LineTotal().StringFixed(2),
			Notes:        l.Notes,
		})
	}
	return orderDTO{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		OrderType:      string(o.Type),
		TableID:        o.TableID,
		TableNumber:    o.TableNumber,
		Status:         string(o.Status),
		Items:          items,
		Subtotal:       o.Subtotal.StringFixed(2),
		DiscountAmount: o.DiscountAmount.StringFixed(2),
		TaxAmount:      o.TaxAmount.StringFixed(2),
		ServiceCharge:  o.ServiceCharge.StringFixed(2),
		TotalAmount:    o.TotalAmount.StringFixed(2),
		Notes:          o.Notes,
		CreatedBy:      o.CreatedBy,
		CreatedByName:  o.CreatedByName,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func toOrderDTOs(orders []model.Order) []orderDTO {
	out := make([]orderDTO, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderDTO(&orders[i]))
	}
	return out
}

type paymentDTO struct {
	ID            uint64    `json:"id"`
	OrderID       uint64    `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	Amount        string    `json:"amount"`
	Method        string    `json:"method"`
	Status        string    `json:"status"`
	TransactionID *string   `json:"transactionId"`
	Notes         *string   `json:"notes"`
	CreatedBy     uint64    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toPaymentDTO(p *model.Payment) paymentDTO {
	return paymentDTO{
		ID:            p.ID,
		OrderID:       p.OrderID,
		OrderNumber:   p.OrderNumber,
		Amount:        p.Amount.StringFixed(2),
		Method:        string(p.Method),
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		Notes:         p.Notes,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

type methodSummaryDTO struct {
	Method string `json:"method"`
	Total  string `json:"total"`
	Count  int64  `json:"count"`
}

type tableDTO struct {
	ID          uint64    `json:"id"`
	TableNumber string    `json:"tableNumber"`
	Capacity    uint32    `json:"capacity"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toTableDTO(t *model.Table) tableDTO {
	return tableDTO{
		ID:          t.ID,
		TableNumber: t.TableNumber,
		Capacity:    t.Capacity,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type menuItemDTO struct {
	ID          uint64    `json:"id"`
	CategoryID  *uint64   `json:"categoryId"`
	Name        string    `json:"name"`
	Price       string    `json:"price"`
	IsAvailable bool      `json:"isAvailable"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toMenuItemDTO(m *model.MenuItem) menuItemDTO {
	return menuItemDTO{
		ID:          m.ID,
		CategoryID:  m.CategoryID,
		Name:        m.Name,
		Price:       m.Price.StringFixed(2),
		IsAvailable: m.IsAvailable,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type settingsDTO struct {
	Name                    string    `json:"name"`
	Address                 *string   `json:"address"`
	Phone                   *string   `json:"phone"`
	Email                   *string   `json:"email"`
	TaxPercentage           string    `json:"taxPercentage"`
	ServiceChargePercentage string    `json:"serviceChargePercentage"`
	Currency                string    `json:"currency"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

func toSettingsDTO(s model.Settings) settingsDTO {
	return settingsDTO{
		Name:                    s.Name,
		Address:                 s.Address,
		Phone:                   s.Phone,
		Email:                   s.Email,
		TaxPercentage:           s.TaxPercentage.String(),
		ServiceChargePercentage: s.ServiceChargePercentage.String(),
		Currency:                s.Currency,
		UpdatedAt:               s.UpdatedAt,
	}
}
