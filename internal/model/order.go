package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType distinguishes table service from counter orders.
type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeaway OrderType = "takeaway"
)

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	return t == OrderTypeDineIn || t == OrderTypeTakeaway
}

// Order is a priced cart moving through the fulfillment state machine.
// Money fields are stored at four decimal places and never rounded in
// between pricing steps.
//
// Fields:
//
//	ID             – primary key identifier.
//	OrderNumber    – human-readable unique number (ORD-YYYYMMDD-XXXXXX).
//	Type           – dine_in or takeaway.
//	TableID        – table claimed by a dine-in order (nil for takeaway).
//	Status         – current lifecycle status.
//	Subtotal       – Σ unit price × quantity over Lines.
//	TaxAmount      – tax on the after-discount base.
//	ServiceCharge  – service charge on the after-discount base.
//	DiscountAmount – discount clamped into [0, Subtotal].
//	TotalAmount    – after-discount base + tax + service charge.
//	CreatedBy      – user who rang the order in.
type Order struct {
	ID             uint64          // orders.id
	OrderNumber    string          // orders.order_number
	Type           OrderType       // orders.order_type
	TableID        *uint64         // orders.table_id (nullable)
	Status         OrderStatus     // orders.status
	Subtotal       decimal.Decimal // orders.subtotal
	TaxAmount      decimal.Decimal // orders.tax_amount
	ServiceCharge  decimal.Decimal // orders.service_charge
	DiscountAmount decimal.Decimal // orders.discount_amount
	TotalAmount    decimal.Decimal // orders.total_amount
	Notes          *string         // orders.notes (nullable)
	CreatedBy      uint64          // orders.created_by
	CreatedAt      time.Time       // orders.created_at
	UpdatedAt      time.Time       // orders.updated_at
	Lines          []OrderLine

	// Display data joined from tables and users; not persisted on the order row.
	TableNumber   *string
	CreatedByName string
}

// HasTable reports whether the order holds a table claim.
func (o *Order) HasTable() bool {
	return o.TableID != nil && *o.TableID != 0
}

// OrderLine is one menu item, its quantity and the unit price captured when
// the line was priced.  Later catalog changes do not touch UnitPrice.
type OrderLine struct {
	MenuItemID uint64          // order_items.menu_item_id
	Quantity   int             // order_items.quantity (>= 1)
	UnitPrice  decimal.Decimal // order_items.unit_price
	Notes      *string         // order_items.notes (nullable)

	MenuItemName string // joined from menu_items for display
}

// LineTotal returns UnitPrice × Quantity.
func (l OrderLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderFilter narrows order listings.  Zero values are ignored; From is
// inclusive and To is exclusive.
type OrderFilter struct {
	Status  OrderStatus
	Type    OrderType
	TableID uint64
	From    *time.Time
	To      *time.Time
}
