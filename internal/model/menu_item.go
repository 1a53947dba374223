package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem is a sellable catalog entry.  Orders copy Price into their lines.
type MenuItem struct {
	ID          uint64          // menu_items.id
	CategoryID  *uint64         // menu_items.category_id (nullable)
	Name        string          // menu_items.name
	Price       decimal.Decimal // menu_items.price (>= 0)
	IsAvailable bool            // menu_items.is_available
	CreatedAt   time.Time       // menu_items.created_at
	UpdatedAt   time.Time       // menu_items.updated_at
}
