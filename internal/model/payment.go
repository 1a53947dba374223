package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how the guest paid.
type PaymentMethod string

const (
	MethodCash PaymentMethod = "cash"
	MethodCard PaymentMethod = "card"
	MethodUPI  PaymentMethod = "upi"
)

// Valid reports whether m is a known method.
func (m PaymentMethod) Valid() bool {
	return m == MethodCash || m == MethodCard || m == MethodUPI
}

// PaymentStatus tracks settlement.  Recording a payment settles it, so new
// rows start as completed.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Payment settles one order.  An order has at most one payment.
type Payment struct {
	ID            uint64          // payments.id
	OrderID       uint64          // payments.order_id (unique)
	Amount        decimal.Decimal // payments.amount (>= 0)
	Method        PaymentMethod   // payments.method
	Status        PaymentStatus   // payments.status
	TransactionID *string         // payments.transaction_id (nullable)
	Notes         *string         // payments.notes (nullable)
	CreatedBy     uint64          // payments.created_by
	CreatedAt     time.Time       // payments.created_at
	UpdatedAt     time.Time       // payments.updated_at

	OrderNumber string // joined from orders for display
}

// MethodSummary aggregates completed payments of one method.
type MethodSummary struct {
	Method PaymentMethod
	Total  decimal.Decimal
	Count  int64
}
