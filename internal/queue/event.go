// Package queue carries order lifecycle events over RabbitMQ.  Events are
// published after the database transaction commits and are consumed into
// an append-only audit log.
package queue

// OrderQueueName is the durable queue every lifecycle event is routed to.
const OrderQueueName = "pos.order.events"

// Event types.
const (
	EventOrderCreated       = "order.created"
	EventOrderUpdated       = "order.updated"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderCancelled     = "order.cancelled"
	EventPaymentCompleted   = "payment.completed"
)

// OrderEvent describes one change to an order or its payment.  Amounts are
// decimal strings with two fraction digits so consumers never parse floats.
type OrderEvent struct {
	ID             string  `json:"id"`
	Type           string  `json:"type"`
	OrderID        uint64  `json:"order_id"`
	OrderNumber    string  `json:"order_number"`
	OrderType      string  `json:"order_type,omitempty"`
	TableID        *uint64 `json:"table_id,omitempty"`
	Status         string  `json:"status"`
	PreviousStatus string  `json:"previous_status,omitempty"`
	TotalAmount    string  `json:"total_amount"`
	PaymentID      uint64  `json:"payment_id,omitempty"`
	PaymentMethod  string  `json:"payment_method,omitempty"`
	PaymentAmount  string  `json:"payment_amount,omitempty"`
	ActorID        uint64  `json:"actor_id"`
	OccurredAt     string  `json:"occurred_at"`
}
