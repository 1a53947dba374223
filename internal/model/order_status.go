package model

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusServed    OrderStatus = "served"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []OrderStatus{
	StatusPending, StatusPreparing, StatusReady, StatusServed, StatusCompleted, StatusCancelled,
}

// ActiveStatuses are the non-terminal statuses; an order in one of them
// still holds its table.
var ActiveStatuses = []OrderStatus{StatusPending, StatusPreparing, StatusReady, StatusServed}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Terminal reports whether s is completed or cancelled.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Transition is a permitted status change.
type Transition struct {
	From OrderStatus
	To   OrderStatus
}

// transitions is built once: every non-terminal status may move to any
// other status, staff can step back to correct a mis-click, and nothing
// leaves a terminal status.
var transitions = func() map[Transition]bool {
	m := make(map[Transition]bool)
	for _, from := range ActiveStatuses {
		for _, to := range AllStatuses {
			if from != to {
				m[Transition{From: from, To: to}] = true
			}
		}
	}
	return m
}()

// CanTransition reports whether the move from -> to is in the transition table.
func CanTransition(from, to OrderStatus) bool {
	return transitions[Transition{From: from, To: to}]
}

// NextStatuses returns the statuses reachable from s, in lifecycle order.
func NextStatuses(s OrderStatus) []OrderStatus {
	var out []OrderStatus
	for _, to := range AllStatuses {
		if CanTransition(s, to) {
			out = append(out, to)
		}
	}
	return out
}
