package model

import "time"

// TableStatus is the occupancy state of a dining table.
type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableReserved  TableStatus = "reserved"
)

// Valid reports whether s is a known table status.
func (s TableStatus) Valid() bool {
	return s == TableAvailable || s == TableOccupied || s == TableReserved
}

// Table is a dining table.  Status moves between available and occupied
// only through the order lifecycle; reserved is set by staff.
type Table struct {
	ID          uint64      // restaurant_tables.id
	TableNumber string      // restaurant_tables.table_number (unique)
	Capacity    uint32      // restaurant_tables.capacity
	Status      TableStatus // restaurant_tables.status
	CreatedAt   time.Time   // restaurant_tables.created_at
	UpdatedAt   time.Time   // restaurant_tables.updated_at
}
