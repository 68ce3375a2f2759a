package model

import "time"

const (
	TableAvailable   = "available"
	TableReserved    = "reserved"
	TableUnavailable = "unavailable"
)

// Table is a physical table inside a store.
type Table struct {
	ID          string    `json:"id"`
	StoreID     string    `json:"store_id"`
	TableNumber int       `json:"table_number"`
	Capacity    int       `json:"capacity"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
