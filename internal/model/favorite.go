package model

import "time"

// Favorite marks a store as bookmarked by a customer.
type Favorite struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	StoreID    string    `json:"store_id"`
	CreatedAt  time.Time `json:"created_at"`
}
