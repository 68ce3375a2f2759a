package model

import "time"

// Review is a customer's rating of a store.  UserName is filled by
// listing queries that join the reviewer.
type Review struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	StoreID    string    `json:"store_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	UserName   string    `json:"user_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
