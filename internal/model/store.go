package model

import "time"

const (
	StoreStatusOpen   = "open"
	StoreStatusClosed = "closed"
)

// Store is a restaurant that accepts reservations.  DefaultSeats is the
// seat count used for any date without an availability override.
type Store struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Address         string    `json:"address"`
	Status          string    `json:"status"`
	DefaultSeats    int       `json:"default_seats"`
	MinAge          int       `json:"min_age"`
	MaxAge          int       `json:"max_age"`
	IsPopular       bool      `json:"is_popular"`
	OpenTimeBooking string    `json:"open_time_booking"`
	CancelReserve   string    `json:"cancel_reserve"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// StoreImage is an image URL attached to a store.
type StoreImage struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// StaffMember is a user assigned to work at a store.
type StaffMember struct {
	StoreID    string    `json:"store_id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	AssignedAt time.Time `json:"assigned_at"`
}
