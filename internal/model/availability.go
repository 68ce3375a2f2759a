package model

import "time"

// DateLayout is the calendar date format used in URLs, bodies and storage.
const DateLayout = "2006-01-02"

// StoreAvailability is a per-date override of a store's seat count.  At
// most one row exists per (store, date).
type StoreAvailability struct {
	ID             uint64    `json:"id"`
	StoreID        string    `json:"store_id"`
	Date           string    `json:"date"`
	AvailableSeats int       `json:"available_seats"`
	IsReservable   bool      `json:"is_reservable"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Availability sources.
const (
	SourceOverride = "override"
	SourceDefault  = "default"
)

// DayAvailability is the resolved availability of one store on one date.
type DayAvailability struct {
	Date           string `json:"date"`
	AvailableSeats int    `json:"available_seats"`
	IsReservable   bool   `json:"is_reservable"`
	Source         string `json:"source"`
}
