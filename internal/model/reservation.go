package model

import "time"

// Reservation statuses.
const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationCancelled = "cancelled"
	ReservationCompleted = "completed"
	ReservationNoShow    = "no_show"
)

// ValidReservationStatus reports whether s is a known status.
func ValidReservationStatus(s string) bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCancelled, ReservationCompleted, ReservationNoShow:
		return true
	}
	return false
}

// Reservation records a customer's claim on seats at a store for one date.
//
// Fields:
//  Seq           – auto-increment primary key; never exposed.
//  ID            – display code derived from Seq ("JRR0001").
//  CustomerID    – user who booked.
//  StoreID       – store being reserved.
//  TableID       – optional table assignment.
//  Date          – calendar date (YYYY-MM-DD).
//  Time          – arrival time (HH:MM).
//  Status        – pending, confirmed, cancelled, completed or no_show.
//  PartySize     – number of seats taken from availability.
type Reservation struct {
	Seq           int64     `json:"-"`
	ID            string    `json:"id"`
	CustomerID    string    `json:"customer_id"`
	StoreID       string    `json:"store_id"`
	TableID       *string   `json:"table_id,omitempty"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Status        string    `json:"status"`
	PartySize     int       `json:"party_size"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	Note          *string   `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HoldsSeats reports whether the reservation still occupies availability.
func (r *Reservation) HoldsSeats() bool {
	return r.Status != ReservationCancelled
}
