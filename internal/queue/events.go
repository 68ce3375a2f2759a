// Package queue defines the messages exchanged over RabbitMQ and the
// worker that consumes them.
package queue

import "time"

// Queue names.  Both are durable.
const (
	ReservationQueue = "reservation.events"
	StoreQueue       = "store.events"
)

// Event types.
const (
	TypeReservationUpdate = "reservation_update"
	TypeStoreUpdate       = "store_update"
)

// Event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionStatus  = "status"
	ActionDeleted = "deleted"
)

// ReservationEvent is published after a reservation write commits.
type ReservationEvent struct {
	Type          string    `json:"type"`
	Action        string    `json:"action"`
	ReservationID string    `json:"reservation_id"`
	StoreID       string    `json:"store_id"`
	CustomerID    string    `json:"customer_id"`
	Date          string    `json:"date"`
	Seats         int       `json:"seats"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// StoreEvent is published after a store is created, updated or deleted.
type StoreEvent struct {
	Type       string    `json:"type"`
	Action     string    `json:"action"`
	StoreID    string    `json:"store_id"`
	OwnerID    string    `json:"owner_id"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
}
