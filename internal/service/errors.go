// Package service holds the reservation logic that spans repositories:
// availability resolution, booking, reservation ids, events and exports.
package service

import "errors"

var (
	// ErrInvalidDate is returned for a date that is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
	// ErrInvalidRange is returned when end precedes start or the span is too long.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrInvalidSeats is returned for a non-positive party size or a negative seat count.
	ErrInvalidSeats = errors.New("seats must be positive")
	// ErrInvalidStatus is returned for an unknown reservation status.
	ErrInvalidStatus = errors.New("invalid reservation status")
	// ErrInsufficientAvailability is returned when a booking asks for more seats than remain.
	ErrInsufficientAvailability = errors.New("not enough seats available")
	// ErrNotReservable is returned when the date is closed for booking.
	ErrNotReservable = errors.New("date is not reservable")
	// ErrInvalidReservationID is returned by ParseReservationID.
	ErrInvalidReservationID = errors.New("invalid reservation id")
)
