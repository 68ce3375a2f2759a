package service

import (
	"fmt"
	"strconv"
	"strings"
)

const reservationIDPrefix = "JRR"

// FormatReservationID renders the display code for an auto-increment
// sequence: 1 -> "JRR0001", 10000 -> "JRR10000".
func FormatReservationID(seq int64) string {
	return fmt.Sprintf("%s%04d", reservationIDPrefix, seq)
}

// ParseReservationID returns the sequence encoded in id.
func ParseReservationID(id string) (int64, error) {
	digits, ok := strings.CutPrefix(id, reservationIDPrefix)
	if !ok || len(digits) < 4 {
		return 0, ErrInvalidReservationID
	}
	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || seq <= 0 {
		return 0, ErrInvalidReservationID
	}
	return seq, nil
}
