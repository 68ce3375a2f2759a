// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot be performed because of
// conflicting state, such as a row that changed between read and write.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// Not-found sentinels, one per table.  Handlers map them to 404.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrStoreNotFound        = errors.New("store not found")
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrFavoriteNotFound     = errors.New("favorite not found")
	ErrReviewNotFound       = errors.New("review not found")
	ErrTableNotFound        = errors.New("table not found")
	ErrAvailabilityNotFound = errors.New("availability not found")
	ErrStaffNotFound        = errors.New("staff member not found")
)

// Uniqueness sentinels.  Handlers map them to 409.
var (
	ErrEmailExists         = errors.New("email already exists")
	ErrDuplicateStoreName  = errors.New("store name already exists for this owner")
	ErrDuplicateFavorite   = errors.New("store is already a favorite")
	ErrDuplicateReview     = errors.New("customer already reviewed this store")
	ErrDuplicateTable      = errors.New("table number already exists in this store")
	ErrDuplicateStaff      = errors.New("user is already staff of this store")
	ErrAvailabilityExists  = errors.New("availability override already exists")
	ErrReservationCodeUsed = errors.New("reservation id already used")
)

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	for _, target := range []error{
		ErrUserNotFound, ErrStoreNotFound, ErrReservationNotFound, ErrFavoriteNotFound,
		ErrReviewNotFound, ErrTableNotFound, ErrAvailabilityNotFound, ErrStaffNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// querier is satisfied by both *sql.DB and *sql.Tx so lookups can run
// inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// notFound maps sql.ErrNoRows to the provided sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}

// rollback is deferred by transactional methods; it is a no-op after Commit.
func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}
