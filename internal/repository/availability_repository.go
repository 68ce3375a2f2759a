package repository

import (
	"context"
	"database/sql"

	"github.com/jongrhanrhao/reservation-backend/internal/database"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
)

const availabilityColumns = "id, store_id, date, available_seats, is_reservable, created_at, updated_at"

// AvailabilityRepo persists per-date seat overrides.
type AvailabilityRepo struct {
	db *sql.DB
}

func NewAvailabilityRepo(db *sql.DB) *AvailabilityRepo {
	return &AvailabilityRepo{db: db}
}

func scanAvailability(row rowScanner) (*model.StoreAvailability, error) {
	var a model.StoreAvailability
	if err := row.Scan(&a.ID, &a.StoreID, &a.Date, &a.AvailableSeats, &a.IsReservable, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByDate returns the override for (storeID, date) or ErrAvailabilityNotFound.
func (r *AvailabilityRepo) GetByDate(ctx context.Context, storeID, date string) (*model.StoreAvailability, error) {
	return getAvailability(ctx, r.db, storeID, date)
}

// GetByDateTx is GetByDate inside tx.
func (r *AvailabilityRepo) GetByDateTx(ctx context.Context, tx *sql.Tx, storeID, date string) (*model.StoreAvailability, error) {
	return getAvailability(ctx, tx, storeID, date)
}

func getAvailability(ctx context.Context, q querier, storeID, date string) (*model.StoreAvailability, error) {
	a, err := scanAvailability(q.QueryRowContext(ctx,
		"SELECT "+availabilityColumns+" FROM store_availability WHERE store_id = ? AND date = ?", storeID, date))
	return a, notFound(err, ErrAvailabilityNotFound)
}

// ListRange returns the overrides between start and end inclusive, ordered
// by date.  Dates compare lexically because they are YYYY-MM-DD.
func (r *AvailabilityRepo) ListRange(ctx context.Context, storeID, start, end string) ([]*model.StoreAvailability, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+availabilityColumns+" FROM store_availability WHERE store_id = ? AND date >= ? AND date <= ? ORDER BY date",
		storeID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.StoreAvailability{}
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Replace deletes any override for (a.StoreID, a.Date) and inserts a in
// its place, within one transaction.  a is refreshed from the new row.
func (r *AvailabilityRepo) Replace(ctx context.Context, a *model.StoreAvailability) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollback(tx)

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM store_availability WHERE store_id = ? AND date = ?`, a.StoreID, a.Date); err != nil {
		return err
	}
	if err := r.InsertTx(ctx, tx, a.StoreID, a.Date, a.AvailableSeats, a.IsReservable); err != nil {
		return err
	}
	fresh, err := getAvailability(ctx, tx, a.StoreID, a.Date)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	*a = *fresh
	return nil
}

// InsertTx creates an override row.  ErrAvailabilityExists means another
// transaction created the row first.
func (r *AvailabilityRepo) InsertTx(ctx context.Context, tx *sql.Tx, storeID, date string, seats int, reservable bool) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO store_availability (store_id, date, available_seats, is_reservable) VALUES (?, ?, ?, ?)`,
		storeID, date, seats, reservable)
	switch {
	case err == nil:
		return nil
	case database.IsDuplicateKey(err):
		return ErrAvailabilityExists
	case database.IsForeignKeyViolation(err):
		return ErrStoreNotFound
	}
	return err
}

// DecrementTx atomically takes n seats from the override.  It reports
// false when the row is missing or holds fewer than n seats; nothing is
// written in that case.
func (r *AvailabilityRepo) DecrementTx(ctx context.Context, tx *sql.Tx, storeID, date string, n int) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE store_availability
		 SET available_seats = available_seats - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE store_id = ? AND date = ? AND available_seats >= ?`,
		n, storeID, date, n)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// IncrementTx gives n seats back to the override.  It reports false when no
// override exists for the date.
func (r *AvailabilityRepo) IncrementTx(ctx context.Context, tx *sql.Tx, storeID, date string, n int) (bool, error) {
	return incrementSeats(ctx, tx, storeID, date, n)
}

func incrementSeats(ctx context.Context, q querier, storeID, date string, n int) (bool, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE store_availability
		 SET available_seats = available_seats + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE store_id = ? AND date = ?`,
		n, storeID, date)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Delete removes the override for a date so the store default applies again.
func (r *AvailabilityRepo) Delete(ctx context.Context, storeID, date string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM store_availability WHERE store_id = ? AND date = ?`, storeID, date)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAvailabilityNotFound
	}
	return nil
}
