package repository

import (
	"context"
	"database/sql"

	"github.com/jongrhanrhao/reservation-backend/internal/database"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
)

const reservationColumns = `seq, COALESCE(reservation_id, ''), customer_id, store_id, table_id, reservation_date,
	reservation_time, status, party_size, customer_name, customer_phone, note, created_at, updated_at`

// ReservationRepo handles persistence of reservations.  Writes that touch
// availability run on a caller-supplied transaction.
type ReservationRepo struct {
	db *sql.DB
}

func NewReservationRepo(db *sql.DB) *ReservationRepo {
	return &ReservationRepo{db: db}
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var r model.Reservation
	err := row.Scan(&r.Seq, &r.ID, &r.CustomerID, &r.StoreID, &r.TableID, &r.Date, &r.Time, &r.Status,
		&r.PartySize, &r.CustomerName, &r.CustomerPhone, &r.Note, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *ReservationRepo) list(ctx context.Context, where string, args ...any) ([]*model.Reservation, error) {
	q := "SELECT " + reservationColumns + " FROM reservations"
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY reservation_date, reservation_time, seq"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// InsertTx creates the reservation row and returns its sequence number.
// The display id is assigned separately by SetIDTx.
func (r *ReservationRepo) InsertTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) (int64, error) {
	const q = `INSERT INTO reservations (customer_id, store_id, table_id, reservation_date, reservation_time,
		status, party_size, customer_name, customer_phone, note)
		VALUES (?,?,?,?,?,?,?,?,?,?)`
	out, err := tx.ExecContext(ctx, q, res.CustomerID, res.StoreID, res.TableID, res.Date, res.Time,
		res.Status, res.PartySize, res.CustomerName, res.CustomerPhone, res.Note)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return 0, ErrTableNotFound
		}
		return 0, err
	}
	return out.LastInsertId()
}

// SetIDTx stores the display id of the reservation with sequence seq.
func (r *ReservationRepo) SetIDTx(ctx context.Context, tx *sql.Tx, seq int64, id string) error {
	_, err := tx.ExecContext(ctx, `UPDATE reservations SET reservation_id = ? WHERE seq = ?`, id, seq)
	if err != nil && database.IsDuplicateKey(err) {
		return ErrReservationCodeUsed
	}
	return err
}

// GetByID fetches a reservation by its display id.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	return getReservation(ctx, r.db, id)
}

// GetByIDTx is GetByID inside tx.
func (r *ReservationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Reservation, error) {
	return getReservation(ctx, tx, id)
}

func getReservation(ctx context.Context, q querier, id string) (*model.Reservation, error) {
	res, err := scanReservation(q.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE reservation_id = ?", id))
	return res, notFound(err, ErrReservationNotFound)
}

// List returns every reservation.
func (r *ReservationRepo) List(ctx context.Context) ([]*model.Reservation, error) {
	return r.list(ctx, "")
}

// ListByCustomer returns the reservations made by a customer.
func (r *ReservationRepo) ListByCustomer(ctx context.Context, customerID string) ([]*model.Reservation, error) {
	return r.list(ctx, "customer_id = ?", customerID)
}

// ListByStore returns the reservations of a store.
func (r *ReservationRepo) ListByStore(ctx context.Context, storeID string) ([]*model.Reservation, error) {
	return r.list(ctx, "store_id = ?", storeID)
}

// ListByStoreAndDate returns the reservations of a store on one date.
func (r *ReservationRepo) ListByStoreAndDate(ctx context.Context, storeID, date string) ([]*model.Reservation, error) {
	return r.list(ctx, "store_id = ? AND reservation_date = ?", storeID, date)
}

// CountByStoreAndDate counts rows for a store/date; used by tests and reports.
func (r *ReservationRepo) CountByStoreAndDate(ctx context.Context, storeID, date string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE store_id = ? AND reservation_date = ?`, storeID, date).Scan(&n)
	return n, err
}

// UpdateTx rewrites the editable fields of a reservation, but only while
// the row still matches prev.  A concurrent edit yields ErrConflict.
func (r *ReservationRepo) UpdateTx(ctx context.Context, tx *sql.Tx, prev, next *model.Reservation) error {
	const q = `UPDATE reservations SET table_id = ?, reservation_date = ?, reservation_time = ?, party_size = ?,
		customer_name = ?, customer_phone = ?, note = ?, updated_at = CURRENT_TIMESTAMP
		WHERE reservation_id = ? AND reservation_date = ? AND party_size = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, next.TableID, next.Date, next.Time, next.PartySize,
		next.CustomerName, next.CustomerPhone, next.Note,
		prev.ID, prev.Date, prev.PartySize, prev.Status)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrTableNotFound
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 for an unchanged row, so look before calling it a conflict
		cur, err := getReservation(ctx, tx, prev.ID)
		if err != nil {
			return err
		}
		if cur.Date != prev.Date || cur.PartySize != prev.PartySize || cur.Status != prev.Status {
			return ErrConflict
		}
	}
	return nil
}

// UpdateStatusTx moves a reservation from status from to status to.  It
// reports false when the row no longer has status from.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id, from, to string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE reservation_id = ? AND status = ?`,
		to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// DeleteTx removes a reservation.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE reservation_id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReservationNotFound
	}
	return nil
}
