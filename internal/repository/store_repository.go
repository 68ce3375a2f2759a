// Package repository contains data access logic separated from HTTP handlers.
// Every query uses `?` placeholders so the same SQL runs on MySQL and SQLite.
package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/jongrhanrhao/reservation-backend/internal/database"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
)

const storeColumns = `id, owner_id, name, COALESCE(description, ''), address, status, default_seats,
	min_age, max_age, is_popular, open_time_booking, cancel_reserve, created_at, updated_at`

// StoreRepo encapsulates all database queries related to stores.
type StoreRepo struct {
	db *sql.DB
}

func NewStoreRepo(db *sql.DB) *StoreRepo {
	return &StoreRepo{db: db}
}

// DB exposes the pool so services can open transactions spanning repos.
func (r *StoreRepo) DB() *sql.DB { return r.db }

func scanStore(row rowScanner) (*model.Store, error) {
	var s model.Store
	err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Description, &s.Address, &s.Status, &s.DefaultSeats,
		&s.MinAge, &s.MaxAge, &s.IsPopular, &s.OpenTimeBooking, &s.CancelReserve, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectStores(rows *sql.Rows) ([]*model.Store, error) {
	defer rows.Close()
	out := []*model.Store{}
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create inserts a new store.  After the insert a SELECT populates the
// timestamps so callers receive a fully populated record.
func (r *StoreRepo) Create(ctx context.Context, s *model.Store) error {
	s.ID = uuid.NewString()
	if s.Status == "" {
		s.Status = model.StoreStatusOpen
	}
	const q = `INSERT INTO stores (id, owner_id, name, description, address, status, default_seats,
		min_age, max_age, is_popular, open_time_booking, cancel_reserve)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`
	_, err := r.db.ExecContext(ctx, q, s.ID, s.OwnerID, s.Name, s.Description, s.Address, s.Status,
		s.DefaultSeats, s.MinAge, s.MaxAge, s.IsPopular, s.OpenTimeBooking, s.CancelReserve)
	if err != nil {
		switch {
		case database.IsDuplicateKey(err):
			return ErrDuplicateStoreName
		case database.IsForeignKeyViolation(err):
			return ErrUserNotFound
		}
		return err
	}
	created, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	*s = *created
	return nil
}

// GetByID fetches a store by id or returns ErrStoreNotFound.
func (r *StoreRepo) GetByID(ctx context.Context, id string) (*model.Store, error) {
	return getStore(ctx, r.db, id)
}

// GetByIDTx is GetByID inside tx.
func (r *StoreRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Store, error) {
	return getStore(ctx, tx, id)
}

func getStore(ctx context.Context, q querier, id string) (*model.Store, error) {
	s, err := scanStore(q.QueryRowContext(ctx, "SELECT "+storeColumns+" FROM stores WHERE id = ?", id))
	return s, notFound(err, ErrStoreNotFound)
}

// StoreFilter narrows List.  Empty fields are ignored.
type StoreFilter struct {
	Status string
	Query  string
}

// List returns stores ordered by name.
func (r *StoreRepo) List(ctx context.Context, f StoreFilter) ([]*model.Store, error) {
	where := []string{}
	args := []any{}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q)+"%")
	}
	query := "SELECT " + storeColumns + " FROM stores"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name, id"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectStores(rows)
}

// ListByOwner returns all stores for a specific owner ordered by name.
func (r *StoreRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Store, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+storeColumns+" FROM stores WHERE owner_id = ? ORDER BY name, id", ownerID)
	if err != nil {
		return nil, err
	}
	return collectStores(rows)
}

// ListPopular returns flagged stores, most favorited first.
func (r *StoreRepo) ListPopular(ctx context.Context, limit int) ([]*model.Store, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `SELECT ` + storeColumns + ` FROM stores s
		WHERE s.is_popular = 1
		ORDER BY (SELECT COUNT(*) FROM favorites f WHERE f.store_id = s.id) DESC, s.name
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	return collectStores(rows)
}

// Update writes every mutable column of s.  The owner is not changed.
func (r *StoreRepo) Update(ctx context.Context, s *model.Store) error {
	const q = `UPDATE stores SET name = ?, description = ?, address = ?, status = ?, default_seats = ?,
		min_age = ?, max_age = ?, is_popular = ?, open_time_booking = ?, cancel_reserve = ?,
		updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, s.Name, s.Description, s.Address, s.Status, s.DefaultSeats,
		s.MinAge, s.MaxAge, s.IsPopular, s.OpenTimeBooking, s.CancelReserve, s.ID)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return ErrDuplicateStoreName
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 for an unchanged row; only a missing row is an error
		if _, err := r.GetByID(ctx, s.ID); err != nil {
			return err
		}
	}
	updated, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	*s = *updated
	return nil
}

// Delete removes a store and all dependent records within a transaction.
func (r *StoreRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollback(tx)

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM stores WHERE id = ?`, id).Scan(&exists); err != nil {
		return notFound(err, ErrStoreNotFound)
	}
	for _, q := range []string{
		`DELETE FROM reviews WHERE store_id = ?`,
		`DELETE FROM favorites WHERE store_id = ?`,
		`DELETE FROM reservations WHERE store_id = ?`,
		`DELETE FROM store_availability WHERE store_id = ?`,
		`DELETE FROM store_tables WHERE store_id = ?`,
		`DELETE FROM store_images WHERE store_id = ?`,
		`DELETE FROM store_staff WHERE store_id = ?`,
		`DELETE FROM stores WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}
