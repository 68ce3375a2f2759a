package repository

import (
	"context"
	"database/sql"

	"github.com/jongrhanrhao/reservation-backend/internal/database"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
)

// StaffRepo manages the store_staff join table.
type StaffRepo struct {
	db *sql.DB
}

func NewStaffRepo(db *sql.DB) *StaffRepo {
	return &StaffRepo{db: db}
}

// Add assigns userID to storeID.
func (r *StaffRepo) Add(ctx context.Context, storeID, userID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO store_staff (store_id, user_id) VALUES (?, ?)`, storeID, userID)
	switch {
	case err == nil:
		return nil
	case database.IsDuplicateKey(err):
		return ErrDuplicateStaff
	case database.IsForeignKeyViolation(err):
		return ErrUserNotFound
	}
	return err
}

// Remove unassigns userID from storeID.
func (r *StaffRepo) Remove(ctx context.Context, storeID, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM store_staff WHERE store_id = ? AND user_id = ?`, storeID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStaffNotFound
	}
	return nil
}

// List returns the staff of a store with their names.
func (r *StaffRepo) List(ctx context.Context, storeID string) ([]*model.StaffMember, error) {
	const q = `SELECT ss.store_id, ss.user_id, u.name, u.email, ss.created_at
		FROM store_staff ss JOIN users u ON u.id = ss.user_id
		WHERE ss.store_id = ? ORDER BY u.name, u.id`
	rows, err := r.db.QueryContext(ctx, q, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.StaffMember{}
	for rows.Next() {
		m := new(model.StaffMember)
		if err := rows.Scan(&m.StoreID, &m.UserID, &m.Name, &m.Email, &m.AssignedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// IsStaff reports whether userID works at storeID.
func (r *StaffRepo) IsStaff(ctx context.Context, storeID, userID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM store_staff WHERE store_id = ? AND user_id = ?`, storeID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}
