package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/jongrhanrhao/reservation-backend/internal/database"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
	"github.com/jongrhanrhao/reservation-backend/internal/utils"
)

const userColumns = "id, name, email, password_hash, role, phone, google_id, facebook_id, profile_picture, is_active, created_at, updated_at"

// OAuth providers that can be linked to a user.
const (
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Phone,
		&u.GoogleID, &u.FacebookID, &u.ProfilePicture, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts u and fills its ID and timestamps.  When password is not
// empty it is hashed with the given bcrypt cost; social accounts pass "".
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = model.RoleCustomer
	}
	if password != "" {
		hash, err := utils.HashPassword(password, cost)
		if err != nil {
			return err
		}
		u.PasswordHash = &hash
	}
	u.ID = uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, phone, google_id, facebook_id, profile_picture)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Phone, u.GoogleID, u.FacebookID, u.ProfilePicture)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	created, err := r.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	*u = *created
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1", email))
	return u, notFound(err, ErrUserNotFound)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return getUser(ctx, r.DB, id)
}

// GetByIDTx is GetByID inside tx.
func (r *UserRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.User, error) {
	return getUser(ctx, tx, id)
}

func getUser(ctx context.Context, q querier, id string) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id))
	return u, notFound(err, ErrUserNotFound)
}

func providerColumn(provider string) (string, bool) {
	switch provider {
	case ProviderGoogle:
		return "google_id", true
	case ProviderFacebook:
		return "facebook_id", true
	}
	return "", false
}

// GetByProvider fetches the user linked to a social account.
func (r *UserRepo) GetByProvider(ctx context.Context, provider, providerID string) (*model.User, error) {
	col, ok := providerColumn(provider)
	if !ok {
		return nil, ErrUserNotFound
	}
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+col+" = ? LIMIT 1", providerID))
	return u, notFound(err, ErrUserNotFound)
}

// LinkProvider attaches a social account id to an existing user.
func (r *UserRepo) LinkProvider(ctx context.Context, userID, provider, providerID string) error {
	col, ok := providerColumn(provider)
	if !ok {
		return ErrUserNotFound
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+col+" = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", providerID, userID)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// List returns every user ordered by creation time.
func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UserUpdate lists the profile fields that may change.  Nil fields are left
// untouched.
type UserUpdate struct {
	Name           *string
	Phone          *string
	ProfilePicture *string
	Role           *string
}

// Update applies the non-nil fields of upd and returns the fresh row.
func (r *UserRepo) Update(ctx context.Context, id string, upd UserUpdate) (*model.User, error) {
	sets := []string{}
	args := []any{}
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *upd.Phone)
	}
	if upd.ProfilePicture != nil {
		sets = append(sets, "profile_picture = ?")
		args = append(args, *upd.ProfilePicture)
	}
	if upd.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, *upd.Role)
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
		args = append(args, id)
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes a user together with their reservations, favorites and
// reviews.  Seats still held by the user's reservations go back to the
// date's override in the same transaction.  Users that still own stores
// cannot be removed and yield ErrConflict.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollback(tx)

	held, err := heldSeats(ctx, tx, id)
	if err != nil {
		return err
	}
	for _, h := range held {
		if _, err := incrementSeats(ctx, tx, h.storeID, h.date, h.seats); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return tx.Commit()
}

type seatHold struct {
	storeID, date string
	seats         int
}

// heldSeats sums the seats a customer's live reservations occupy per store
// and date.
func heldSeats(ctx context.Context, q querier, customerID string) ([]seatHold, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT store_id, reservation_date, SUM(party_size) FROM reservations
		 WHERE customer_id = ? AND status <> ?
		 GROUP BY store_id, reservation_date`,
		customerID, model.ReservationCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []seatHold
	for rows.Next() {
		var h seatHold
		if err := rows.Scan(&h.storeID, &h.date, &h.seats); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
