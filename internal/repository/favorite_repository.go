package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/jongrhanrhao/reservation-backend/internal/database"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
)

const favoriteColumns = "id, customer_id, store_id, created_at"

// FavoriteRepo persists customer favorites.  A (customer, store) pair is
// unique.
type FavoriteRepo struct {
	db *sql.DB
}

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo {
	return &FavoriteRepo{db: db}
}

func scanFavorite(row rowScanner) (*model.Favorite, error) {
	var f model.Favorite
	if err := row.Scan(&f.ID, &f.CustomerID, &f.StoreID, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FavoriteRepo) list(ctx context.Context, where string, args ...any) ([]*model.Favorite, error) {
	q := "SELECT " + favoriteColumns + " FROM favorites"
	if where != "" {
		q += " WHERE " + where
	}
	rows, err := r.db.QueryContext(ctx, q+" ORDER BY created_at, id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Favorite{}
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Create inserts f.  A second favorite for the same pair is ErrDuplicateFavorite.
func (r *FavoriteRepo) Create(ctx context.Context, f *model.Favorite) error {
	f.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO favorites (id, customer_id, store_id) VALUES (?, ?, ?)`, f.ID, f.CustomerID, f.StoreID)
	if err != nil {
		switch {
		case database.IsDuplicateKey(err):
			return ErrDuplicateFavorite
		case database.IsForeignKeyViolation(err):
			return ErrStoreNotFound
		}
		return err
	}
	created, err := r.GetByID(ctx, f.ID)
	if err != nil {
		return err
	}
	*f = *created
	return nil
}

// GetByID fetches a favorite or returns ErrFavoriteNotFound.
func (r *FavoriteRepo) GetByID(ctx context.Context, id string) (*model.Favorite, error) {
	f, err := scanFavorite(r.db.QueryRowContext(ctx, "SELECT "+favoriteColumns+" FROM favorites WHERE id = ?", id))
	return f, notFound(err, ErrFavoriteNotFound)
}

// List returns every favorite.
func (r *FavoriteRepo) List(ctx context.Context) ([]*model.Favorite, error) {
	return r.list(ctx, "")
}

// ListByCustomer returns a customer's favorites.
func (r *FavoriteRepo) ListByCustomer(ctx context.Context, customerID string) ([]*model.Favorite, error) {
	return r.list(ctx, "customer_id = ?", customerID)
}

// Exists reports whether the customer has favorited the store.
func (r *FavoriteRepo) Exists(ctx context.Context, customerID, storeID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM favorites WHERE customer_id = ? AND store_id = ?`, customerID, storeID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// UpdateStore points an existing favorite at another store.
func (r *FavoriteRepo) UpdateStore(ctx context.Context, id, storeID string) (*model.Favorite, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE favorites SET store_id = ? WHERE id = ?`, storeID, id)
	if err != nil {
		switch {
		case database.IsDuplicateKey(err):
			return nil, ErrDuplicateFavorite
		case database.IsForeignKeyViolation(err):
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes a favorite by id.
func (r *FavoriteRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

// DeleteByPair removes the favorite for (customerID, storeID).
func (r *FavoriteRepo) DeleteByPair(ctx context.Context, customerID, storeID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE customer_id = ? AND store_id = ?`, customerID, storeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}
