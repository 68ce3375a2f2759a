package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/jongrhanrhao/reservation-backend/internal/database"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
)

const reviewColumns = "r.id, r.customer_id, r.store_id, r.rating, COALESCE(r.comment, ''), COALESCE(u.name, ''), r.created_at, r.updated_at"

// ReviewRepo persists store reviews.  One review per (customer, store).
type ReviewRepo struct {
	db *sql.DB
}

func NewReviewRepo(db *sql.DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

func scanReview(row rowScanner) (*model.Review, error) {
	var rv model.Review
	if err := row.Scan(&rv.ID, &rv.CustomerID, &rv.StoreID, &rv.Rating, &rv.Comment, &rv.UserName, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
		return nil, err
	}
	return &rv, nil
}

// Create inserts rv and returns it with the reviewer name joined.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	rv.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (id, customer_id, store_id, rating, comment) VALUES (?, ?, ?, ?, ?)`,
		rv.ID, rv.CustomerID, rv.StoreID, rv.Rating, rv.Comment)
	if err != nil {
		switch {
		case database.IsDuplicateKey(err):
			return ErrDuplicateReview
		case database.IsForeignKeyViolation(err):
			return ErrStoreNotFound
		}
		return err
	}
	created, err := r.GetByID(ctx, rv.ID)
	if err != nil {
		return err
	}
	*rv = *created
	return nil
}

// GetByID fetches a review or returns ErrReviewNotFound.
func (r *ReviewRepo) GetByID(ctx context.Context, id string) (*model.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews r LEFT JOIN users u ON u.id = r.customer_id WHERE r.id = ?", id))
	return rv, notFound(err, ErrReviewNotFound)
}

// ListByStore returns the reviews of a store, newest first.
func (r *ReviewRepo) ListByStore(ctx context.Context, storeID string) ([]*model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews r LEFT JOIN users u ON u.id = r.customer_id WHERE r.store_id = ? ORDER BY r.created_at DESC, r.id",
		storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// RatingTotals returns the rating sum and count of a store.
func (r *ReviewRepo) RatingTotals(ctx context.Context, storeID string) (sum, count int64, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(rating), 0), COUNT(*) FROM reviews WHERE store_id = ?`, storeID).Scan(&sum, &count)
	return sum, count, err
}

// Update changes rating and comment.
func (r *ReviewRepo) Update(ctx context.Context, id string, rating int, comment string) (*model.Review, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET rating = ?, comment = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, rating, comment, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes a review.
func (r *ReviewRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReviewNotFound
	}
	return nil
}
