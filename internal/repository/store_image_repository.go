package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/jongrhanrhao/reservation-backend/internal/database"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
)

// ImageRepo stores image URLs attached to stores.
type ImageRepo struct {
	db *sql.DB
}

func NewImageRepo(db *sql.DB) *ImageRepo {
	return &ImageRepo{db: db}
}

// AddMany inserts one row per URL in a single transaction.
func (r *ImageRepo) AddMany(ctx context.Context, storeID string, urls []string) ([]*model.StoreImage, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer rollback(tx)

	ids := make([]string, 0, len(urls))
	for _, u := range urls {
		id := uuid.NewString()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO store_images (id, store_id, url) VALUES (?, ?, ?)`, id, storeID, u); err != nil {
			if database.IsForeignKeyViolation(err) {
				return nil, ErrStoreNotFound
			}
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	all, err := r.ListByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	out := make([]*model.StoreImage, 0, len(ids))
	for _, img := range all {
		if wanted[img.ID] {
			out = append(out, img)
		}
	}
	return out, nil
}

// ListByStore returns a store's images, oldest first.
func (r *ImageRepo) ListByStore(ctx context.Context, storeID string) ([]*model.StoreImage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, store_id, url, created_at FROM store_images WHERE store_id = ? ORDER BY created_at, id`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.StoreImage{}
	for rows.Next() {
		img := new(model.StoreImage)
		if err := rows.Scan(&img.ID, &img.StoreID, &img.URL, &img.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}
