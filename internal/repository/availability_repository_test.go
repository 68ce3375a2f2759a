package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jongrhanrhao/reservation-backend/internal/model"
)

func TestAvailabilityReplaceAndRange(t *testing.T) {
	ctx := context.Background()
	db, _, store := fixture(t)
	repo := NewAvailabilityRepo(db)

	a := &model.StoreAvailability{StoreID: store.ID, Date: "2025-03-01", AvailableSeats: 30, IsReservable: true}
	require.NoError(t, repo.Replace(ctx, a))
	assert.NotZero(t, a.ID)

	a.AvailableSeats = 12
	a.IsReservable = false
	require.NoError(t, repo.Replace(ctx, a))

	got, err := repo.GetByDate(ctx, store.ID, "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, 12, got.AvailableSeats)
	assert.False(t, got.IsReservable)

	require.NoError(t, repo.Replace(ctx, &model.StoreAvailability{StoreID: store.ID, Date: "2025-03-05", AvailableSeats: 5, IsReservable: true}))
	require.NoError(t, repo.Replace(ctx, &model.StoreAvailability{StoreID: store.ID, Date: "2025-04-01", AvailableSeats: 5, IsReservable: true}))

	rows, err := repo.ListRange(ctx, store.ID, "2025-03-01", "2025-03-31")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-03-01", rows[0].Date)
	assert.Equal(t, "2025-03-05", rows[1].Date)

	require.NoError(t, repo.Delete(ctx, store.ID, "2025-03-01"))
	_, err = repo.GetByDate(ctx, store.ID, "2025-03-01")
	assert.ErrorIs(t, err, ErrAvailabilityNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, store.ID, "2025-03-01"), ErrAvailabilityNotFound)

	err = repo.Replace(ctx, &model.StoreAvailability{StoreID: "missing", Date: "2025-03-01", AvailableSeats: 1})
	assert.ErrorIs(t, err, ErrStoreNotFound)
}

func TestAvailabilityConditionalDecrement(t *testing.T) {
	ctx := context.Background()
	db, _, store := fixture(t)
	repo := NewAvailabilityRepo(db)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer rollback(tx)

	ok, err := repo.DecrementTx(ctx, tx, store.ID, "2025-03-01", 1)
	require.NoError(t, err)
	assert.False(t, ok, "no override row yet")

	require.NoError(t, repo.InsertTx(ctx, tx, store.ID, "2025-03-01", 10, true))
	assert.ErrorIs(t, repo.InsertTx(ctx, tx, store.ID, "2025-03-01", 10, true), ErrAvailabilityExists)

	ok, err = repo.DecrementTx(ctx, tx, store.ID, "2025-03-01", 11)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.DecrementTx(ctx, tx, store.ID, "2025-03-01", 10)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IncrementTx(ctx, tx, store.ID, "2025-03-01", 4)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByDateTx(ctx, tx, store.ID, "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, 4, got.AvailableSeats)
	require.NoError(t, tx.Commit())
}
