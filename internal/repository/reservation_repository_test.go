package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jongrhanrhao/reservation-backend/internal/model"
)

func insertReservation(t *testing.T, db *sql.DB, res *model.Reservation) {
	t.Helper()
	ctx := context.Background()
	repo := NewReservationRepo(db)
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer rollback(tx)

	seq, err := repo.InsertTx(ctx, tx, res)
	require.NoError(t, err)
	res.Seq = seq
	res.ID = fmt.Sprintf("T%04d", seq)
	require.NoError(t, repo.SetIDTx(ctx, tx, seq, res.ID))
	require.NoError(t, tx.Commit())
}

func TestReservationInsertAndQuery(t *testing.T) {
	ctx := context.Background()
	db, _, store := fixture(t)
	customer := newUser(t, db, "c@example.com", model.RoleCustomer)
	repo := NewReservationRepo(db)

	first := &model.Reservation{CustomerID: customer.ID, StoreID: store.ID, Date: "2025-03-01", Time: "18:00",
		Status: model.ReservationPending, PartySize: 4, CustomerName: "Nok"}
	second := &model.Reservation{CustomerID: customer.ID, StoreID: store.ID, Date: "2025-03-02", Time: "19:00",
		Status: model.ReservationPending, PartySize: 2}
	insertReservation(t, db, first)
	insertReservation(t, db, second)
	assert.Equal(t, first.Seq+1, second.Seq)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nok", got.CustomerName)
	assert.Equal(t, "2025-03-01", got.Date)
	assert.Nil(t, got.TableID)

	_, err = repo.GetByID(ctx, "JRR9999")
	assert.ErrorIs(t, err, ErrReservationNotFound)

	byStore, err := repo.ListByStore(ctx, store.ID)
	require.NoError(t, err)
	assert.Len(t, byStore, 2)

	byDate, err := repo.ListByStoreAndDate(ctx, store.ID, "2025-03-02")
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, second.ID, byDate[0].ID)

	n, err := repo.CountByStoreAndDate(ctx, store.ID, "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	mine, err := repo.ListByCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestReservationUnknownTable(t *testing.T) {
	ctx := context.Background()
	db, _, store := fixture(t)
	customer := newUser(t, db, "c@example.com", model.RoleCustomer)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer rollback(tx)

	table := "missing"
	_, err = NewReservationRepo(db).InsertTx(ctx, tx, &model.Reservation{CustomerID: customer.ID, StoreID: store.ID,
		TableID: &table, Date: "2025-03-01", Status: model.ReservationPending, PartySize: 2})
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestReservationUpdateGuards(t *testing.T) {
	ctx := context.Background()
	db, _, store := fixture(t)
	customer := newUser(t, db, "c@example.com", model.RoleCustomer)
	repo := NewReservationRepo(db)

	res := &model.Reservation{CustomerID: customer.ID, StoreID: store.ID, Date: "2025-03-01", Time: "18:00",
		Status: model.ReservationPending, PartySize: 4}
	insertReservation(t, db, res)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer rollback(tx)

	next := *res
	next.PartySize = 6
	require.NoError(t, repo.UpdateTx(ctx, tx, res, &next))

	// res is now stale
	stale := next
	stale.PartySize = 8
	assert.ErrorIs(t, repo.UpdateTx(ctx, tx, res, &stale), ErrConflict)

	ok, err := repo.UpdateStatusTx(ctx, tx, res.ID, model.ReservationPending, model.ReservationConfirmed)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.UpdateStatusTx(ctx, tx, res.ID, model.ReservationPending, model.ReservationCancelled)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByIDTx(ctx, tx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.PartySize)
	assert.Equal(t, model.ReservationConfirmed, got.Status)

	require.NoError(t, repo.DeleteTx(ctx, tx, res.ID))
	assert.ErrorIs(t, repo.DeleteTx(ctx, tx, res.ID), ErrReservationNotFound)
	require.NoError(t, tx.Commit())
}
