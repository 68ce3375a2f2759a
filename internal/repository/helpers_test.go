package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jongrhanrhao/reservation-backend/internal/database/dbtest"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
)

func newUser(t *testing.T, db *sql.DB, email, role string) *model.User {
	t.Helper()
	u := &model.User{Name: "user " + email, Email: email, Role: role}
	require.NoError(t, NewUserRepo(db).Create(context.Background(), u, "secret1", bcrypt.MinCost))
	return u
}

func newStore(t *testing.T, db *sql.DB, ownerID, name string, seats int) *model.Store {
	t.Helper()
	s := &model.Store{OwnerID: ownerID, Name: name, DefaultSeats: seats}
	require.NoError(t, NewStoreRepo(db).Create(context.Background(), s))
	return s
}

func fixture(t *testing.T) (*sql.DB, *model.User, *model.Store) {
	t.Helper()
	db := dbtest.New(t)
	owner := newUser(t, db, "owner@example.com", model.RoleOwner)
	store := newStore(t, db, owner.ID, "Baan Suan", 50)
	return db, owner, store
}
