package handler

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jongrhanrhao/reservation-backend/internal/model"
)

func TestUserGetSelfOrAdmin(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		as     *model.User
		status int
	}{
		{"self", env.customer, http.StatusOK},
		{"admin", env.admin, http.StatusOK},
		{"someone else", env.owner, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.call(t, env.userH.Get, http.MethodGet, "/", nil, tt.as, "id", env.customer.ID)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	rec := env.call(t, env.userH.Get, http.MethodGet, "/", nil, env.admin, "id", "missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserUpdate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.call(t, env.userH.Update, http.MethodPut, "/", echo.Map{"name": "Somchai", "phone": "0899999999"},
		env.customer, "id", env.customer.ID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	u := decode[model.User](t, rec)
	assert.Equal(t, "Somchai", u.Name)
	require.NotNil(t, u.Phone)
	assert.Equal(t, "0899999999", *u.Phone)

	rec = env.call(t, env.userH.Update, http.MethodPut, "/", echo.Map{"role": "admin"}, env.customer, "id", env.customer.ID)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.call(t, env.userH.Update, http.MethodPut, "/", echo.Map{"role": "owner"}, env.admin, "id", env.customer.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.RoleOwner, decode[model.User](t, rec).Role)

	rec = env.call(t, env.userH.Update, http.MethodPut, "/", echo.Map{"role": "emperor"}, env.admin, "id", env.customer.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserAdminCreateListDelete(t *testing.T) {
	env := newTestEnv(t)

	rec := env.call(t, env.userH.Create, http.MethodPost, "/", echo.Map{
		"name": "Waiter", "email": "waiter@example.com", "password": "secret123", "role": "staff",
	}, env.admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.User](t, rec)
	assert.Equal(t, model.RoleStaff, created.Role)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.call(t, env.userH.Create, http.MethodPost, "/", echo.Map{
		"name": "Waiter", "email": "waiter@example.com", "password": "secret123", "role": "staff",
	}, env.admin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.call(t, env.userH.List, http.MethodGet, "/", nil, env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.User](t, rec), 4)

	rec = env.call(t, env.userH.Delete, http.MethodDelete, "/", nil, env.admin, "id", created.ID)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.call(t, env.userH.Delete, http.MethodDelete, "/", nil, env.admin, "id", created.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
