package handler

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jongrhanrhao/reservation-backend/internal/model"
)

func TestTableLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.call(t, env.tableH.Create, http.MethodPost, "/", echo.Map{
		"store_id": env.store.ID, "table_number": 1, "capacity": 4,
	}, env.customer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.call(t, env.tableH.Create, http.MethodPost, "/", echo.Map{
		"store_id": env.store.ID, "table_number": 1, "capacity": 4,
	}, env.owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	table := decode[model.Table](t, rec)
	assert.Equal(t, model.TableAvailable, table.Status)

	rec = env.call(t, env.tableH.Create, http.MethodPost, "/", echo.Map{
		"store_id": env.store.ID, "table_number": 1, "capacity": 2,
	}, env.owner)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.call(t, env.tableH.Create, http.MethodPost, "/", echo.Map{
		"store_id": env.store.ID, "table_number": 2, "capacity": 0,
	}, env.owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.call(t, env.tableH.Update, http.MethodPut, "/", echo.Map{
		"table_number": 1, "capacity": 6, "status": "reserved",
	}, env.owner, "id", table.ID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[model.Table](t, rec)
	assert.Equal(t, 6, updated.Capacity)
	assert.Equal(t, model.TableReserved, updated.Status)

	rec = env.call(t, env.tableH.ListByStore, http.MethodGet, "/", nil, nil, "id", env.store.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Table](t, rec), 1)

	rec = env.call(t, env.tableH.Get, http.MethodGet, "/", nil, nil, "id", table.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, decode[model.Table](t, rec).Capacity)
	rec = env.call(t, env.tableH.Get, http.MethodGet, "/", nil, nil, "id", "missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.call(t, env.tableH.List, http.MethodGet, "/", nil, env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Table](t, rec), 1)

	rec = env.call(t, env.tableH.Delete, http.MethodDelete, "/", nil, env.customer, "id", table.ID)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.call(t, env.tableH.Delete, http.MethodDelete, "/", nil, env.admin, "id", table.ID)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.call(t, env.tableH.Delete, http.MethodDelete, "/", nil, env.admin, "id", table.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
