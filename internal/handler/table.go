package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jongrhanrhao/reservation-backend/internal/model"
	"github.com/jongrhanrhao/reservation-backend/internal/repository"
)

// TableHandler manages the tables of a store.
type TableHandler struct {
	Stores *repository.StoreRepo
	Tables *repository.TableRepo
}

func NewTableHandler(stores *repository.StoreRepo, tables *repository.TableRepo) *TableHandler {
	return &TableHandler{Stores: stores, Tables: tables}
}

type createTableReq struct {
	StoreID     string `json:"store_id" validate:"required"`
	TableNumber int    `json:"table_number" validate:"required,gt=0"`
	Capacity    int    `json:"capacity" validate:"required,gt=0"`
	Status      string `json:"status" validate:"omitempty,oneof=available reserved unavailable"`
}

type updateTableReq struct {
	TableNumber int    `json:"table_number" validate:"required,gt=0"`
	Capacity    int    `json:"capacity" validate:"required,gt=0"`
	Status      string `json:"status" validate:"required,oneof=available reserved unavailable"`
}

// ListByStore returns the tables of the store in the path.
func (h *TableHandler) ListByStore(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	id := c.Param("id")
	if _, err := h.Stores.GetByID(ctx, id); err != nil {
		return respondError(c, err)
	}
	tables, err := h.Tables.ListByStore(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tables)
}

// List returns every table.  Admin only.
func (h *TableHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	tables, err := h.Tables.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tables)
}

func (h *TableHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	t, err := h.Tables.GetByID(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Create adds a table to a store.  Owner or admin.
func (h *TableHandler) Create(c echo.Context) error {
	var req createTableReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if _, err := storeAccess(ctx, c, h.Stores, nil, req.StoreID); err != nil {
		return respondError(c, err)
	}
	t := &model.Table{StoreID: req.StoreID, TableNumber: req.TableNumber, Capacity: req.Capacity, Status: req.Status}
	if err := h.Tables.Create(ctx, t); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// Update changes number, capacity and status of a table.
func (h *TableHandler) Update(c echo.Context) error {
	var req updateTableReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	t, err := h.authorize(ctx, c, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	t.TableNumber = req.TableNumber
	t.Capacity = req.Capacity
	t.Status = req.Status
	if err := h.Tables.Update(ctx, t); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TableHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	t, err := h.authorize(ctx, c, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Tables.Delete(ctx, t.ID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// authorize loads a table and checks the caller manages its store.
func (h *TableHandler) authorize(ctx context.Context, c echo.Context, id string) (*model.Table, error) {
	t, err := h.Tables.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := storeAccess(ctx, c, h.Stores, nil, t.StoreID); err != nil {
		return nil, err
	}
	return t, nil
}
