package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jongrhanrhao/reservation-backend/internal/middleware"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
	"github.com/jongrhanrhao/reservation-backend/internal/repository"
)

// FavoriteHandler manages customers' bookmarked stores.
type FavoriteHandler struct {
	Favorites *repository.FavoriteRepo
}

func NewFavoriteHandler(favorites *repository.FavoriteRepo) *FavoriteHandler {
	return &FavoriteHandler{Favorites: favorites}
}

// favoritePairReq names a (customer, store) pair.  CustomerID defaults to
// the caller.
type favoritePairReq struct {
	CustomerID string `json:"customer_id"`
	StoreID    string `json:"store_id" validate:"required"`
}

type updateFavoriteReq struct {
	StoreID string `json:"store_id" validate:"required"`
}

// customer resolves the pair's customer and checks the caller may act
// for it.
func (r *favoritePairReq) customer(c echo.Context) (string, error) {
	if r.CustomerID == "" {
		r.CustomerID = middleware.UserID(c)
	}
	return r.CustomerID, selfOrAdmin(c, r.CustomerID)
}

// List returns every favorite.  Admin only.
func (h *FavoriteHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	list, err := h.Favorites.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *FavoriteHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	f, err := h.load(ctx, c, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *FavoriteHandler) ListByCustomer(c echo.Context) error {
	id := c.Param("id")
	if err := selfOrAdmin(c, id); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	list, err := h.Favorites.ListByCustomer(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Create bookmarks a store.  A pair that already exists yields 409.
func (h *FavoriteHandler) Create(c echo.Context) error {
	var req favoritePairReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	customer, err := req.customer(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	f := &model.Favorite{CustomerID: customer, StoreID: req.StoreID}
	if err := h.Favorites.Create(ctx, f); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, f)
}

// Status reports whether the pair is bookmarked.
func (h *FavoriteHandler) Status(c echo.Context) error {
	var req favoritePairReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	customer, err := req.customer(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	ok, err := h.Favorites.Exists(ctx, customer, req.StoreID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"is_favorite": ok})
}

// Update points a favorite at another store.
func (h *FavoriteHandler) Update(c echo.Context) error {
	var req updateFavoriteReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	f, err := h.load(ctx, c, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	updated, err := h.Favorites.UpdateStore(ctx, f.ID, req.StoreID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Remove deletes the favorite of a (customer, store) pair.
func (h *FavoriteHandler) Remove(c echo.Context) error {
	var req favoritePairReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	customer, err := req.customer(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Favorites.DeleteByPair(ctx, customer, req.StoreID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *FavoriteHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	f, err := h.load(ctx, c, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Favorites.Delete(ctx, f.ID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *FavoriteHandler) load(ctx context.Context, c echo.Context, id string) (*model.Favorite, error) {
	f, err := h.Favorites.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := selfOrAdmin(c, f.CustomerID); err != nil {
		return nil, err
	}
	return f, nil
}
