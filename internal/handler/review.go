package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jongrhanrhao/reservation-backend/internal/middleware"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
	"github.com/jongrhanrhao/reservation-backend/internal/repository"
	"github.com/jongrhanrhao/reservation-backend/internal/service"
)

// ReviewHandler serves store reviews.
type ReviewHandler struct {
	Users   *repository.UserRepo
	Stores  *repository.StoreRepo
	Reviews *repository.ReviewRepo
	Summary *service.ReviewService
}

func NewReviewHandler(users *repository.UserRepo, stores *repository.StoreRepo, reviews *repository.ReviewRepo, summary *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{Users: users, Stores: stores, Reviews: reviews, Summary: summary}
}

type createReviewReq struct {
	CustomerID string `json:"customer_id"`
	StoreID    string `json:"store_id" validate:"required"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	Comment    string `json:"comment" validate:"max=2000"`
}

type updateReviewReq struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// Create posts the caller's review of a store.  One review per customer
// and store.
func (h *ReviewHandler) Create(c echo.Context) error {
	var req createReviewReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.CustomerID == "" {
		req.CustomerID = middleware.UserID(c)
	}
	if err := selfOrAdmin(c, req.CustomerID); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, req.CustomerID); err != nil {
		return respondError(c, err)
	}
	if _, err := h.Stores.GetByID(ctx, req.StoreID); err != nil {
		return respondError(c, err)
	}
	rv := &model.Review{CustomerID: req.CustomerID, StoreID: req.StoreID, Rating: req.Rating, Comment: req.Comment}
	if err := h.Reviews.Create(ctx, rv); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, rv)
}

// ListByStore returns the store's reviews with the average rating.
func (h *ReviewHandler) ListByStore(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	sum, err := h.Summary.StoreReviews(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}

// Update edits a review.  Author or admin.
func (h *ReviewHandler) Update(c echo.Context) error {
	var req updateReviewReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	rv, err := h.load(ctx, c, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	updated, err := h.Reviews.Update(ctx, rv.ID, req.Rating, req.Comment)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete removes a review.  Author or admin.
func (h *ReviewHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	rv, err := h.load(ctx, c, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Reviews.Delete(ctx, rv.ID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ReviewHandler) load(ctx context.Context, c echo.Context, id string) (*model.Review, error) {
	rv, err := h.Reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := selfOrAdmin(c, rv.CustomerID); err != nil {
		return nil, err
	}
	return rv, nil
}
