package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jongrhanrhao/reservation-backend/internal/model"
	"github.com/jongrhanrhao/reservation-backend/internal/repository"
	"github.com/jongrhanrhao/reservation-backend/internal/service"
)

// AvailabilityHandler reads and edits per-date seat availability.
type AvailabilityHandler struct {
	Stores       *repository.StoreRepo
	Staff        *repository.StaffRepo
	Availability *service.AvailabilityService
}

func NewAvailabilityHandler(stores *repository.StoreRepo, staff *repository.StaffRepo, svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{Stores: stores, Staff: staff, Availability: svc}
}

type availabilityReq struct {
	Date           string `json:"date" validate:"required"`
	AvailableSeats *int   `json:"available_seats" validate:"required,gte=0"`
	IsReservable   *bool  `json:"is_reservable"`
}

type availabilityResp struct {
	StoreID   string                   `json:"store_id"`
	StartDate string                   `json:"start_date"`
	EndDate   string                   `json:"end_date"`
	Days      []*model.DayAvailability `json:"days"`
}

// Get resolves availability for each day in ?startDate..?endDate.  Start
// defaults to today and end to start.
func (h *AvailabilityHandler) Get(c echo.Context) error {
	start, end, err := h.Availability.ParseRange(c.QueryParam("startDate"), c.QueryParam("endDate"))
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	storeID := c.Param("id")
	days, err := h.Availability.ResolveRange(ctx, storeID, start, end)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, availabilityResp{StoreID: storeID, StartDate: start, EndDate: end, Days: days})
}

// Set replaces the override for one date.  Owner, staff or admin.
func (h *AvailabilityHandler) Set(c echo.Context) error {
	var req availabilityReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := storeAccess(ctx, c, h.Stores, h.Staff, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	a := &model.StoreAvailability{
		StoreID:        s.ID,
		Date:           req.Date,
		AvailableSeats: *req.AvailableSeats,
		IsReservable:   true,
	}
	if req.IsReservable != nil {
		a.IsReservable = *req.IsReservable
	}
	if err := h.Availability.SetOverride(ctx, a); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// Delete drops the override for a date so the store default applies.
func (h *AvailabilityHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := storeAccess(ctx, c, h.Stores, h.Staff, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Availability.DeleteOverride(ctx, s.ID, c.Param("date")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
