package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jongrhanrhao/reservation-backend/internal/middleware"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
	"github.com/jongrhanrhao/reservation-backend/internal/repository"
	"github.com/jongrhanrhao/reservation-backend/internal/service"
)

// ReservationHandler serves reservations.  Writes go through the booking
// service so availability stays in step.
type ReservationHandler struct {
	Stores       *repository.StoreRepo
	Staff        *repository.StaffRepo
	Reservations *repository.ReservationRepo
	Booking      *service.BookingService
}

func NewReservationHandler(stores *repository.StoreRepo, staff *repository.StaffRepo,
	reservations *repository.ReservationRepo, booking *service.BookingService) *ReservationHandler {
	return &ReservationHandler{Stores: stores, Staff: staff, Reservations: reservations, Booking: booking}
}

type createReservationReq struct {
	StoreID       string  `json:"store_id" validate:"required"`
	CustomerID    string  `json:"customer_id"`
	TableID       *string `json:"table_id"`
	Date          string  `json:"date" validate:"required"`
	Time          string  `json:"time" validate:"required,max=10"`
	PartySize     int     `json:"party_size" validate:"required,gt=0"`
	CustomerName  string  `json:"customer_name" validate:"required,max=100"`
	CustomerPhone string  `json:"customer_phone" validate:"max=20"`
	Note          *string `json:"note" validate:"omitempty,max=500"`
}

type updateReservationReq struct {
	TableID       *string `json:"table_id"`
	Date          string  `json:"date" validate:"required"`
	Time          string  `json:"time" validate:"required,max=10"`
	PartySize     int     `json:"party_size" validate:"required,gt=0"`
	CustomerName  string  `json:"customer_name" validate:"required,max=100"`
	CustomerPhone string  `json:"customer_phone" validate:"max=20"`
	Note          *string `json:"note" validate:"omitempty,max=500"`
}

type reservationStatusReq struct {
	Status string `json:"status" validate:"required"`
}

// List returns every reservation.  Admin only.
func (h *ReservationHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	list, err := h.Reservations.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Get returns a reservation to its customer, the store's owner or staff,
// or an admin.
func (h *ReservationHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.load(ctx, c, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ReservationHandler) ListByCustomer(c echo.Context) error {
	id := c.Param("id")
	if err := selfOrAdmin(c, id); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	list, err := h.Reservations.ListByCustomer(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *ReservationHandler) ListByStore(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := storeAccess(ctx, c, h.Stores, h.Staff, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	list, err := h.Reservations.ListByStore(ctx, s.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// ListByStoreAndDate serves GET /reservations/:id/:date where id is the
// store.
func (h *ReservationHandler) ListByStoreAndDate(c echo.Context) error {
	date := c.Param("date")
	if _, err := service.ParseDate(date); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := storeAccess(ctx, c, h.Stores, h.Staff, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	list, err := h.Reservations.ListByStoreAndDate(ctx, s.ID, date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Create books seats for the caller.  An admin may book for another
// customer with customer_id.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	customer := middleware.UserID(c)
	if req.CustomerID != "" && req.CustomerID != customer {
		if !isAdmin(c) {
			return respondError(c, repository.ErrForbidden)
		}
		customer = req.CustomerID
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Booking.Book(ctx, service.BookingRequest{
		StoreID:       req.StoreID,
		CustomerID:    customer,
		TableID:       req.TableID,
		Date:          req.Date,
		Time:          req.Time,
		Seats:         req.PartySize,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		Note:          req.Note,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Update is a full edit of a reservation.
func (h *ReservationHandler) Update(c echo.Context) error {
	var req updateReservationReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.load(ctx, c, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	updated, err := h.Booking.Update(ctx, res.ID, service.ReservationUpdate{
		TableID:       req.TableID,
		Date:          req.Date,
		Time:          req.Time,
		Seats:         req.PartySize,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		Note:          req.Note,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// UpdateStatus changes only the status.  A customer may cancel their own
// reservation; other transitions belong to the store or an admin.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	var req reservationStatusReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.load(ctx, c, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if req.Status != model.ReservationCancelled {
		if _, err := storeAccess(ctx, c, h.Stores, h.Staff, res.StoreID); err != nil {
			return respondError(c, err)
		}
	}
	updated, err := h.Booking.UpdateStatus(ctx, res.ID, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *ReservationHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.load(ctx, c, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Booking.Delete(ctx, res.ID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// load fetches a reservation the caller is allowed to see.
func (h *ReservationHandler) load(ctx context.Context, c echo.Context, id string) (*model.Reservation, error) {
	if _, err := service.ParseReservationID(id); err != nil {
		return nil, err
	}
	res, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if isAdmin(c) || res.CustomerID == middleware.UserID(c) {
		return res, nil
	}
	if _, err := storeAccess(ctx, c, h.Stores, h.Staff, res.StoreID); err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return nil, repository.ErrForbidden
		}
		return nil, err
	}
	return res, nil
}
