package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jongrhanrhao/reservation-backend/internal/logger"
	"github.com/jongrhanrhao/reservation-backend/internal/middleware"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
	"github.com/jongrhanrhao/reservation-backend/internal/queue"
	"github.com/jongrhanrhao/reservation-backend/internal/repository"
	"github.com/jongrhanrhao/reservation-backend/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StoreHandler serves stores and their images, staff and export.
type StoreHandler struct {
	Stores    *repository.StoreRepo
	Images    *repository.ImageRepo
	Staff     *repository.StaffRepo
	Exporter  *service.Exporter
	Publisher service.EventPublisher
}

func NewStoreHandler(stores *repository.StoreRepo, images *repository.ImageRepo, staff *repository.StaffRepo,
	exporter *service.Exporter, pub service.EventPublisher) *StoreHandler {
	if pub == nil {
		pub = service.NopPublisher{}
	}
	return &StoreHandler{Stores: stores, Images: images, Staff: staff, Exporter: exporter, Publisher: pub}
}

type storeReq struct {
	OwnerID         string `json:"owner_id"`
	Name            string `json:"name" validate:"required,max=150"`
	Description     string `json:"description" validate:"max=2000"`
	Address         string `json:"address" validate:"required,max=255"`
	Status          string `json:"status" validate:"omitempty,oneof=open closed"`
	DefaultSeats    int    `json:"default_seats" validate:"gte=0"`
	MinAge          int    `json:"min_age" validate:"gte=0"`
	MaxAge          int    `json:"max_age" validate:"gte=0"`
	IsPopular       bool   `json:"is_popular"`
	OpenTimeBooking string `json:"open_time_booking" validate:"max=50"`
	CancelReserve   string `json:"cancel_reserve" validate:"max=50"`
}

func (r storeReq) apply(s *model.Store) {
	s.Name = strings.TrimSpace(r.Name)
	s.Description = r.Description
	s.Address = r.Address
	s.Status = r.Status
	if s.Status == "" {
		s.Status = model.StoreStatusOpen
	}
	s.DefaultSeats = r.DefaultSeats
	s.MinAge = r.MinAge
	s.MaxAge = r.MaxAge
	s.IsPopular = r.IsPopular
	s.OpenTimeBooking = r.OpenTimeBooking
	s.CancelReserve = r.CancelReserve
}

type imagesReq struct {
	StoreID string   `json:"store_id" validate:"required"`
	URLs    []string `json:"urls" validate:"required,min=1,dive,required,max=500"`
}

type staffReq struct {
	UserID string `json:"user_id" validate:"required"`
}

// List returns stores, optionally filtered by ?status= and ?q= (name
// contains).
func (h *StoreHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	stores, err := h.Stores.List(ctx, repository.StoreFilter{
		Status: strings.TrimSpace(c.QueryParam("status")),
		Query:  c.QueryParam("q"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stores)
}

// Popular returns the stores flagged popular, most favorited first.
func (h *StoreHandler) Popular(c echo.Context) error {
	limit := 10
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be between 1 and 100"})
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	stores, err := h.Stores.ListPopular(ctx, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stores)
}

func (h *StoreHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := h.Stores.GetByID(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// ListByOwner returns the stores owned by the user in the path.
func (h *StoreHandler) ListByOwner(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	stores, err := h.Stores.ListByOwner(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stores)
}

// Create adds a store owned by the caller.  An admin may create it on
// behalf of another user with owner_id.
func (h *StoreHandler) Create(c echo.Context) error {
	var req storeReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	owner := middleware.UserID(c)
	if req.OwnerID != "" && req.OwnerID != owner {
		if !isAdmin(c) {
			return respondError(c, repository.ErrForbidden)
		}
		owner = req.OwnerID
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s := &model.Store{OwnerID: owner}
	req.apply(s)
	if err := h.Stores.Create(ctx, s); err != nil {
		return respondError(c, err)
	}
	h.publish(c, queue.ActionCreated, s)
	return c.JSON(http.StatusCreated, s)
}

// Update replaces the editable fields of a store.  Owner or admin.
func (h *StoreHandler) Update(c echo.Context) error {
	var req storeReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := storeAccess(ctx, c, h.Stores, nil, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	req.apply(s)
	if err := h.Stores.Update(ctx, s); err != nil {
		return respondError(c, err)
	}
	h.publish(c, queue.ActionUpdated, s)
	return c.JSON(http.StatusOK, s)
}

// Delete removes a store with everything attached to it.  Owner or admin.
func (h *StoreHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := storeAccess(ctx, c, h.Stores, nil, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Stores.Delete(ctx, s.ID); err != nil {
		return respondError(c, err)
	}
	h.publish(c, queue.ActionDeleted, s)
	return c.NoContent(http.StatusNoContent)
}

// AddImages attaches image URLs to a store.
func (h *StoreHandler) AddImages(c echo.Context) error {
	var req imagesReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if _, err := storeAccess(ctx, c, h.Stores, h.Staff, req.StoreID); err != nil {
		return respondError(c, err)
	}
	imgs, err := h.Images.AddMany(ctx, req.StoreID, req.URLs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, imgs)
}

func (h *StoreHandler) ListImages(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	id := c.Param("id")
	if _, err := h.Stores.GetByID(ctx, id); err != nil {
		return respondError(c, err)
	}
	imgs, err := h.Images.ListByStore(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, imgs)
}

// ListStaff returns the staff of a store to its owner, staff or an admin.
func (h *StoreHandler) ListStaff(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := storeAccess(ctx, c, h.Stores, h.Staff, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	staff, err := h.Staff.List(ctx, s.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, staff)
}

// AddStaff assigns a user to a store.  Owner or admin.
func (h *StoreHandler) AddStaff(c echo.Context) error {
	var req staffReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := storeAccess(ctx, c, h.Stores, nil, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Staff.Add(ctx, s.ID, req.UserID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"store_id": s.ID, "user_id": req.UserID})
}

// RemoveStaff unassigns a user from a store.  Owner or admin.
func (h *StoreHandler) RemoveStaff(c echo.Context) error {
	var req staffReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := storeAccess(ctx, c, h.Stores, nil, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Staff.Remove(ctx, s.ID, req.UserID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ExportReservations downloads the store's reservations as an XLSX file.
func (h *StoreHandler) ExportReservations(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if _, err := storeAccess(ctx, c, h.Stores, h.Staff, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	s, buf, err := h.Exporter.ExportStoreReservations(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	name := fmt.Sprintf("reservations-%s-%s.xlsx", s.ID, time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *StoreHandler) publish(c echo.Context, action string, s *model.Store) {
	ev := queue.StoreEvent{
		Type:       queue.TypeStoreUpdate,
		Action:     action,
		StoreID:    s.ID,
		OwnerID:    s.OwnerID,
		Name:       s.Name,
		OccurredAt: time.Now().UTC(),
	}
	if err := h.Publisher.PublishStore(c.Request().Context(), ev); err != nil {
		logger.FromEcho(c).Warn("publish store event failed",
			zap.String("store_id", s.ID), zap.String("action", action), zap.Error(err))
	}
}
