package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jongrhanrhao/reservation-backend/internal/model"
	"github.com/jongrhanrhao/reservation-backend/internal/repository"
)

// UserHandler serves the user management endpoints under /users/api.
type UserHandler struct {
	Users      *repository.UserRepo
	BcryptCost int
}

func NewUserHandler(users *repository.UserRepo, bcryptCost int) *UserHandler {
	return &UserHandler{Users: users, BcryptCost: bcryptCost}
}

type createUserReq struct {
	Name     string  `json:"name" validate:"required,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Role     string  `json:"role" validate:"required,oneof=customer owner staff admin"`
	Phone    *string `json:"phone" validate:"omitempty,max=20"`
}

type updateUserReq struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=100"`
	Phone          *string `json:"phone" validate:"omitempty,max=20"`
	ProfilePicture *string `json:"profile_picture" validate:"omitempty,max=500"`
	Role           *string `json:"role" validate:"omitempty,oneof=customer owner staff admin"`
}

// List returns every user.  Admin only.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// Get returns one user to that user or an admin.
func (h *UserHandler) Get(c echo.Context) error {
	id := c.Param("id")
	if err := selfOrAdmin(c, id); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// Create adds an account with any role.  Admin only.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u := &model.User{Name: strings.TrimSpace(req.Name), Email: req.Email, Role: req.Role, Phone: req.Phone}
	if err := h.Users.Create(ctx, u, req.Password, h.BcryptCost); err != nil {
		return respondError(c, err)
	}
	created, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// Update edits the profile of the caller, or of anyone for an admin.  Only
// an admin may change a role.
func (h *UserHandler) Update(c echo.Context) error {
	id := c.Param("id")
	if err := selfOrAdmin(c, id); err != nil {
		return respondError(c, err)
	}
	var req updateUserReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.Role != nil && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only an admin can change roles"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.Update(ctx, id, repository.UserUpdate{
		Name:           req.Name,
		Phone:          req.Phone,
		ProfilePicture: req.ProfilePicture,
		Role:           req.Role,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// Delete removes a user.  Admin only.
func (h *UserHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Users.Delete(ctx, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
