package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jongrhanrhao/reservation-backend/internal/config"
	"github.com/jongrhanrhao/reservation-backend/internal/logger"
	"github.com/jongrhanrhao/reservation-backend/internal/middleware"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
	"github.com/jongrhanrhao/reservation-backend/internal/repository"
	"github.com/jongrhanrhao/reservation-backend/internal/session"
	"github.com/jongrhanrhao/reservation-backend/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.  Sessions is nil
// when redis is unavailable; the API then works with bearer tokens only.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Tokens   *repository.TokenRepo
	Sessions *session.Manager
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, s *session.Manager) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Sessions: s}
}

// ----- DTOs -----

type registerReq struct {
	Name     string  `json:"name" validate:"required,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Phone    *string `json:"phone" validate:"omitempty,max=20"`
	Role     string  `json:"role" validate:"omitempty,oneof=customer owner"`
}
type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	User    *model.User      `json:"user"`
	Session *session.Session `json:"session,omitempty"`
	Access  tokenPart        `json:"access"`
	Refresh tokenPart        `json:"refresh"`
}

// Register creates a local account, starts a session and returns tokens.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	role := req.Role
	if role == "" {
		role = model.RoleCustomer
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u := &model.User{Name: strings.TrimSpace(req.Name), Email: req.Email, Role: role, Phone: req.Phone}
	if err := h.Users.Create(ctx, u, req.Password, h.Cfg.Auth.BcryptCost); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return respondError(c, err)
	}

	resp, err := h.signIn(ctx, c, u, "local")
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login verifies local credentials, sets the session cookie and returns a
// fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return respondError(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
	}

	resp, err := h.signIn(ctx, c, u, "local")
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// signIn starts a cookie session when sessions are enabled and issues an
// access/refresh pair.
func (h *AuthHandler) signIn(ctx context.Context, c echo.Context, u *model.User, provider string) (*authResp, error) {
	resp := &authResp{User: u}
	if h.Sessions != nil {
		s, err := h.Sessions.Create(ctx, u.ID, u.Role, provider)
		if err != nil {
			return nil, err
		}
		h.setSessionCookie(c, s.ID, int(h.Sessions.TTL().Seconds()))
		resp.Session = s
	}

	access, err := utils.NewAccessToken(h.Cfg.Auth.JWTSecret, u.ID, u.Role, h.Cfg.Auth.AccessTTLMin)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.Auth.RefreshTTLDays)
	if err != nil {
		return nil, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, err
	}
	resp.Access = tokenPart{Token: access.Token, Expires: access.Exp}
	resp.Refresh = tokenPart{Token: refresh.Raw, Expires: refresh.Exp} // raw back to client
	return resp, nil
}

// setSessionCookie writes the session cookie; maxAge < 0 deletes it.
func (h *AuthHandler) setSessionCookie(c echo.Context, value string, maxAge int) {
	c.SetCookie(&http.Cookie{
		Name:     h.Cfg.Auth.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.Cfg.App.IsProd(),
		SameSite: http.SameSiteLaxMode,
	})
}

// Refresh exchanges a live refresh token for a new access/refresh pair.
// The old token is revoked in the same transaction that stores the new one.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	newRef, err := utils.NewRefreshToken(h.Cfg.Auth.RefreshTTLDays)
	if err != nil {
		return respondError(c, err)
	}
	userID, err := h.Tokens.Rotate(ctx, hash, utils.HashRefreshRaw(newRef.Raw), newRef.Exp)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshInvalid) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return respondError(c, err)
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return respondError(c, err)
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
	}

	access, err := utils.NewAccessToken(h.Cfg.Auth.JWTSecret, u.ID, u.Role, h.Cfg.Auth.AccessTTLMin)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, authResp{
		User:    u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: newRef.Raw, Expires: newRef.Exp},
	})
}

// Logout ends the caller's cookie session and clears the cookie.  When the
// request carries a bearer token every refresh token of the user is
// revoked as well; a refresh_token in the body revokes just that one.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if sid := middleware.SessionID(c); sid != "" && h.Sessions != nil {
		if err := h.Sessions.Destroy(ctx, sid); err != nil {
			logger.FromEcho(c).Warn("destroy session failed", zap.String("session_id", sid), zap.Error(err))
		}
	}
	h.setSessionCookie(c, "", -1)

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ") {
		if err := h.Tokens.RevokeAllForUser(ctx, middleware.UserID(c)); err != nil {
			return respondError(c, err)
		}
	}
	if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
		if err := h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw)); err != nil {
			return respondError(c, err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// Session describes the cookie session the request was made with.
func (h *AuthHandler) Session(c echo.Context) error {
	sid := middleware.SessionID(c)
	if sid == "" || h.Sessions == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no active session"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := h.Sessions.Get(ctx, sid)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no active session"})
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}
