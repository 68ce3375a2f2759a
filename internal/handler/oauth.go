package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jongrhanrhao/reservation-backend/internal/logger"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
	"github.com/jongrhanrhao/reservation-backend/internal/oauth"
	"github.com/jongrhanrhao/reservation-backend/internal/repository"
)

const (
	stateCookie   = "jrr_oauth_state"
	stateMaxAge   = 10 * 60
	exchangeLimit = 10 * time.Second
)

// OAuthProvider is the part of oauth.Provider the handlers use.
type OAuthProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (oauth.Profile, error)
}

// OAuthHandler runs the authorization-code flow for the social logins and
// finishes it through AuthHandler's session handling.
type OAuthHandler struct {
	Auth      *AuthHandler
	Providers map[string]OAuthProvider
}

func NewOAuthHandler(auth *AuthHandler, providers map[string]*oauth.Provider) *OAuthHandler {
	m := make(map[string]OAuthProvider, len(providers))
	for name, p := range providers {
		m[name] = p
	}
	return &OAuthHandler{Auth: auth, Providers: m}
}

// Begin redirects to the provider's consent page with a fresh state
// stored in a short-lived cookie.
func (h *OAuthHandler) Begin(provider string) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := h.Providers[provider]
		if !ok {
			return c.JSON(http.StatusNotFound, echo.Map{"error": provider + " login is not configured"})
		}
		state, err := oauth.NewState()
		if err != nil {
			return respondError(c, err)
		}
		c.SetCookie(&http.Cookie{
			Name:     stateCookie,
			Value:    state,
			Path:     "/users/auth",
			MaxAge:   stateMaxAge,
			HttpOnly: true,
			Secure:   h.Auth.Cfg.App.IsProd(),
			SameSite: http.SameSiteLaxMode,
		})
		return c.Redirect(http.StatusTemporaryRedirect, p.AuthCodeURL(state))
	}
}

// Callback checks the state, exchanges the code and signs the user in.
// The account is found by provider id, then by email (linking it), and
// is otherwise created as a customer.
func (h *OAuthHandler) Callback(provider string) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := h.Providers[provider]
		if !ok {
			return c.JSON(http.StatusNotFound, echo.Map{"error": provider + " login is not configured"})
		}
		ck, err := c.Cookie(stateCookie)
		if err != nil || ck.Value == "" || ck.Value != c.QueryParam("state") {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid oauth state"})
		}
		c.SetCookie(&http.Cookie{Name: stateCookie, Value: "", Path: "/users/auth", MaxAge: -1, HttpOnly: true})

		if e := c.QueryParam("error"); e != "" {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login cancelled: " + e})
		}
		code := c.QueryParam("code")
		if code == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
		}

		xctx, xcancel := context.WithTimeout(c.Request().Context(), exchangeLimit)
		defer xcancel()
		prof, err := p.Exchange(xctx, code)
		if err != nil {
			if errors.Is(err, oauth.ErrNoEmail) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
			}
			logger.FromEcho(c).Warn("oauth exchange failed", zap.String("provider", provider), zap.Error(err))
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "oauth login failed"})
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
		defer cancel()

		u, err := h.resolveUser(ctx, p.Name(), prof)
		if err != nil {
			return respondError(c, err)
		}
		if _, err := h.Auth.signIn(ctx, c, u, p.Name()); err != nil {
			return respondError(c, err)
		}
		return c.Redirect(http.StatusFound, h.Auth.Cfg.OAuth.SuccessRedirect)
	}
}

func (h *OAuthHandler) resolveUser(ctx context.Context, provider string, prof oauth.Profile) (*model.User, error) {
	users := h.Auth.Users
	u, err := users.GetByProvider(ctx, provider, prof.ID)
	if err == nil || !errors.Is(err, repository.ErrUserNotFound) {
		return u, err
	}

	u, err = users.GetByEmail(ctx, prof.Email)
	switch {
	case err == nil:
		if err := users.LinkProvider(ctx, u.ID, provider, prof.ID); err != nil {
			return nil, err
		}
		return users.GetByID(ctx, u.ID)
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, err
	}

	u = &model.User{Name: prof.Name, Email: prof.Email, Role: model.RoleCustomer}
	if u.Name == "" {
		u.Name = prof.Email
	}
	if prof.Picture != "" {
		u.ProfilePicture = &prof.Picture
	}
	id := prof.ID
	switch provider {
	case oauth.Google:
		u.GoogleID = &id
	case oauth.Facebook:
		u.FacebookID = &id
	}
	if err := users.Create(ctx, u, "", 0); err != nil {
		return nil, err
	}
	return users.GetByID(ctx, u.ID)
}
