package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jongrhanrhao/reservation-backend/internal/logger"
	"github.com/jongrhanrhao/reservation-backend/internal/session"
	"github.com/jongrhanrhao/reservation-backend/internal/utils"
)

// SessionReader loads a session by id.
type SessionReader interface {
	Get(ctx context.Context, id string) (*session.Session, error)
}

// AuthConfig configures Auth.  Sessions may be nil, in which case only
// bearer tokens are accepted.
type AuthConfig struct {
	JWTSecret  string
	CookieName string
	Sessions   SessionReader
}

// Auth accepts either the session cookie or an `Authorization: Bearer`
// access token and stores the user id and role in the context under
// ContextUserID and ContextRole.  Requests carrying neither get 401.
func Auth(cfg AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Sessions != nil {
				if ck, err := c.Cookie(cfg.CookieName); err == nil && ck.Value != "" {
					s, err := cfg.Sessions.Get(c.Request().Context(), ck.Value)
					switch {
					case err == nil:
						c.Set(ContextUserID, s.UserID)
						c.Set(ContextRole, s.Role)
						c.Set(ContextSessionID, s.ID)
						return next(c)
					case !errors.Is(err, session.ErrNotFound):
						logger.FromEcho(c).Error("session lookup failed", zap.Error(err))
						return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
					}
					// stale cookie: fall through to the bearer token
				}
			}

			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			claims, err := utils.ParseAccessToken(cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextRole, claims.Role)
			return next(c)
		}
	}
}
