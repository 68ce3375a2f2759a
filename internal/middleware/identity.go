package middleware

// identity.go holds the keys under which Auth stores the caller in the
// echo context, and the accessors handlers use to read them back.

import "github.com/labstack/echo/v4"

const (
	ContextUserID    = "user_id"
	ContextRole      = "role"
	ContextSessionID = "session_id"
)

// UserID returns the authenticated user's id, or "" for anonymous requests.
func UserID(c echo.Context) string {
	s, _ := c.Get(ContextUserID).(string)
	return s
}

// Role returns the authenticated user's role, or "".
func Role(c echo.Context) string {
	s, _ := c.Get(ContextRole).(string)
	return s
}

// SessionID returns the id of the cookie session, or "" when the request
// was authenticated by bearer token.
func SessionID(c echo.Context) string {
	s, _ := c.Get(ContextSessionID).(string)
	return s
}

// userKey is the identity used in rate limit keys.
func userKey(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	return "anon"
}
