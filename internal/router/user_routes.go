package router

import (
	"github.com/labstack/echo/v4"

	"github.com/jongrhanrhao/reservation-backend/internal/handler"
	"github.com/jongrhanrhao/reservation-backend/internal/middleware"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
)

// RegisterUsers registers user management under /users/api.  Listing,
// creating and deleting accounts is for admins; a user may read and edit
// their own profile.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, g Guards) {
	grp := e.Group("/users/api", g.RateLimit, g.Auth)
	admin := middleware.RequireRole(model.RoleAdmin)

	grp.GET("/users", u.List, admin)
	grp.POST("/users", u.Create, admin)
	grp.GET("/users/:id", u.Get)
	grp.PUT("/users/:id", u.Update)
	grp.DELETE("/users/:id", u.Delete, admin)
}
