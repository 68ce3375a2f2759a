package router

import (
	"github.com/labstack/echo/v4"

	"github.com/jongrhanrhao/reservation-backend/internal/handler"
	"github.com/jongrhanrhao/reservation-backend/internal/middleware"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
)

// RegisterReservations registers /stores/api/reservations.  Every route
// needs an authenticated caller; the handlers decide who may see or change
// a given reservation.
func RegisterReservations(e *echo.Echo, r *handler.ReservationHandler, g Guards) {
	grp := e.Group("/stores/api/reservations", g.RateLimit, g.Auth)

	grp.GET("", r.List, middleware.RequireRole(model.RoleAdmin))
	grp.POST("", r.Create)
	grp.GET("/customer/:id", r.ListByCustomer)
	grp.GET("/store/:id", r.ListByStore)
	grp.PUT("/status/:id", r.UpdateStatus)
	grp.GET("/:id", r.Get)
	grp.GET("/:id/:date", r.ListByStoreAndDate)
	grp.PUT("/:id", r.Update)
	grp.DELETE("/:id", r.Delete)
}
