package router

import (
	"github.com/labstack/echo/v4"

	"github.com/jongrhanrhao/reservation-backend/internal/middleware"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
)

// RegisterStores registers stores with their images, staff, availability
// and tables under /stores/api.  Public reads are cached and store writes
// flush that cache; writes require a session or bearer token and the
// handlers check ownership.
func RegisterStores(e *echo.Echo, d Deps, g Guards) {
	api := e.Group("/stores/api", g.RateLimit)
	s, a, t := d.Stores, d.Availability, d.Tables

	// ---- Public reads ----
	api.GET("/stores", s.List, g.Cache)
	api.GET("/stores/popular", s.Popular, g.Cache)
	api.GET("/stores/user/:id", s.ListByOwner, g.Cache)
	api.GET("/stores/:id", s.Get, g.Cache)
	api.GET("/stores/:id/images", s.ListImages, g.Cache)
	api.GET("/stores/:id/tables", t.ListByStore)
	api.GET("/stores/:id/availability", a.Get)

	// ---- Stores ----
	manage := middleware.RequireRole(model.RoleOwner, model.RoleAdmin)
	api.POST("/stores", s.Create, g.Auth, manage, g.Invalidate)
	api.PUT("/stores/:id", s.Update, g.Auth, g.Invalidate)
	api.DELETE("/stores/:id", s.Delete, g.Auth, g.Invalidate)
	api.POST("/stores/add-store-images", s.AddImages, g.Auth, g.Invalidate)
	api.GET("/stores/:id/reservations/export", s.ExportReservations, g.Auth)

	// ---- Staff ----
	api.GET("/stores/:id/staff", s.ListStaff, g.Auth)
	api.POST("/stores/:id/staff", s.AddStaff, g.Auth)
	api.DELETE("/stores/:id/staff", s.RemoveStaff, g.Auth)

	// ---- Availability overrides ----
	api.POST("/stores/:id/availability", a.Set, g.Auth)
	api.DELETE("/stores/:id/availability/:date", a.Delete, g.Auth)

	// ---- Tables ----
	api.GET("/tables", t.List, g.Auth, middleware.RequireRole(model.RoleAdmin))
	api.GET("/tables/:id", t.Get)
	api.POST("/tables", t.Create, g.Auth)
	api.PUT("/tables/:id", t.Update, g.Auth)
	api.DELETE("/tables/:id", t.Delete, g.Auth)
}
