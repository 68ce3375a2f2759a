package router

import (
	"github.com/labstack/echo/v4"

	"github.com/jongrhanrhao/reservation-backend/internal/handler"
	"github.com/jongrhanrhao/reservation-backend/internal/middleware"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
)

// RegisterCustomer registers favorites and reviews under /stores/api.
// Reading a store's reviews is public; everything else needs a caller.
func RegisterCustomer(e *echo.Echo, f *handler.FavoriteHandler, r *handler.ReviewHandler, g Guards) {
	api := e.Group("/stores/api", g.RateLimit)

	// ---- Favorites ----
	fav := api.Group("/favorites", g.Auth)
	fav.GET("", f.List, middleware.RequireRole(model.RoleAdmin))
	fav.POST("", f.Create)
	fav.GET("/customer/:id", f.ListByCustomer)
	fav.POST("/status", f.Status)
	fav.POST("/remove", f.Remove)
	fav.GET("/:id", f.Get)
	fav.PUT("/:id", f.Update)
	fav.DELETE("/:id", f.Delete)

	// ---- Reviews ----
	api.GET("/reviews/:id", r.ListByStore)
	api.POST("/reviews", r.Create, g.Auth)
	api.PUT("/reviews/:id", r.Update, g.Auth)
	api.DELETE("/reviews/:id", r.Delete, g.Auth)
}
