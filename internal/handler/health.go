package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is a liveness probe for load balancers and monitoring.  It
// returns a plain text "ok" with status 200.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Root answers GET / so a browser hitting the API sees it is alive.
func Root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "JongRhanRhao backend is up and running!"})
}
