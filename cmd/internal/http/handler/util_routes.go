package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthCheck is polled by the Docker Compose healthcheck.
func HealthCheck(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}
