package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mcastillo/reqtx/internal/infrastructure/database"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// RegisterHealthRoutes registers health check endpoints.
// these are public and don't require authentication.
func RegisterHealthRoutes(e *echo.Echo, db *database.Connection) {
	e.GET("/health", healthHandler)
	e.GET("/ready", readyHandler(db))
}

// healthHandler returns the basic health status.
// used for liveness probes.
func healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: "reqtx",
	})
}

// readyHandler returns the readiness status.
// used for readiness probes: ready only when the database answers.
func readyHandler(db *database.Connection) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := db.HealthCheck(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, HealthResponse{
				Status:  "degraded",
				Service: "reqtx",
			})
		}
		return c.JSON(http.StatusOK, HealthResponse{
			Status:  "ready",
			Service: "reqtx",
		})
	}
}
