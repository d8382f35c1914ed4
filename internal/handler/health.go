package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/table-reservation/internal/repository"
)

// HealthHandler answers load balancer probes.
type HealthHandler struct {
    Restaurants repository.RestaurantStore
    Driver      string
}

// Health returns 200 when the restaurant store answers within two seconds
// and 503 otherwise.
func (h *HealthHandler) Health(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()
    n, err := h.Restaurants.Count(ctx)
    if err != nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "store": h.Driver})
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "ok", "store": h.Driver, "restaurants": n})
}
