package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/model"
)

// RegisterAdmin registers the admin panel.  Every route requires the ADMIN
// role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	admin := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	}
	g := e.Group("/admin_dashboard", admin...)
	g.GET("", h.Dashboard)
	g.POST("/add", h.AddRestaurant)
	g.POST("/bookings/:id/complete", h.CompleteBooking)

	e.POST("/delete_restaurant/:id", h.DeleteRestaurant, admin...)
	e.POST("/update_slots", h.UpdateSlots, admin...)
}
