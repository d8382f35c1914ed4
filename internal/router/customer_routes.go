package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/model"
)

// RegisterCustomer registers booking endpoints.  All routes require a valid
// session; both customers and the admin may book and cancel.  limit is
// applied to booking attempts after authentication so buckets are per user.
//
// The routes share no path prefix, so the middleware is attached per route
// rather than through a root group (which would also claim unknown paths).
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	auth := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
	}
	e.GET("/profile/bookings", h.MyBookings, auth...)
	e.GET("/restaurant/:id/book", h.BookingOptions, auth...)
	e.POST("/restaurant/:id/book", h.Book, append(auth, limit)...)
	e.POST("/cancel_booking/:id", h.Cancel, auth...)
}
