package middleware

// identity.go holds the accessors for the identity JWTAuth stores in the
// Echo context.  Handlers and the rate limiter use them instead of poking
// at context keys directly.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/table-reservation/internal/model"
)

// Username returns the authenticated username, or "" for guests.
func Username(c echo.Context) string {
    s, _ := c.Get(CtxUsername).(string)
    return s
}

// Role returns the authenticated role, or "" for guests.
func Role(c echo.Context) string {
    s, _ := c.Get(CtxRole).(string)
    return s
}

// IsAdmin reports whether the request carries the admin role.
func IsAdmin(c echo.Context) bool {
    return Role(c) == model.RoleAdmin
}

// userKey identifies the caller for rate limiting; guests share "anon".
func userKey(c echo.Context) string {
    if u := Username(c); u != "" {
        return u
    }
    return "anon"
}
