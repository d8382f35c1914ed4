package middleware

import (
    "net/http"
    "slices"

    "github.com/labstack/echo/v4"
)

// RequireRole lets the request through only when the session role is one of
// roles.  A request without a session gets 401, a session with another role
// gets 403.  It normally runs after JWTAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role := Role(c)
            switch {
            case role == "":
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login required"})
            case !slices.Contains(roles, role):
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
