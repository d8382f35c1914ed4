package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// SessionCookie is the name of the HttpOnly cookie carrying the session token.
const SessionCookie = "session"

// Context keys set by JWTAuth.
const (
    CtxUsername = "username"
    CtxRole     = "role"
)

// JWTAuth returns an Echo middleware that validates the session token and
// injects the token's subject (username) and role claims into the request
// context.  The token is taken from the Authorization Bearer header when
// present, otherwise from the session cookie.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := tokenFromRequest(c)
            if raw == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login required"})
            }
            username, role, err := ParseSession(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            c.Set(CtxUsername, username)
            c.Set(CtxRole, role)
            return next(c)
        }
    }
}

// ParseSession verifies an HS256 session token and returns its subject and
// role claims.
func ParseSession(secret, raw string) (username, role string, err error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, echo.ErrUnauthorized
        }
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
    if err != nil || !tok.Valid {
        return "", "", echo.ErrUnauthorized
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return "", "", echo.ErrUnauthorized
    }
    username, _ = claims["sub"].(string)
    role, _ = claims["role"].(string)
    if username == "" {
        return "", "", echo.ErrUnauthorized
    }
    return username, role, nil
}

func tokenFromRequest(c echo.Context) string {
    if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
        return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
    }
    if ck, err := c.Cookie(SessionCookie); err == nil {
        return ck.Value
    }
    return ""
}
