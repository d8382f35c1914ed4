package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
)

// RequestLogger tags every request with an X-Request-ID (reusing the
// client's when present) and logs method, path, status and latency once
// the handler returns.
func RequestLogger(log *zerolog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            req := c.Request()
            rid := req.Header.Get(echo.HeaderXRequestID)
            if rid == "" {
                rid = uuid.NewString()
            }
            c.Response().Header().Set(echo.HeaderXRequestID, rid)

            err := next(c)
            if err != nil {
                c.Error(err)
            }

            status := c.Response().Status
            ev := log.Info()
            switch {
            case status >= 500:
                ev = log.Error().Err(err)
            case status >= 400:
                ev = log.Warn()
            }
            ev.Str("request_id", rid).
                Str("method", req.Method).
                Str("path", req.URL.Path).
                Int("status", status).
                Dur("latency", time.Since(start)).
                Str("ip", c.RealIP()).
                Str("user", Username(c)).
                Msg("request")
            return nil
        }
    }
}
