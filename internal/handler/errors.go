package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/table-reservation/internal/repository"
    "github.com/iliyamo/table-reservation/internal/reservation"
    "github.com/iliyamo/table-reservation/internal/slots"
    "github.com/iliyamo/table-reservation/internal/utils"
)

// dbTimeout bounds every store call made from a handler.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (int64, bool) {
    id, err := strconv.ParseInt(c.Param(name), 10, 64)
    if err != nil || id <= 0 {
        return 0, false
    }
    return id, true
}

// bindAndValidate binds the request into dst and runs the struct rules.
func bindAndValidate(c echo.Context, dst any) error {
    if err := c.Bind(dst); err != nil {
        return &ValidationError{Field: "body", Message: "invalid body"}
    }
    return c.Validate(dst)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
    var ve *ValidationError
    switch {
    case errors.As(err, &ve),
        errors.Is(err, slots.ErrInvalidQuantity),
        errors.Is(err, reservation.ErrInvalidRestaurant),
        errors.Is(err, utils.ErrUnsupportedImage),
        errors.Is(err, utils.ErrPasswordTooShort):
        return http.StatusBadRequest
    case errors.Is(err, repository.ErrNotFound):
        return http.StatusNotFound
    case errors.Is(err, reservation.ErrForbidden):
        return http.StatusForbidden
    case errors.Is(err, slots.ErrInvalidSlot),
        errors.Is(err, slots.ErrInsufficientCapacity),
        errors.Is(err, reservation.ErrInvalidTransition),
        errors.Is(err, repository.ErrUsernameTaken):
        return http.StatusConflict
    case errors.Is(err, context.DeadlineExceeded):
        return http.StatusServiceUnavailable
    }
    return http.StatusInternalServerError
}

// writeError responds with {"error": msg}.  Unexpected errors are logged and
// hidden behind a generic message.
func writeError(c echo.Context, log *zerolog.Logger, err error) error {
    status := statusFor(err)
    if status >= http.StatusInternalServerError {
        log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
        return c.JSON(status, echo.Map{"error": "internal error"})
    }
    return c.JSON(status, echo.Map{"error": err.Error()})
}
