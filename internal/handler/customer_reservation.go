package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/table-reservation/internal/middleware"
    "github.com/iliyamo/table-reservation/internal/model"
    "github.com/iliyamo/table-reservation/internal/reservation"
)

// CustomerHandler serves booking endpoints for logged-in users.  All
// methods assume JWTAuth already ran.
type CustomerHandler struct {
    Svc *reservation.Service
    Log *zerolog.Logger
}

func NewCustomerHandler(svc *reservation.Service, log *zerolog.Logger) *CustomerHandler {
    if svc == nil {
        panic("nil service passed to NewCustomerHandler")
    }
    return &CustomerHandler{Svc: svc, Log: log}
}

type bookReq struct {
    Date           string `json:"date" form:"date" validate:"required,isodate"`
    Slot           string `json:"slot" form:"slot" validate:"required,max=32"`
    FourTable      int    `json:"four_table" form:"four_table" validate:"gte=0,lte=100"`
    TwoTable       int    `json:"two_table" form:"two_table" validate:"gte=0,lte=100"`
    SpecialRequest string `json:"special_request" form:"special_request" validate:"max=500"`
}

type openDay struct {
    Date  string                         `json:"date"`
    Slots []reservation.SlotAvailability `json:"slots"`
}

// BookingOptions handles GET /restaurant/:id/book.  It lists only the
// slots that still have at least one table left.
func (h *CustomerHandler) BookingOptions(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    av, err := h.Svc.Availability(ctx, id)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    days := make([]openDay, 0, len(av.Days))
    for _, d := range av.Days {
        var open []reservation.SlotAvailability
        for _, s := range d.Slots {
            if !s.Full {
                open = append(open, s)
            }
        }
        if len(open) > 0 {
            days = append(days, openDay{Date: d.Date, Slots: open})
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"restaurant": toPublic(av.Restaurant), "days": days})
}

// Book handles POST /restaurant/:id/book.
func (h *CustomerHandler) Book(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req bookReq
    if err := bindAndValidate(c, &req); err != nil {
        return writeError(c, h.Log, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    b, err := h.Svc.Book(ctx, reservation.BookRequest{
        Username:       middleware.Username(c),
        RestaurantID:   id,
        Date:           req.Date,
        Slot:           req.Slot,
        FourTable:      req.FourTable,
        TwoTable:       req.TwoTable,
        SpecialRequest: req.SpecialRequest,
    })
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"booking": b})
}

// Cancel handles POST /cancel_booking/:id.  Customers may cancel their own
// bookings; the admin may cancel any.
func (h *CustomerHandler) Cancel(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    b, err := h.Svc.Cancel(ctx, middleware.Username(c), id, middleware.IsAdmin(c))
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// MyBookings handles GET /profile/bookings.  Ongoing bookings come first,
// then the rest, each group ordered by id.
func (h *CustomerHandler) MyBookings(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    list, err := h.Svc.BookingsForUser(ctx, middleware.Username(c))
    if err != nil {
        return writeError(c, h.Log, err)
    }
    out := make([]model.Booking, 0, len(list))
    for _, b := range list {
        if b.Status == model.BookingOngoing {
            out = append(out, b)
        }
    }
    for _, b := range list {
        if b.Status != model.BookingOngoing {
            out = append(out, b)
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}
