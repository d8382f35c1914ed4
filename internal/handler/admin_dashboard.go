package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/table-reservation/internal/model"
    "github.com/iliyamo/table-reservation/internal/reservation"
    "github.com/iliyamo/table-reservation/internal/utils"
)

// AdminHandler serves the admin panel.  Routes are guarded by
// RequireRole(ADMIN).  Purge, when set, is called after any change that
// affects the public restaurant listing.
type AdminHandler struct {
    Svc       *reservation.Service
    UploadDir string
    Purge     func(ctx context.Context)
    Log       *zerolog.Logger
}

func NewAdminHandler(svc *reservation.Service, uploadDir string, purge func(context.Context), log *zerolog.Logger) *AdminHandler {
    if svc == nil {
        panic("nil service passed to NewAdminHandler")
    }
    if purge == nil {
        purge = func(context.Context) {}
    }
    return &AdminHandler{Svc: svc, UploadDir: uploadDir, Purge: purge, Log: log}
}

type addRestaurantReq struct {
    Name      string `form:"name" json:"name" validate:"required,max=100"`
    FourTable int    `form:"four_table" json:"four_table" validate:"gte=0,lte=1000"`
    TwoTable  int    `form:"two_table" json:"two_table" validate:"gte=0,lte=1000"`
}

type dashboardRestaurant struct {
    PublicRestaurant
    Ongoing  int             `json:"ongoing"`
    Bookings []model.Booking `json:"bookings"`
}

// Dashboard handles GET /admin_dashboard: every restaurant with its
// bookings, plus bookings whose restaurant has since been deleted.
func (h *AdminHandler) Dashboard(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    restaurants, err := h.Svc.Restaurants(ctx)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    bookings, err := h.Svc.Bookings(ctx)
    if err != nil {
        return writeError(c, h.Log, err)
    }

    byRestaurant := make(map[int64][]model.Booking, len(restaurants))
    for _, b := range bookings {
        byRestaurant[b.RestaurantID] = append(byRestaurant[b.RestaurantID], b)
    }
    out := make([]dashboardRestaurant, 0, len(restaurants))
    for _, r := range restaurants {
        row := dashboardRestaurant{PublicRestaurant: toPublic(r), Bookings: byRestaurant[r.ID]}
        if row.Bookings == nil {
            row.Bookings = []model.Booking{}
        }
        for _, b := range row.Bookings {
            if b.Status == model.BookingOngoing {
                row.Ongoing++
            }
        }
        delete(byRestaurant, r.ID)
        out = append(out, row)
    }
    orphaned := []model.Booking{}
    for _, b := range bookings {
        if _, ok := byRestaurant[b.RestaurantID]; ok {
            orphaned = append(orphaned, b)
        }
    }
    return c.JSON(http.StatusOK, echo.Map{
        "restaurants":       out,
        "orphaned_bookings": orphaned,
        "total_bookings":    len(bookings),
    })
}

// AddRestaurant handles POST /admin_dashboard/add.  It accepts a multipart
// form with name, four_table, two_table and an optional photo file.
func (h *AdminHandler) AddRestaurant(c echo.Context) error {
    var req addRestaurantReq
    if err := bindAndValidate(c, &req); err != nil {
        return writeError(c, h.Log, err)
    }

    var photo string
    fh, err := c.FormFile("photo")
    switch {
    case err == nil:
        photo, err = utils.SavePhoto(fh, h.UploadDir)
        if err != nil {
            return writeError(c, h.Log, err)
        }
    case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid photo upload"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    r, err := h.Svc.CreateRestaurant(ctx, reservation.NewRestaurant{
        Name:      strings.TrimSpace(req.Name),
        Photo:     photo,
        FourTable: req.FourTable,
        TwoTable:  req.TwoTable,
    })
    if err != nil {
        if rmErr := utils.RemovePhoto(h.UploadDir, photo); rmErr != nil {
            h.Log.Warn().Err(rmErr).Str("photo", photo).Msg("orphaned photo not removed")
        }
        return writeError(c, h.Log, err)
    }
    h.Purge(ctx)
    return c.JSON(http.StatusCreated, echo.Map{"restaurant": toPublic(r)})
}

// DeleteRestaurant handles POST /delete_restaurant/:id.  Bookings of the
// restaurant are kept.
func (h *AdminHandler) DeleteRestaurant(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    r, err := h.Svc.DeleteRestaurant(ctx, id)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    if err := utils.RemovePhoto(h.UploadDir, r.Photo); err != nil {
        h.Log.Warn().Err(err).Str("photo", r.Photo).Msg("photo not removed")
    }
    h.Purge(ctx)
    return c.NoContent(http.StatusNoContent)
}

// UpdateSlots handles POST /update_slots.  The batch is not bound by the
// per-request store timeout; each restaurant gets its own budget inside
// RolloverAll.  A partial failure still returns the report, with status 500
// and the joined error message.
func (h *AdminHandler) UpdateSlots(c echo.Context) error {
    rep, err := h.Svc.RolloverAll(c.Request().Context())

    ctx, cancel := reqCtx(c)
    defer cancel()
    h.Purge(ctx)
    if err != nil {
        h.Log.Error().Err(err).Msg("slot rollover incomplete")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rollover incomplete", "report": rep})
    }
    return c.JSON(http.StatusOK, echo.Map{"report": rep})
}

// CompleteBooking handles POST /admin_dashboard/bookings/:id/complete.
func (h *AdminHandler) CompleteBooking(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    b, err := h.Svc.Complete(ctx, id)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"booking": b})
}
