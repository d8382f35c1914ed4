// Package handler exposes HTTP handlers for both authenticated and public endpoints.
// This file defines the public browsing API: the restaurant listing and the
// restaurant detail page with its calendar.  No authentication is required.

package handler

import (
    "net/http"
    "path"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/table-reservation/internal/model"
    "github.com/iliyamo/table-reservation/internal/reservation"
)

// UploadsURL is the URL prefix photos are served under.
const UploadsURL = "/uploads"

// PublicHandler serves unauthenticated browse endpoints.
type PublicHandler struct {
    Svc *reservation.Service
    Log *zerolog.Logger
}

func NewPublicHandler(svc *reservation.Service, log *zerolog.Logger) *PublicHandler {
    return &PublicHandler{Svc: svc, Log: log}
}

// PublicRestaurant is a restaurant as shown in listings.  The slot calendar
// is left out; it is served by the detail endpoint.
type PublicRestaurant struct {
    ID        int64  `json:"id"`
    Name      string `json:"name"`
    PhotoURL  string `json:"photo_url,omitempty"`
    FourTable int    `json:"four_table"`
    TwoTable  int    `json:"two_table"`
}

func toPublic(r model.Restaurant) PublicRestaurant {
    return PublicRestaurant{ID: r.ID, Name: r.Name, PhotoURL: photoURL(r.Photo), FourTable: r.FourTable, TwoTable: r.TwoTable}
}

func photoURL(rel string) string {
    if rel == "" {
        return ""
    }
    return path.Join(UploadsURL, rel)
}

// Index handles GET /.  Response JSON contains an "items" array.
func (h *PublicHandler) Index(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    list, err := h.Svc.Restaurants(ctx)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    out := make([]PublicRestaurant, 0, len(list))
    for _, r := range list {
        out = append(out, toPublic(r))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// restaurantDetail is the body of GET /restaurant/:id.
type restaurantDetail struct {
    Restaurant PublicRestaurant              `json:"restaurant"`
    Days       []reservation.DayAvailability `json:"days"`
}

// Restaurant handles GET /restaurant/:id and returns the restaurant with
// every slot from today onward.
func (h *PublicHandler) Restaurant(c echo.Context) error {
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
    return c.JSON(http.StatusOK, restaurantDetail{Restaurant: toPublic(av.Restaurant), Days: av.Days})
}
