package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
    BookingOngoing   BookingStatus = "ongoing"
    BookingCompleted BookingStatus = "completed"
    BookingCancelled BookingStatus = "cancelled"
)

// CanTransition reports whether a booking may move from s to next.  Only
// ongoing bookings can change state.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
    return s == BookingOngoing && (next == BookingCancelled || next == BookingCompleted)
}

// Booking records one reservation of tables at a restaurant for a single
// date and time slot.  Username and RestaurantID are weak references
// resolved by lookup; RestaurantName is copied at booking time so the
// record stays readable after the restaurant is removed.
type Booking struct {
    ID             int64         `json:"id"`
    Username       string        `json:"username"`
    RestaurantID   int64         `json:"restaurant_id"`
    RestaurantName string        `json:"restaurant_name"`
    FourTable      int           `json:"four_table"`
    TwoTable       int           `json:"two_table"`
    Date           string        `json:"date"`
    Slot           string        `json:"slot"`
    SpecialRequest string        `json:"special_request,omitempty"`
    Status         BookingStatus `json:"status"`
    CreatedAt      time.Time     `json:"created_at"`
    UpdatedAt      time.Time     `json:"updated_at"`
}
