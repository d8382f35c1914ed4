// Package reservation orchestrates the restaurant, booking and user stores
// around the slot engine.  Every slot mutation runs inside
// RestaurantStore.MutateRestaurant, which gives exclusive access to one
// restaurant for the duration of the read-modify-write.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/notify"
	"github.com/iliyamo/table-reservation/internal/repository"
	"github.com/iliyamo/table-reservation/internal/slots"
)

var (
	// ErrForbidden is returned when a user acts on someone else's booking.
	ErrForbidden = errors.New("not allowed to modify this booking")
	// ErrInvalidTransition is returned when a booking is no longer ongoing.
	ErrInvalidTransition = errors.New("booking is not ongoing")
	// ErrInvalidRestaurant is returned for an empty name or bad capacities.
	ErrInvalidRestaurant = errors.New("invalid restaurant")
)

// DefaultRolloverTimeout bounds the rollover of a single restaurant.
const DefaultRolloverTimeout = 10 * time.Second

// Options tunes the calendar.  Zero values fall back to the slot engine
// defaults, the local zone and the wall clock.
type Options struct {
	Location   *time.Location
	WindowDays int
	Labels     []string
	Now        func() time.Time
	// RolloverTimeout is the budget of each restaurant in RolloverAll.
	RolloverTimeout time.Duration
}

// Service implements the booking workflows.
type Service struct {
	stores     repository.Stores
	notifier   notify.Notifier
	log        *zerolog.Logger
	loc        *time.Location
	windowDays int
	labels     []string
	now        func() time.Time

	rolloverTimeout time.Duration
}

// New wires a Service.  A nil notifier disables notifications.
func New(stores repository.Stores, n notify.Notifier, log *zerolog.Logger, opts Options) *Service {
	if n == nil {
		n = notify.Nop{}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = slots.DefaultWindowDays
	}
	if len(opts.Labels) == 0 {
		opts.Labels = slots.DefaultLabels
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RolloverTimeout <= 0 {
		opts.RolloverTimeout = DefaultRolloverTimeout
	}
	return &Service{
		stores:     stores,
		notifier:   n,
		log:        log,
		loc:        opts.Location,
		windowDays: opts.WindowDays,
		labels:     append([]string(nil), opts.Labels...),
		now:        opts.Now,

		rolloverTimeout: opts.RolloverTimeout,
	}
}

// Today returns midnight of the current day in the configured zone.
func (s *Service) Today() time.Time {
	t := s.now().In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}

// Labels returns the configured slot labels in display order.
func (s *Service) Labels() []string {
	return append([]string(nil), s.labels...)
}

// NewRestaurant carries the admin input for CreateRestaurant.
type NewRestaurant struct {
	Name      string
	Photo     string
	FourTable int
	TwoTable  int
}

// CreateRestaurant stores a restaurant whose calendar covers the booking
// window starting today.
func (s *Service) CreateRestaurant(ctx context.Context, in NewRestaurant) (model.Restaurant, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.FourTable < 0 || in.TwoTable < 0 || in.FourTable+in.TwoTable == 0 {
		return model.Restaurant{}, ErrInvalidRestaurant
	}
	r := &model.Restaurant{
		Name:      in.Name,
		Photo:     in.Photo,
		FourTable: in.FourTable,
		TwoTable:  in.TwoTable,
		Slots:     slots.Initialize(in.FourTable, in.TwoTable, s.Today(), s.windowDays, s.labels),
		CreatedAt: s.now().UTC(),
	}
	if err := s.stores.Restaurants.Create(ctx, r); err != nil {
		return model.Restaurant{}, fmt.Errorf("create restaurant: %w", err)
	}
	s.log.Info().Int64("restaurant_id", r.ID).Str("name", r.Name).Msg("restaurant created")
	return *r, nil
}

// DeleteRestaurant removes a restaurant.  Its bookings stay on record.
func (s *Service) DeleteRestaurant(ctx context.Context, id int64) (model.Restaurant, error) {
	r, err := s.stores.Restaurants.GetByID(ctx, id)
	if err != nil {
		return model.Restaurant{}, err
	}
	if err := s.stores.Restaurants.Delete(ctx, id); err != nil {
		return model.Restaurant{}, err
	}
	s.log.Info().Int64("restaurant_id", id).Msg("restaurant deleted")
	return r, nil
}

// Restaurants lists every restaurant ordered by id.
func (s *Service) Restaurants(ctx context.Context) ([]model.Restaurant, error) {
	return s.stores.Restaurants.List(ctx)
}

// BookRequest describes a reservation attempt.
type BookRequest struct {
	Username       string
	RestaurantID   int64
	Date           string
	Slot           string
	FourTable      int
	TwoTable       int
	SpecialRequest string
}

// Book reserves tables and records the booking.  Dates before today are
// rejected even while they are still on the calendar waiting for the
// rollover.  If the booking cannot be stored the reserved tables are given
// back before returning the error.
func (s *Service) Book(ctx context.Context, req BookRequest) (model.Booking, error) {
	if req.Date < slots.Day(s.Today()) {
		return model.Booking{}, fmt.Errorf("%w: %s is in the past", slots.ErrInvalidSlot, req.Date)
	}
	var name string
	_, err := s.stores.Restaurants.MutateRestaurant(ctx, req.RestaurantID, func(r *model.Restaurant) error {
		name = r.Name
		if _, err := slots.Reserve(r, req.Date, req.Slot, req.FourTable, req.TwoTable); err != nil {
			return err
		}
		return slots.Check(*r)
	})
	if err != nil {
		return model.Booking{}, err
	}

	now := s.now().UTC()
	b := &model.Booking{
		Username:       req.Username,
		RestaurantID:   req.RestaurantID,
		RestaurantName: name,
		FourTable:      req.FourTable,
		TwoTable:       req.TwoTable,
		Date:           req.Date,
		Slot:           req.Slot,
		SpecialRequest: strings.TrimSpace(req.SpecialRequest),
		Status:         model.BookingOngoing,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.stores.Bookings.Create(ctx, b); err != nil {
		s.release(context.WithoutCancel(ctx), req.RestaurantID, req.Date, req.Slot, req.FourTable, req.TwoTable)
		return model.Booking{}, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info().
		Int64("booking_id", b.ID).
		Int64("restaurant_id", b.RestaurantID).
		Str("username", b.Username).
		Str("date", b.Date).
		Str("slot", b.Slot).
		Msg("booking created")
	s.notifyUser(ctx, b.Username, notify.KindBookingConfirmation, bookingFields(*b))
	return *b, nil
}

// Cancel moves an ongoing booking to cancelled and returns its tables.
// Only the booking owner or an admin may cancel.
func (s *Service) Cancel(ctx context.Context, username string, bookingID int64, isAdmin bool) (model.Booking, error) {
	b, err := s.stores.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if !isAdmin && b.Username != username {
		return model.Booking{}, ErrForbidden
	}
	updated, err := s.transition(ctx, b, model.BookingCancelled)
	if err != nil {
		return model.Booking{}, err
	}
	s.release(ctx, b.RestaurantID, b.Date, b.Slot, b.FourTable, b.TwoTable)

	s.log.Info().Int64("booking_id", b.ID).Str("by", username).Msg("booking cancelled")
	s.notifyUser(ctx, b.Username, notify.KindBookingCancellation, bookingFields(updated))
	return updated, nil
}

// Complete marks an ongoing booking as completed.
func (s *Service) Complete(ctx context.Context, bookingID int64) (model.Booking, error) {
	b, err := s.stores.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	updated, err := s.transition(ctx, b, model.BookingCompleted)
	if err != nil {
		return model.Booking{}, err
	}
	s.log.Info().Int64("booking_id", b.ID).Msg("booking completed")
	return updated, nil
}

func (s *Service) transition(ctx context.Context, b model.Booking, to model.BookingStatus) (model.Booking, error) {
	if !b.Status.CanTransition(to) {
		return model.Booking{}, ErrInvalidTransition
	}
	updated, err := s.stores.Bookings.UpdateStatus(ctx, b.ID, model.BookingOngoing, to)
	if errors.Is(err, repository.ErrStatusConflict) {
		return model.Booking{}, ErrInvalidTransition
	}
	if err != nil {
		return model.Booking{}, fmt.Errorf("update booking status: %w", err)
	}
	return updated, nil
}

// release gives tables back.  A restaurant that was deleted, or a date that
// already rolled off, leaves nothing to restore.
func (s *Service) release(ctx context.Context, restaurantID int64, date, slot string, four, two int) {
	restored := false
	_, err := s.stores.Restaurants.MutateRestaurant(ctx, restaurantID, func(r *model.Restaurant) error {
		_, restored = slots.Release(r, date, slot, four, two)
		return nil
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.log.Debug().Int64("restaurant_id", restaurantID).Msg("release skipped: restaurant gone")
	case err != nil:
		s.log.Error().Err(err).Int64("restaurant_id", restaurantID).Str("date", date).Str("slot", slot).Msg("release failed")
	case !restored:
		s.log.Debug().Int64("restaurant_id", restaurantID).Str("date", date).Str("slot", slot).Msg("release skipped: slot no longer on calendar")
	}
}

// BookingsForUser lists a user's bookings ordered by id.
func (s *Service) BookingsForUser(ctx context.Context, username string) ([]model.Booking, error) {
	return s.stores.Bookings.ListByUser(ctx, username)
}

// Bookings lists every booking ordered by id.
func (s *Service) Bookings(ctx context.Context) ([]model.Booking, error) {
	return s.stores.Bookings.List(ctx)
}

// notifyUser mails the user if they registered an address.
func (s *Service) notifyUser(ctx context.Context, username string, kind notify.Kind, fields map[string]string) {
	u, err := s.stores.Users.GetByUsername(ctx, username)
	if err != nil || u.Email == "" {
		return
	}
	s.notifier.Send(ctx, u.Email, kind, fields)
}

func bookingFields(b model.Booking) map[string]string {
	return map[string]string{
		"username":        b.Username,
		"booking_id":      strconv.FormatInt(b.ID, 10),
		"restaurant_name": b.RestaurantName,
		"date":            b.Date,
		"slot":            b.Slot,
		"four_table":      strconv.Itoa(b.FourTable),
		"two_table":       strconv.Itoa(b.TwoTable),
		"status":          string(b.Status),
	}
}
