package docstore

import (
	"context"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
)

// BookingCollection stores bookings keyed by ID.
type BookingCollection struct {
	c *collection[int64, model.Booking]
}

func newBookingCollection(path string) (*BookingCollection, error) {
	c, err := newCollection(path, func(b model.Booking) int64 { return b.ID })
	if err != nil {
		return nil, err
	}
	return &BookingCollection{c: c}, nil
}

func (s *BookingCollection) GetByID(_ context.Context, id int64) (model.Booking, error) {
	b, ok := s.c.get(id)
	if !ok {
		return model.Booking{}, repository.ErrNotFound
	}
	return b, nil
}

func (s *BookingCollection) List(context.Context) ([]model.Booking, error) {
	return s.c.all(), nil
}

func (s *BookingCollection) ListByUser(_ context.Context, username string) ([]model.Booking, error) {
	return s.c.filter(func(b model.Booking) bool { return b.Username == username }), nil
}

func (s *BookingCollection) ListByRestaurant(_ context.Context, restaurantID int64) ([]model.Booking, error) {
	return s.c.filter(func(b model.Booking) bool { return b.RestaurantID == restaurantID }), nil
}

func (s *BookingCollection) Create(_ context.Context, b *model.Booking) error {
	stored, err := s.c.insertWithID(*b, func(v model.Booking, id int64) model.Booking {
		v.ID = id
		return v
	})
	if err != nil {
		return err
	}
	b.ID = stored.ID
	return nil
}

// UpdateStatus checks and sets the status under the collection write lock.
func (s *BookingCollection) UpdateStatus(_ context.Context, id int64, from, to model.BookingStatus) (model.Booking, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	b, ok := s.c.items[id]
	if !ok {
		return model.Booking{}, repository.ErrNotFound
	}
	if b.Status != from {
		return b, repository.ErrStatusConflict
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	if err := s.c.putLocked(b); err != nil {
		return s.c.items[id], err
	}
	return b, nil
}

func (s *BookingCollection) Count(context.Context) (int, error) {
	return s.c.count(), nil
}

var _ repository.BookingStore = (*BookingCollection)(nil)
