package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/table-reservation/internal/model"
)

// UserStore is the identity store.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (model.User, error)
	// Create inserts u and returns ErrUsernameTaken when the username exists.
	Create(ctx context.Context, u *model.User) error
	Count(ctx context.Context) (int, error)
}

// RestaurantStore persists restaurants and their slot calendars.
type RestaurantStore interface {
	GetByID(ctx context.Context, id int64) (model.Restaurant, error)
	List(ctx context.Context) ([]model.Restaurant, error)
	IDs(ctx context.Context) ([]int64, error)
	// Create assigns r.ID from the store's sequence and inserts r.
	Create(ctx context.Context, r *model.Restaurant) error
	// MutateRestaurant runs fn on a copy of restaurant id while holding that
	// restaurant exclusively.  The copy is persisted only when fn returns
	// nil; otherwise, or when persisting fails, the stored record is left
	// unchanged.  It returns the record as stored after the call.
	MutateRestaurant(ctx context.Context, id int64, fn func(r *model.Restaurant) error) (model.Restaurant, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// BookingStore persists bookings.  Bookings are never deleted.
type BookingStore interface {
	GetByID(ctx context.Context, id int64) (model.Booking, error)
	List(ctx context.Context) ([]model.Booking, error)
	ListByUser(ctx context.Context, username string) ([]model.Booking, error)
	ListByRestaurant(ctx context.Context, restaurantID int64) ([]model.Booking, error)
	// Create assigns b.ID from the store's sequence and inserts b.
	Create(ctx context.Context, b *model.Booking) error
	// UpdateStatus moves booking id from `from` to `to`.  It returns
	// ErrStatusConflict when the current status is not `from`.
	UpdateStatus(ctx context.Context, id int64, from, to model.BookingStatus) (model.Booking, error)
	Count(ctx context.Context) (int, error)
}

// Stores bundles the three collections so they can be injected together.
type Stores struct {
	Users       UserStore
	Restaurants RestaurantStore
	Bookings    BookingStore
}

// NewMySQLStores returns the MySQL implementations sharing db.
func NewMySQLStores(db *sql.DB) Stores {
	return Stores{Users: NewUserRepo(db), Restaurants: NewRestaurantRepo(db), Bookings: NewBookingRepo(db)}
}
