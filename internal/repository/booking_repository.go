package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/table-reservation/internal/model"
)

// BookingRepo provides persistence for bookings.  All timestamp fields are
// stored in UTC.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingCols = `id, username, restaurant_id, restaurant_name, four_table, two_table,
                     booking_date, slot, special_request, status, created_at, updated_at`

func scanBooking(s rowScanner) (model.Booking, error) {
    var b model.Booking
    var special sql.NullString
    var status string
    err := s.Scan(&b.ID, &b.Username, &b.RestaurantID, &b.RestaurantName, &b.FourTable, &b.TwoTable,
        &b.Date, &b.Slot, &special, &status, &b.CreatedAt, &b.UpdatedAt)
    if err != nil {
        return model.Booking{}, err
    }
    b.SpecialRequest = special.String
    b.Status = model.BookingStatus(status)
    return b, nil
}

func (r *BookingRepo) query(ctx context.Context, where string, args ...any) ([]model.Booking, error) {
    rows, err := r.db.QueryContext(ctx, "SELECT "+bookingCols+" FROM bookings "+where+" ORDER BY id", args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Booking
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, b)
    }
    return out, rows.Err()
}

// Create inserts a booking and populates the generated ID.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
    const q = `INSERT INTO bookings (username, restaurant_id, restaurant_name, four_table, two_table,
               booking_date, slot, special_request, status, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    var special sql.NullString
    if b.SpecialRequest != "" {
        special = sql.NullString{String: b.SpecialRequest, Valid: true}
    }
    res, err := r.db.ExecContext(ctx, q, b.Username, b.RestaurantID, b.RestaurantName, b.FourTable, b.TwoTable,
        b.Date, b.Slot, special, string(b.Status), b.CreatedAt, b.UpdatedAt)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = id
    return nil
}

// GetByID returns a booking or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id int64) (model.Booking, error) {
    b, err := scanBooking(r.db.QueryRowContext(ctx, "SELECT "+bookingCols+" FROM bookings WHERE id = ?", id))
    if errors.Is(err, sql.ErrNoRows) {
        return model.Booking{}, ErrNotFound
    }
    return b, err
}

// List returns all bookings.
func (r *BookingRepo) List(ctx context.Context) ([]model.Booking, error) {
    return r.query(ctx, "")
}

// ListByUser returns the bookings made by username.
func (r *BookingRepo) ListByUser(ctx context.Context, username string) ([]model.Booking, error) {
    return r.query(ctx, "WHERE username = ?", username)
}

// ListByRestaurant returns the bookings of one restaurant.
func (r *BookingRepo) ListByRestaurant(ctx context.Context, restaurantID int64) ([]model.Booking, error) {
    return r.query(ctx, "WHERE restaurant_id = ?", restaurantID)
}

// UpdateStatus performs a compare-and-set on the status column.  When no
// row matches, the booking is looked up again to tell a missing booking
// (ErrNotFound) from one in another state (ErrStatusConflict).
func (r *BookingRepo) UpdateStatus(ctx context.Context, id int64, from, to model.BookingStatus) (model.Booking, error) {
    res, err := r.db.ExecContext(ctx,
        "UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
        string(to), time.Now().UTC(), id, string(from))
    if err != nil {
        return model.Booking{}, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return model.Booking{}, err
    }
    b, err := r.GetByID(ctx, id)
    if err != nil {
        return model.Booking{}, err
    }
    if n == 0 {
        return b, ErrStatusConflict
    }
    return b, nil
}

// Count returns the number of bookings.
func (r *BookingRepo) Count(ctx context.Context) (int, error) {
    var n int
    err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings").Scan(&n)
    return n, err
}

// Compile-time checks that the MySQL repos satisfy the store contracts.
var (
    _ UserStore       = (*UserRepo)(nil)
    _ RestaurantStore = (*RestaurantRepo)(nil)
    _ BookingStore    = (*BookingRepo)(nil)
)
