// This file defines the MySQL-backed restaurant repository.  The slot
// calendar is stored as a JSON document in the `slots` column so that a
// reservation rewrites the whole calendar of one restaurant inside a
// single row-locked transaction.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/table-reservation/internal/model"
)

// RestaurantRepo encapsulates all database queries related to restaurants.
type RestaurantRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewRestaurantRepo constructs a RestaurantRepo with the provided DB handle.
func NewRestaurantRepo(db *sql.DB) *RestaurantRepo {
	return &RestaurantRepo{db: db}
}

const restaurantCols = "id, name, photo, four_table, two_table, slots, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRestaurant(s rowScanner) (model.Restaurant, error) {
	var r model.Restaurant
	var raw []byte
	if err := s.Scan(&r.ID, &r.Name, &r.Photo, &r.FourTable, &r.TwoTable, &raw, &r.CreatedAt); err != nil {
		return model.Restaurant{}, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &r.Slots); err != nil {
			return model.Restaurant{}, fmt.Errorf("decode slots of restaurant %d: %w", r.ID, err)
		}
	}
	if r.Slots == nil {
		r.Slots = model.Slots{}
	}
	return r, nil
}

// Create inserts a new restaurant.  On success the restaurant's ID field is
// populated with the auto-generated value.
func (r *RestaurantRepo) Create(ctx context.Context, rest *model.Restaurant) error {
	raw, err := json.Marshal(rest.Slots)
	if err != nil {
		return err
	}
	const q = "INSERT INTO restaurants (name, photo, four_table, two_table, slots, created_at) VALUES (?, ?, ?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, q, rest.Name, rest.Photo, rest.FourTable, rest.TwoTable, string(raw), rest.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rest.ID = id
	return nil
}

// GetByID returns a restaurant or ErrNotFound.
func (r *RestaurantRepo) GetByID(ctx context.Context, id int64) (model.Restaurant, error) {
	rest, err := scanRestaurant(r.db.QueryRowContext(ctx, "SELECT "+restaurantCols+" FROM restaurants WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Restaurant{}, ErrNotFound
	}
	return rest, err
}

// List returns every restaurant ordered by ID.
func (r *RestaurantRepo) List(ctx context.Context) ([]model.Restaurant, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+restaurantCols+" FROM restaurants ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Restaurant
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rest)
	}
	return out, rows.Err()
}

// IDs returns the IDs of all restaurants in ascending order.
func (r *RestaurantRepo) IDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM restaurants ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MutateRestaurant locks the restaurant row with SELECT ... FOR UPDATE,
// applies fn to a copy and writes the calendar back in the same
// transaction.  Concurrent callers for the same ID queue on the row lock.
func (r *RestaurantRepo) MutateRestaurant(ctx context.Context, id int64, fn func(*model.Restaurant) error) (model.Restaurant, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Restaurant{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cur, err := scanRestaurant(tx.QueryRowContext(ctx, "SELECT "+restaurantCols+" FROM restaurants WHERE id = ? FOR UPDATE", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Restaurant{}, ErrNotFound
	}
	if err != nil {
		return model.Restaurant{}, err
	}
	next := cur.Clone()
	if err := fn(&next); err != nil {
		return cur, err
	}
	raw, err := json.Marshal(next.Slots)
	if err != nil {
		return cur, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE restaurants SET name = ?, photo = ?, four_table = ?, two_table = ?, slots = ? WHERE id = ?",
		next.Name, next.Photo, next.FourTable, next.TwoTable, string(raw), id); err != nil {
		return cur, err
	}
	if err := tx.Commit(); err != nil {
		return cur, err
	}
	committed = true
	return next, nil
}

// Delete removes a restaurant.  Bookings referencing it are kept.
func (r *RestaurantRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM restaurants WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of restaurants.
func (r *RestaurantRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM restaurants").Scan(&n)
	return n, err
}
