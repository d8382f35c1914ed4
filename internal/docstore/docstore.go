// Package docstore implements the repository store contracts on top of
// three JSON document collections (users, restaurants and bookings), each
// kept in its own file under a data directory.  It is meant for a single
// server process: restaurant mutations are serialized with per-record
// locks held in memory.
package docstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iliyamo/table-reservation/internal/repository"
)

// File names of the three collections inside the data directory.
const (
	UsersFile       = "users.json"
	RestaurantsFile = "restaurants.json"
	BookingsFile    = "bookings.json"
)

// Store groups the three collections.
type Store struct {
	Users       *UserCollection
	Restaurants *RestaurantCollection
	Bookings    *BookingCollection
}

// Open loads (or creates) the collections under dir.  An empty dir yields a
// purely in-memory store.
func Open(dir string) (*Store, error) {
	path := func(name string) string {
		if dir == "" {
			return ""
		}
		return filepath.Join(dir, name)
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	users, err := newUserCollection(path(UsersFile))
	if err != nil {
		return nil, err
	}
	restaurants, err := newRestaurantCollection(path(RestaurantsFile))
	if err != nil {
		return nil, err
	}
	bookings, err := newBookingCollection(path(BookingsFile))
	if err != nil {
		return nil, err
	}
	return &Store{Users: users, Restaurants: restaurants, Bookings: bookings}, nil
}

// Stores exposes the collections through the repository interfaces.
func (s *Store) Stores() repository.Stores {
	return repository.Stores{Users: s.Users, Restaurants: s.Restaurants, Bookings: s.Bookings}
}
