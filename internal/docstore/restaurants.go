package docstore

import (
	"context"
	"sync"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
)

// RestaurantCollection stores restaurants keyed by ID.
type RestaurantCollection struct {
	c *collection[int64, model.Restaurant]

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

func newRestaurantCollection(path string) (*RestaurantCollection, error) {
	c, err := newCollection(path, func(r model.Restaurant) int64 { return r.ID })
	if err != nil {
		return nil, err
	}
	return &RestaurantCollection{c: c, locks: make(map[int64]*sync.Mutex)}, nil
}

// lock returns the mutex guarding restaurant id, creating it on first use.
func (s *RestaurantCollection) lock(id int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	return m
}

func (s *RestaurantCollection) GetByID(_ context.Context, id int64) (model.Restaurant, error) {
	r, ok := s.c.get(id)
	if !ok {
		return model.Restaurant{}, repository.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *RestaurantCollection) List(context.Context) ([]model.Restaurant, error) {
	all := s.c.all()
	for i := range all {
		all[i] = all[i].Clone()
	}
	return all, nil
}

func (s *RestaurantCollection) IDs(context.Context) ([]int64, error) {
	all := s.c.all()
	ids := make([]int64, 0, len(all))
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (s *RestaurantCollection) Create(_ context.Context, r *model.Restaurant) error {
	stored, err := s.c.insertWithID(r.Clone(), func(v model.Restaurant, id int64) model.Restaurant {
		v.ID = id
		return v
	})
	if err != nil {
		return err
	}
	r.ID = stored.ID
	return nil
}

// MutateRestaurant holds the per-restaurant lock for the whole
// read-modify-write so concurrent reservations on one restaurant run one
// at a time while other restaurants proceed in parallel.
func (s *RestaurantCollection) MutateRestaurant(ctx context.Context, id int64, fn func(*model.Restaurant) error) (model.Restaurant, error) {
	m := s.lock(id)
	m.Lock()
	defer m.Unlock()

	if err := ctx.Err(); err != nil {
		return model.Restaurant{}, err
	}
	cur, ok := s.c.get(id)
	if !ok {
		return model.Restaurant{}, repository.ErrNotFound
	}
	next := cur.Clone()
	if err := fn(&next); err != nil {
		return cur.Clone(), err
	}
	next.ID = id
	if err := s.c.put(next.Clone()); err != nil {
		return cur.Clone(), err
	}
	return next, nil
}

func (s *RestaurantCollection) Delete(_ context.Context, id int64) error {
	m := s.lock(id)
	m.Lock()
	defer m.Unlock()
	ok, err := s.c.remove(id)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (s *RestaurantCollection) Count(context.Context) (int, error) {
	return s.c.count(), nil
}

var _ repository.RestaurantStore = (*RestaurantCollection)(nil)
