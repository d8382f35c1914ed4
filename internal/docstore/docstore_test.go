package docstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
	"github.com/iliyamo/table-reservation/internal/slots"
)

func sampleRestaurant(name string) *model.Restaurant {
	start := time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC)
	return &model.Restaurant{
		Name:      name,
		FourTable: 2,
		TwoTable:  3,
		Slots:     slots.Initialize(2, 3, start, 7, slots.DefaultLabels),
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.Users.Create(ctx, &model.User{Username: "alice", PasswordHash: "x"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	r := sampleRestaurant("Luigi's")
	if err := st.Restaurants.Create(ctx, r); err != nil {
		t.Fatalf("create restaurant: %v", err)
	}
	b := &model.Booking{Username: "alice", RestaurantID: r.ID, Date: "2025-03-28", Slot: "9am-11am", FourTable: 1, Status: model.BookingOngoing}
	if err := st.Bookings.Create(ctx, b); err != nil {
		t.Fatalf("create booking: %v", err)
	}

	for _, name := range []string{UsersFile, RestaurantsFile, BookingsFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s on disk: %v", name, err)
		}
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := reopened.Users.GetByUsername(ctx, "alice"); err != nil {
		t.Fatalf("user lost: %v", err)
	}
	got, err := reopened.Restaurants.GetByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("restaurant lost: %v", err)
	}
	if got.Slots["2025-03-28"]["9am-11am"] != (model.Bucket{FourTableRem: 2, TwoTableRem: 3}) {
		t.Fatalf("slots not restored: %+v", got.Slots["2025-03-28"])
	}
	bk, err := reopened.Bookings.GetByID(ctx, b.ID)
	if err != nil || bk.Status != model.BookingOngoing {
		t.Fatalf("booking lost: %+v %v", bk, err)
	}

	// the sequence continues after reopening
	r2 := sampleRestaurant("Second")
	if err := reopened.Restaurants.Create(ctx, r2); err != nil {
		t.Fatalf("create: %v", err)
	}
	if r2.ID != r.ID+1 {
		t.Fatalf("expected id %d, got %d", r.ID+1, r2.ID)
	}
}

func TestSequenceNeverReusesDeletedIDs(t *testing.T) {
	ctx := context.Background()
	st, _ := Open("")

	a := sampleRestaurant("a")
	b := sampleRestaurant("b")
	_ = st.Restaurants.Create(ctx, a)
	_ = st.Restaurants.Create(ctx, b)
	if err := st.Restaurants.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	c := sampleRestaurant("c")
	_ = st.Restaurants.Create(ctx, c)
	if c.ID == b.ID || c.ID <= a.ID {
		t.Fatalf("id %d reused or out of order (a=%d b=%d)", c.ID, a.ID, b.ID)
	}
}

func TestConcurrentCreatesGetDistinctIDs(t *testing.T) {
	ctx := context.Background()
	st, _ := Open("")

	const n = 50
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := &model.Booking{Username: "u", Status: model.BookingOngoing}
			if err := st.Bookings.Create(ctx, b); err != nil {
				t.Errorf("create: %v", err)
				return
			}
			ids <- b.ID
		}()
	}
	wg.Wait()
	close(ids)
	seen := map[int64]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d ids, got %d", n, len(seen))
	}
}

func TestUsernameTaken(t *testing.T) {
	ctx := context.Background()
	st, _ := Open("")
	if err := st.Users.Create(ctx, &model.User{Username: "bob"}); err != nil {
		t.Fatal(err)
	}
	err := st.Users.Create(ctx, &model.User{Username: "bob"})
	if !errors.Is(err, repository.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if n, _ := st.Users.Count(ctx); n != 1 {
		t.Fatalf("expected 1 user, got %d", n)
	}
	// usernames are case sensitive, matching the MySQL binary collation
	if err := st.Users.Create(ctx, &model.User{Username: "Bob"}); err != nil {
		t.Fatalf("Bob and bob are different users: %v", err)
	}
}

func TestMutateRestaurantDiscardsOnError(t *testing.T) {
	ctx := context.Background()
	st, _ := Open("")
	r := sampleRestaurant("x")
	_ = st.Restaurants.Create(ctx, r)

	boom := errors.New("boom")
	_, err := st.Restaurants.MutateRestaurant(ctx, r.ID, func(cp *model.Restaurant) error {
		cp.Name = "changed"
		delete(cp.Slots, "2025-03-28")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	got, _ := st.Restaurants.GetByID(ctx, r.ID)
	if got.Name != "x" || got.Slots["2025-03-28"] == nil {
		t.Fatalf("record changed despite error: %+v", got)
	}

	if _, err := st.Restaurants.MutateRestaurant(ctx, 999, func(*model.Restaurant) error { return nil }); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFailedSaveKeepsPriorState(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	r := sampleRestaurant("x")
	if err := st.Restaurants.Create(ctx, r); err != nil {
		t.Fatal(err)
	}

	// point the collection at a directory that does not exist
	st.Restaurants.c.path = filepath.Join(dir, "missing", RestaurantsFile)

	_, err = st.Restaurants.MutateRestaurant(ctx, r.ID, func(cp *model.Restaurant) error {
		_, err := slots.Reserve(cp, "2025-03-28", "9am-11am", 2, 0)
		return err
	})
	if err == nil {
		t.Fatal("expected save error")
	}
	got, _ := st.Restaurants.GetByID(ctx, r.ID)
	if b := got.Slots["2025-03-28"]["9am-11am"]; b.FourTableRem != 2 {
		t.Fatalf("in-memory state changed after failed save: %+v", b)
	}

	if err := st.Restaurants.Create(ctx, sampleRestaurant("y")); err == nil {
		t.Fatal("expected create to fail")
	}
	st.Restaurants.c.path = filepath.Join(dir, RestaurantsFile)
	z := sampleRestaurant("z")
	if err := st.Restaurants.Create(ctx, z); err != nil {
		t.Fatal(err)
	}
	if z.ID != r.ID+1 {
		t.Fatalf("sequence advanced on failed create: got %d", z.ID)
	}
}

func TestUpdateStatusCompareAndSet(t *testing.T) {
	ctx := context.Background()
	st, _ := Open("")
	b := &model.Booking{Username: "u", Status: model.BookingOngoing}
	_ = st.Bookings.Create(ctx, b)

	got, err := st.Bookings.UpdateStatus(ctx, b.ID, model.BookingOngoing, model.BookingCancelled)
	if err != nil || got.Status != model.BookingCancelled {
		t.Fatalf("first transition: %+v %v", got, err)
	}
	if _, err := st.Bookings.UpdateStatus(ctx, b.ID, model.BookingOngoing, model.BookingCancelled); !errors.Is(err, repository.ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict, got %v", err)
	}
	if _, err := st.Bookings.UpdateStatus(ctx, 42, model.BookingOngoing, model.BookingCancelled); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_ = st.Bookings.Create(ctx, &model.Booking{Username: "other", Status: model.BookingOngoing})
	mine, _ := st.Bookings.ListByUser(ctx, "u")
	if len(mine) != 1 || mine[0].ID != b.ID {
		t.Fatalf("ListByUser: %+v", mine)
	}
}
