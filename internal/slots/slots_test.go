package slots

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

var day0 = time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC)

func newRestaurant(four, two int) *model.Restaurant {
	return &model.Restaurant{
		ID:        1,
		Name:      "Trattoria",
		FourTable: four,
		TwoTable:  two,
		Slots:     Initialize(four, two, day0, DefaultWindowDays, DefaultLabels),
	}
}

func TestInitializeSeedsWindow(t *testing.T) {
	r := newRestaurant(2, 3)
	if len(r.Slots) != 7 {
		t.Fatalf("dates = %d, want 7", len(r.Slots))
	}
	want := model.Bucket{FourTableRem: 2, TwoTableRem: 3}
	for i := 0; i < 7; i++ {
		d := Day(day0.AddDate(0, 0, i))
		day, ok := r.Slots[d]
		if !ok {
			t.Fatalf("missing date %s", d)
		}
		if len(day) != 7 {
			t.Fatalf("%s: labels = %d, want 7", d, len(day))
		}
		for label, b := range day {
			if b != want {
				t.Errorf("%s %s = %+v, want %+v", d, label, b, want)
			}
		}
	}
}

func TestInitializeCrossesMonthBoundary(t *testing.T) {
	s := Initialize(1, 1, day0, 7, []string{"noon"})
	for _, d := range []string{"2025-03-31", "2025-04-01", "2025-04-03"} {
		if _, ok := s[d]; !ok {
			t.Errorf("missing %s in %v", d, s.Dates())
		}
	}
}

func TestReserveScenario(t *testing.T) {
	r := newRestaurant(2, 3)
	d, slot := Day(day0), DefaultLabels[0]

	b, err := Reserve(r, d, slot, 2, 1)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if b != (model.Bucket{FourTableRem: 0, TwoTableRem: 2}) {
		t.Fatalf("bucket = %+v, want {0 2}", b)
	}

	if _, err := Reserve(r, d, slot, 1, 0); !errors.Is(err, ErrInsufficientCapacity) {
		t.Fatalf("second reserve err = %v, want ErrInsufficientCapacity", err)
	}
	if got := r.Slots[d][slot]; got != (model.Bucket{FourTableRem: 0, TwoTableRem: 2}) {
		t.Fatalf("bucket after rejection = %+v, want {0 2}", got)
	}
}

func TestReserveRejections(t *testing.T) {
	tests := []struct {
		name       string
		date, slot string
		four, two  int
		want       error
	}{
		{"unknown date", "1999-01-01", DefaultLabels[0], 1, 0, ErrInvalidSlot},
		{"unknown slot", Day(day0), "midnight", 1, 0, ErrInvalidSlot},
		{"too many four", Day(day0), DefaultLabels[1], 3, 0, ErrInsufficientCapacity},
		{"too many two", Day(day0), DefaultLabels[1], 0, 4, ErrInsufficientCapacity},
		{"negative", Day(day0), DefaultLabels[1], -1, 1, ErrInvalidQuantity},
		{"empty", Day(day0), DefaultLabels[1], 0, 0, ErrInvalidQuantity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newRestaurant(2, 3)
			before := r.Slots.Clone()
			if _, err := Reserve(r, tc.date, tc.slot, tc.four, tc.two); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if !reflect.DeepEqual(before, r.Slots) {
				t.Fatal("slots mutated on rejection")
			}
		})
	}
}

func TestReserveReleaseRoundTrip(t *testing.T) {
	r := newRestaurant(4, 6)
	d, slot := Day(day0.AddDate(0, 0, 3)), DefaultLabels[4]
	orig := r.Slots[d][slot]

	if _, err := Reserve(r, d, slot, 3, 2); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	b, ok := Release(r, d, slot, 3, 2)
	if !ok {
		t.Fatal("release reported missing bucket")
	}
	if b != orig {
		t.Fatalf("after round trip = %+v, want %+v", b, orig)
	}
}

func TestReleaseClampsToCapacity(t *testing.T) {
	r := newRestaurant(2, 3)
	d, slot := Day(day0), DefaultLabels[0]
	if _, err := Reserve(r, d, slot, 1, 0); err != nil {
		t.Fatal(err)
	}
	b, _ := Release(r, d, slot, 5, 5)
	if b != (model.Bucket{FourTableRem: 2, TwoTableRem: 3}) {
		t.Fatalf("bucket = %+v, want clamped {2 3}", b)
	}
	if err := Check(*r); err != nil {
		t.Fatal(err)
	}
}

func TestReleaseRolledOffIsNoop(t *testing.T) {
	r := newRestaurant(2, 3)
	before := r.Slots.Clone()
	if _, ok := Release(r, "2000-01-01", DefaultLabels[0], 1, 1); ok {
		t.Fatal("release on missing date reported ok")
	}
	if _, ok := Release(r, Day(day0), "brunch", 1, 1); ok {
		t.Fatal("release on missing slot reported ok")
	}
	if !reflect.DeepEqual(before, r.Slots) {
		t.Fatal("no-op release changed slots")
	}
}

func TestRolloverDropsPastAndFillsWindow(t *testing.T) {
	r := newRestaurant(2, 3)
	d := Day(day0.AddDate(0, 0, 3))
	if _, err := Reserve(r, d, DefaultLabels[2], 1, 1); err != nil {
		t.Fatal(err)
	}

	today := day0.AddDate(0, 0, 2)
	st := Rollover(r, today, DefaultWindowDays, DefaultLabels)

	if want := []string{Day(day0), Day(day0.AddDate(0, 0, 1))}; !reflect.DeepEqual(st.Removed, want) {
		t.Fatalf("removed = %v, want %v", st.Removed, want)
	}
	for _, k := range r.Slots.Dates() {
		if k < Day(today) {
			t.Fatalf("past date %s kept", k)
		}
	}
	for i := 1; i <= DefaultWindowDays; i++ {
		if _, ok := r.Slots[Day(today.AddDate(0, 0, i))]; !ok {
			t.Fatalf("gap at today+%d", i)
		}
	}
	if _, ok := r.Slots[Day(today)]; !ok {
		t.Fatal("today removed")
	}
	if got := r.Slots[d][DefaultLabels[2]]; got != (model.Bucket{FourTableRem: 1, TwoTableRem: 2}) {
		t.Fatalf("partially consumed bucket reset: %+v", got)
	}
}

func TestRolloverIdempotent(t *testing.T) {
	r := newRestaurant(2, 3)
	today := day0.AddDate(0, 0, 5)
	Rollover(r, today, DefaultWindowDays, DefaultLabels)
	once := r.Slots.Clone()

	st := Rollover(r, today, DefaultWindowDays, DefaultLabels)
	if st.Changed() {
		t.Fatalf("second rollover changed calendar: %+v", st)
	}
	if !reflect.DeepEqual(once, r.Slots) {
		t.Fatal("second rollover produced a different map")
	}
}

func TestRolloverOnEmptyCalendar(t *testing.T) {
	r := &model.Restaurant{ID: 9, FourTable: 1, TwoTable: 1}
	st := Rollover(r, day0, 3, []string{"a", "b"})
	if len(st.Added) != 3 || len(r.Slots) != 3 {
		t.Fatalf("added = %v, slots = %d", st.Added, len(r.Slots))
	}
}

func TestCheckDetectsViolation(t *testing.T) {
	r := newRestaurant(2, 3)
	r.Slots[Day(day0)][DefaultLabels[0]] = model.Bucket{FourTableRem: 3, TwoTableRem: 0}
	if err := Check(*r); !errors.Is(err, ErrCapacityViolation) {
		t.Fatalf("err = %v, want ErrCapacityViolation", err)
	}
}

func TestInvariantUnderRandomOps(t *testing.T) {
	r := newRestaurant(3, 2)
	d := Day(day0)
	ops := []struct {
		reserve   bool
		four, two int
	}{
		{true, 1, 1}, {true, 2, 0}, {true, 1, 1}, {false, 1, 0},
		{false, 4, 4}, {true, 3, 2}, {false, 1, 1}, {true, 0, 2},
	}
	for i, op := range ops {
		if op.reserve {
			_, _ = Reserve(r, d, DefaultLabels[0], op.four, op.two)
		} else {
			Release(r, d, DefaultLabels[0], op.four, op.two)
		}
		if err := Check(*r); err != nil {
			t.Fatalf("op %d: %v", i, err)
		}
	}
}
