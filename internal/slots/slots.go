// Package slots maintains the per-restaurant availability calendar: a
// bounded forward window of dates, each split into fixed time-slot
// buckets with remaining table counters.  All functions operate on the
// restaurant value they are given and never touch storage; callers are
// responsible for serializing mutations of one restaurant and for
// persisting the result.
package slots

import (
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// DateLayout is the ISO day format used for slot map keys.
const DateLayout = "2006-01-02"

// DefaultWindowDays is the number of days seeded at creation and kept ahead
// by the daily rollover.
const DefaultWindowDays = 7

// DefaultLabels are the time slots offered each day.
var DefaultLabels = []string{
	"9am-11am",
	"11am-1pm",
	"1pm-3pm",
	"3pm-5pm",
	"5pm-7pm",
	"7pm-9pm",
	"9pm-11pm",
}

var (
	// ErrInvalidSlot is returned when the requested date or time slot is not
	// part of the restaurant's calendar.
	ErrInvalidSlot = errors.New("invalid slot")
	// ErrInsufficientCapacity is returned when a bucket does not have enough
	// tables left for the request.
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	// ErrInvalidQuantity is returned for negative table counts or an empty
	// request.
	ErrInvalidQuantity = errors.New("invalid table quantity")
	// ErrCapacityViolation is returned by Check when a counter is outside
	// [0, capacity].
	ErrCapacityViolation = errors.New("capacity invariant violated")
)

// Day formats t as an ISO day string in t's location.
func Day(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDay parses an ISO day string in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// Initialize builds numDays consecutive dates starting at start, each
// holding every label at full capacity.
func Initialize(fourTable, twoTable int, start time.Time, numDays int, labels []string) model.Slots {
	out := make(model.Slots, max(numDays, 0))
	for i := 0; i < numDays; i++ {
		out[Day(start.AddDate(0, 0, i))] = fullDay(fourTable, twoTable, labels)
	}
	return out
}

func fullDay(fourTable, twoTable int, labels []string) model.DaySlots {
	day := make(model.DaySlots, len(labels))
	for _, l := range labels {
		day[l] = model.Bucket{FourTableRem: fourTable, TwoTableRem: twoTable}
	}
	return day
}

func lookup(r *model.Restaurant, date, slot string) (model.Bucket, bool) {
	day, ok := r.Slots[date]
	if !ok {
		return model.Bucket{}, false
	}
	b, ok := day[slot]
	return b, ok
}

// Reserve takes wantFour four-seat and wantTwo two-seat tables from the
// bucket at (date, slot).  The restaurant is left untouched on error.
func Reserve(r *model.Restaurant, date, slot string, wantFour, wantTwo int) (model.Bucket, error) {
	if wantFour < 0 || wantTwo < 0 || wantFour+wantTwo == 0 {
		return model.Bucket{}, ErrInvalidQuantity
	}
	b, ok := lookup(r, date, slot)
	if !ok {
		return model.Bucket{}, fmt.Errorf("%w: %s %s", ErrInvalidSlot, date, slot)
	}
	if wantFour > b.FourTableRem || wantTwo > b.TwoTableRem {
		return b, ErrInsufficientCapacity
	}
	b.FourTableRem -= wantFour
	b.TwoTableRem -= wantTwo
	r.Slots[date][slot] = b
	return b, nil
}

// Release gives tables back to the bucket at (date, slot).  Counters never
// exceed the restaurant's capacity.  When the bucket has rolled off the
// calendar the call does nothing and reports false.
func Release(r *model.Restaurant, date, slot string, giveFour, giveTwo int) (model.Bucket, bool) {
	b, ok := lookup(r, date, slot)
	if !ok {
		return model.Bucket{}, false
	}
	b.FourTableRem = min(b.FourTableRem+max(giveFour, 0), r.FourTable)
	b.TwoTableRem = min(b.TwoTableRem+max(giveTwo, 0), r.TwoTable)
	r.Slots[date][slot] = b
	return b, true
}

// RolloverStats lists the dates removed and added by one Rollover call.
type RolloverStats struct {
	Removed []string `json:"removed"`
	Added   []string `json:"added"`
}

// Changed reports whether the rollover modified the calendar.
func (s RolloverStats) Changed() bool {
	return len(s.Removed) > 0 || len(s.Added) > 0
}

// Rollover drops every date before today and fills in any missing date in
// today+1 .. today+windowDays with full-capacity buckets.  Dates already
// present are left as they are, so running it twice on the same day
// changes nothing the second time.
func Rollover(r *model.Restaurant, today time.Time, windowDays int, labels []string) RolloverStats {
	var st RolloverStats
	if r.Slots == nil {
		r.Slots = make(model.Slots)
	}
	cutoff := Day(today)
	for _, d := range r.Slots.Dates() {
		if d >= cutoff {
			break
		}
		delete(r.Slots, d)
		st.Removed = append(st.Removed, d)
	}
	for i := 1; i <= windowDays; i++ {
		d := Day(today.AddDate(0, 0, i))
		if _, ok := r.Slots[d]; ok {
			continue
		}
		r.Slots[d] = fullDay(r.FourTable, r.TwoTable, labels)
		st.Added = append(st.Added, d)
	}
	return st
}

// Check verifies 0 <= rem <= capacity for every bucket.
func Check(r model.Restaurant) error {
	for date, day := range r.Slots {
		for label, b := range day {
			if b.FourTableRem < 0 || b.FourTableRem > r.FourTable ||
				b.TwoTableRem < 0 || b.TwoTableRem > r.TwoTable {
				return fmt.Errorf("%w: restaurant %d %s %s = %+v", ErrCapacityViolation, r.ID, date, label, b)
			}
		}
	}
	return nil
}
