package reservation

import (
	"context"
	"slices"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/slots"
)

// SlotAvailability is one bucket as shown to customers.
type SlotAvailability struct {
	Label        string `json:"label"`
	FourTableRem int    `json:"four_table_rem"`
	TwoTableRem  int    `json:"two_table_rem"`
	Full         bool   `json:"full"`
}

// DayAvailability lists the slots of one date in display order.
type DayAvailability struct {
	Date  string             `json:"date"`
	Slots []SlotAvailability `json:"slots"`
}

// Availability is a restaurant together with its bookable calendar.
type Availability struct {
	Restaurant model.Restaurant  `json:"restaurant"`
	Days       []DayAvailability `json:"days"`
}

// Availability returns the calendar of restaurant id from today onward.
// Dates come out ascending; slots follow the configured label order with
// unknown labels appended alphabetically.
func (s *Service) Availability(ctx context.Context, id int64) (Availability, error) {
	r, err := s.stores.Restaurants.GetByID(ctx, id)
	if err != nil {
		return Availability{}, err
	}
	today := slots.Day(s.Today())
	out := Availability{Restaurant: r, Days: []DayAvailability{}}
	for _, d := range r.Slots.Dates() {
		if d < today {
			continue
		}
		out.Days = append(out.Days, DayAvailability{Date: d, Slots: s.orderDay(r.Slots[d])})
	}
	return out, nil
}

func (s *Service) orderDay(day model.DaySlots) []SlotAvailability {
	out := make([]SlotAvailability, 0, len(day))
	seen := make(map[string]bool, len(day))
	add := func(label string) {
		b := day[label]
		out = append(out, SlotAvailability{Label: label, FourTableRem: b.FourTableRem, TwoTableRem: b.TwoTableRem, Full: b.IsFull()})
		seen[label] = true
	}
	for _, l := range s.labels {
		if _, ok := day[l]; ok {
			add(l)
		}
	}
	var rest []string
	for l := range day {
		if !seen[l] {
			rest = append(rest, l)
		}
	}
	slices.Sort(rest)
	for _, l := range rest {
		add(l)
	}
	return out
}
