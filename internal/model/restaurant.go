package model

import (
    "sort"
    "time"
)

// Bucket holds the remaining table counters for one (date, slot) pair.
type Bucket struct {
    FourTableRem int `json:"four_table_rem"`
    TwoTableRem  int `json:"two_table_rem"`
}

// IsFull reports whether no table of either size is left.
func (b Bucket) IsFull() bool {
    return b.FourTableRem <= 0 && b.TwoTableRem <= 0
}

// DaySlots maps a time-slot label (e.g. "9am-11am") to its bucket.
type DaySlots map[string]Bucket

// Slots maps an ISO day ("2006-01-02") to the buckets of that day.
type Slots map[string]DaySlots

// Dates returns the date keys in ascending order.  ISO day strings sort
// lexically in calendar order.
func (s Slots) Dates() []string {
    out := make([]string, 0, len(s))
    for d := range s {
        out = append(out, d)
    }
    sort.Strings(out)
    return out
}

// Clone returns a deep copy so callers can mutate without touching the
// original map.
func (s Slots) Clone() Slots {
    if s == nil {
        return nil
    }
    out := make(Slots, len(s))
    for d, day := range s {
        cp := make(DaySlots, len(day))
        for label, b := range day {
            cp[label] = b
        }
        out[d] = cp
    }
    return out
}

// Restaurant represents a bookable venue.  Capacity is expressed as the
// number of four-seat and two-seat tables; Slots tracks how many of each
// remain per date and time slot.
//
// Fields:
//  ID        – sequence-issued identifier.
//  Name      – display name.
//  Photo     – path of the uploaded photo relative to the upload dir.
//  FourTable – number of 4-seat tables.
//  TwoTable  – number of 2-seat tables.
//  Slots     – per-date, per-slot availability.
//  CreatedAt – creation timestamp.
type Restaurant struct {
    ID        int64     `json:"id"`
    Name      string    `json:"name"`
    Photo     string    `json:"photo"`
    FourTable int       `json:"four_table"`
    TwoTable  int       `json:"two_table"`
    Slots     Slots     `json:"slots"`
    CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy of the restaurant including its slots map.
func (r Restaurant) Clone() Restaurant {
    r.Slots = r.Slots.Clone()
    return r
}
