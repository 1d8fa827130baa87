package booking

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// clockLayout is the HH:MM layout the booking service uses for opening hours.
const clockLayout = "15:04"

// Table is a seating unit at the restaurant. Orders and reservations are passed
// through as opaque JSON because their element shape is not fixed.
type Table struct {
	ID           string            `json:"id"`
	Number       string            `json:"number"`
	Zone         string            `json:"zone"`
	Capacity     int               `json:"capacity"`
	Orders       []json.RawMessage `json:"orders"`
	Reservations []json.RawMessage `json:"reservations,omitzero"`
}

// Restaurant describes the venue the booking data belongs to.
type Restaurant struct {
	ID          int64  `json:"id"`
	Name        string `json:"restaurant_name"`
	OpeningTime string `json:"opening_time"`
	ClosingTime string `json:"closing_time"`
	Timezone    string `json:"timezone"`
}

// BookingData is the aggregate returned by the booking endpoint.
type BookingData struct {
	AvailableDays []string    `json:"available_days"`
	CurrentDay    string      `json:"current_day"`
	Restaurant    *Restaurant `json:"restaurant,omitzero"`
	Tables        []Table     `json:"tables"`

	// Raw is the exact response body the value was decoded from.
	Raw json.RawMessage `json:"-"`
}

// LegacyTable is the table shape served before reservations were added.
//
// Deprecated: use Table.
type LegacyTable struct {
	ID       string            `json:"id"`
	Number   string            `json:"number"`
	Zone     string            `json:"zone"`
	Capacity int               `json:"capacity"`
	Orders   []json.RawMessage `json:"orders"`
}

// LegacyBookingData is the payload shape served before the restaurant
// descriptor was added.
//
// Deprecated: use BookingData.
type LegacyBookingData struct {
	AvailableDays []string      `json:"available_days"`
	CurrentDay    string        `json:"current_day"`
	Tables        []LegacyTable `json:"tables"`
}

// Legacy projects b onto the narrower legacy shape.
func (b *BookingData) Legacy() LegacyBookingData {
	if b == nil {
		return LegacyBookingData{}
	}
	out := LegacyBookingData{
		AvailableDays: b.AvailableDays,
		CurrentDay:    b.CurrentDay,
		Tables:        make([]LegacyTable, 0, len(b.Tables)),
	}
	for _, t := range b.Tables {
		out.Tables = append(out.Tables, LegacyTable{
			ID:       t.ID,
			Number:   t.Number,
			Zone:     t.Zone,
			Capacity: t.Capacity,
			Orders:   t.Orders,
		})
	}
	return out
}

// Decode parses body into BookingData. Only malformed JSON is an error: a
// value whose shape differs from the typed view yields whatever fields did
// match, and Raw always holds the full body.
func Decode(body []byte) (*BookingData, error) {
	var data BookingData
	if err := json.Unmarshal(body, &data); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, fmt.Errorf("decode booking data: %w", err)
		}
	}
	data.Raw = append(json.RawMessage(nil), body...)
	return &data, nil
}

// TableByID returns the first table with the given id.
func (b *BookingData) TableByID(id string) (Table, bool) {
	if b == nil {
		return Table{}, false
	}
	for _, t := range b.Tables {
		if t.ID == id {
			return t, true
		}
	}
	return Table{}, false
}

// DuplicateTableIDs lists table ids that occur more than once, in order of
// their second appearance.
func (b *BookingData) DuplicateTableIDs() []string {
	if b == nil {
		return nil
	}
	seen := make(map[string]int, len(b.Tables))
	var dups []string
	for _, t := range b.Tables {
		seen[t.ID]++
		if seen[t.ID] == 2 {
			dups = append(dups, t.ID)
		}
	}
	return dups
}

// IsCurrentDayAvailable reports whether CurrentDay is one of AvailableDays.
func (b *BookingData) IsCurrentDayAvailable() bool {
	if b == nil {
		return false
	}
	for _, d := range b.AvailableDays {
		if d == b.CurrentDay {
			return true
		}
	}
	return false
}

// Zones returns the distinct table zones in order of first appearance.
func (b *BookingData) Zones() []string {
	if b == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var zones []string
	for _, t := range b.Tables {
		z := strings.TrimSpace(t.Zone)
		if z == "" {
			continue
		}
		if _, ok := seen[z]; ok {
			continue
		}
		seen[z] = struct{}{}
		zones = append(zones, z)
	}
	return zones
}

// TotalCapacity sums the capacity of every table.
func (b *BookingData) TotalCapacity() int {
	if b == nil {
		return 0
	}
	total := 0
	for _, t := range b.Tables {
		total += t.Capacity
	}
	return total
}

// OpeningClock parses OpeningTime as HH:MM. Only hour and minute are meaningful.
func (r Restaurant) OpeningClock() (time.Time, error) {
	return parseClock("opening_time", r.OpeningTime)
}

// ClosingClock parses ClosingTime as HH:MM. Only hour and minute are meaningful.
func (r Restaurant) ClosingClock() (time.Time, error) {
	return parseClock("closing_time", r.ClosingTime)
}

// Location resolves Timezone, treating an empty value as UTC.
func (r Restaurant) Location() (*time.Location, error) {
	tz := strings.TrimSpace(r.Timezone)
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("restaurant %d timezone %q: %w", r.ID, tz, err)
	}
	return loc, nil
}

func parseClock(field, value string) (time.Time, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return t, nil
}
