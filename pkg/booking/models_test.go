package booking

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestDecodeWithoutRestaurantOrReservations(t *testing.T) {
	body := []byte(`{"available_days":["2024-03-01"],"current_day":"2024-03-01","tables":[{"id":"t1","number":"1","zone":"Hall","capacity":2,"orders":[{"id":7,"items":["x"]}]}]}`)

	data, err := Decode(body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if data.Restaurant != nil {
		t.Fatalf("expected nil restaurant, got %#v", data.Restaurant)
	}
	if data.Tables[0].Reservations != nil {
		t.Fatalf("expected nil reservations, got %#v", data.Tables[0].Reservations)
	}
	if len(data.Tables[0].Orders) != 1 || string(data.Tables[0].Orders[0]) != `{"id":7,"items":["x"]}` {
		t.Fatalf("orders not passed through: %s", data.Tables[0].Orders)
	}

	out, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got, want any
	_ = json.Unmarshal(out, &got)
	_ = json.Unmarshal(body, &want)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %s\nwant %s", out, body)
	}
}

func TestDecodeKeepsRawCopy(t *testing.T) {
	body := []byte(`{"available_days":[],"current_day":"","tables":[]}`)
	data, err := Decode(body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	body[0] = 'X'
	if data.Raw[0] != '{' {
		t.Fatalf("Raw aliases the input buffer")
	}
}

func TestDecodeTypeMismatchKeepsMatchingFields(t *testing.T) {
	body := []byte(`{"current_day":"2024-01-01","tables":[{"id":"t1","capacity":"four","zone":"Hall"}]}`)
	data, err := Decode(body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if data.CurrentDay != "2024-01-01" || len(data.Tables) != 1 || data.Tables[0].Zone != "Hall" {
		t.Fatalf("matching fields not decoded: %#v", data)
	}
	if string(data.Raw) != string(body) {
		t.Fatalf("Raw = %s", data.Raw)
	}
}

func TestDecodeMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`{"tables":`))
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected a syntax error, got %v", err)
	}
}

func TestBookingDataHelpers(t *testing.T) {
	data := &BookingData{
		AvailableDays: []string{"2024-01-01", "2024-01-02"},
		CurrentDay:    "2024-01-02",
		Tables: []Table{
			{ID: "t1", Zone: "A", Capacity: 4},
			{ID: "t2", Zone: "B", Capacity: 2},
			{ID: "t1", Zone: "A", Capacity: 6},
			{ID: "t3", Zone: " ", Capacity: 1},
		},
	}

	if !data.IsCurrentDayAvailable() {
		t.Errorf("expected current day to be available")
	}
	if got := data.TotalCapacity(); got != 13 {
		t.Errorf("TotalCapacity = %d", got)
	}
	if got := data.Zones(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("Zones = %#v", got)
	}
	if got := data.DuplicateTableIDs(); !reflect.DeepEqual(got, []string{"t1"}) {
		t.Errorf("DuplicateTableIDs = %#v", got)
	}
	if tbl, ok := data.TableByID("t1"); !ok || tbl.Capacity != 4 {
		t.Errorf("TableByID(t1) = %#v, %v", tbl, ok)
	}
	if _, ok := data.TableByID("missing"); ok {
		t.Errorf("expected missing table lookup to fail")
	}

	data.CurrentDay = "2030-01-01"
	if data.IsCurrentDayAvailable() {
		t.Errorf("expected current day outside available days")
	}
}

func TestRestaurantClockAndLocation(t *testing.T) {
	r := Restaurant{ID: 1, OpeningTime: "09:00", ClosingTime: "22:30", Timezone: "UTC"}

	open, err := r.OpeningClock()
	if err != nil || open.Hour() != 9 || open.Minute() != 0 {
		t.Fatalf("OpeningClock = %v, %v", open, err)
	}
	closing, err := r.ClosingClock()
	if err != nil || closing.Hour() != 22 || closing.Minute() != 30 {
		t.Fatalf("ClosingClock = %v, %v", closing, err)
	}
	loc, err := r.Location()
	if err != nil || loc.String() != "UTC" {
		t.Fatalf("Location = %v, %v", loc, err)
	}

	if _, err := (Restaurant{OpeningTime: "9am"}).OpeningClock(); err == nil {
		t.Fatalf("expected parse error for 9am")
	}
	if _, err := (Restaurant{Timezone: "Not/AZone"}).Location(); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
}

func TestLegacyProjection(t *testing.T) {
	data := &BookingData{
		AvailableDays: []string{"d1"},
		CurrentDay:    "d1",
		Restaurant:    &Restaurant{ID: 1},
		Tables: []Table{{
			ID: "t1", Number: "1", Zone: "A", Capacity: 4,
			Orders:       []json.RawMessage{json.RawMessage(`1`)},
			Reservations: []json.RawMessage{json.RawMessage(`2`)},
		}},
	}

	legacy := data.Legacy()
	out, err := json.Marshal(legacy)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"available_days":["d1"],"current_day":"d1","tables":[{"id":"t1","number":"1","zone":"A","capacity":4,"orders":[1]}]}`
	if string(out) != want {
		t.Fatalf("legacy = %s", out)
	}
}
