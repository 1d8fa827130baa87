package domain

import (
	"encoding/json"
	"testing"

	"github.com/samvad-hq/booking-harvester/pkg/booking"
)

func TestNewSnapshotDigestsRawBody(t *testing.T) {
	a := NewSnapshot("u", &booking.BookingData{Raw: []byte(`{"a":1}`)})
	b := NewSnapshot("u", &booking.BookingData{Raw: []byte(`{"a":1}`)})
	c := NewSnapshot("u", &booking.BookingData{Raw: []byte(`{"a":2}`)})

	if a.Digest == "" || a.Digest != b.Digest {
		t.Fatalf("expected equal digests, got %q %q", a.Digest, b.Digest)
	}
	if a.Digest == c.Digest {
		t.Fatalf("expected different digests for different bodies")
	}
	if a.FetchedAt.IsZero() {
		t.Fatalf("expected FetchedAt to be set")
	}
}

func TestSnapshotRestaurantID(t *testing.T) {
	if _, ok := (Snapshot{}).RestaurantID(); ok {
		t.Fatalf("expected no restaurant id on empty snapshot")
	}
	s := Snapshot{Data: &booking.BookingData{Restaurant: &booking.Restaurant{ID: 42}}}
	if id, ok := s.RestaurantID(); !ok || id != 42 {
		t.Fatalf("RestaurantID = %d, %v", id, ok)
	}
}

func TestSnapshotPayloadKeepsUnmodelledFields(t *testing.T) {
	body := `{"available_days":[],"current_day":"x","tables":[],"promo":{"code":"SPRING"}}`
	data, err := booking.Decode([]byte(body))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	out, err := json.Marshal(NewSnapshot("u", data))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		Payload map[string]any `json:"payload"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	promo, ok := decoded.Payload["promo"].(map[string]any)
	if !ok || promo["code"] != "SPRING" {
		t.Fatalf("payload lost unmodelled field: %s", out)
	}
}
