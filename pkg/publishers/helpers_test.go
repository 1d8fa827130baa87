package publishers

import (
	"encoding/json"
	"time"

	"github.com/samvad-hq/booking-harvester/internal/domain"
	"github.com/samvad-hq/booking-harvester/pkg/booking"
)

func testEvent() Event {
	data, err := booking.Decode([]byte(`{"available_days":["2024-01-01"],"current_day":"2024-01-01","restaurant":{"id":7,"restaurant_name":"Test","opening_time":"09:00","closing_time":"22:00","timezone":"UTC"},"tables":[]}`))
	if err != nil {
		panic(err)
	}
	return Event{
		Type: EventTypeSnapshot,
		Snapshot: domain.Snapshot{
			Digest:    "digest-1",
			SourceURL: "https://example.com/api/booking",
			FetchedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Data:      data,
			Payload:   data.Raw,
		},
		PublishedAt: time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC),
	}
}

func decodeEvent(raw []byte) (Event, error) {
	var evt Event
	err := json.Unmarshal(raw, &evt)
	return evt, err
}
