package poller

import (
	"context"

	"github.com/samvad-hq/booking-harvester/pkg/booking"
	"github.com/samvad-hq/booking-harvester/pkg/publishers"
)

// BookingFetcher retrieves the current booking payload.
type BookingFetcher interface {
	FetchBookingData(ctx context.Context) (*booking.BookingData, error)
	URL() string
}

// EventPublisher publishes snapshots downstream and reports how many sinks accepted them.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers snapshot digests that were already delivered.
type Deduper interface {
	SeenSnapshot(digest string) (bool, error)
	MarkSnapshot(digest string) error
}
