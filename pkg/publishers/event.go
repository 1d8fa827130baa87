package publishers

import (
	"strconv"
	"time"

	"github.com/samvad-hq/booking-harvester/internal/domain"
)

// EventTypeSnapshot marks an event carrying a changed booking snapshot.
const EventTypeSnapshot = "booking.snapshot.changed"

// Event represents the payload published downstream.
type Event struct {
	Type        string          `json:"type"`
	Snapshot    domain.Snapshot `json:"snapshot"`
	PublishedAt time.Time       `json:"published_at"`
}

// NewEvent constructs an Event for the given snapshot.
func NewEvent(snap domain.Snapshot) Event {
	return Event{
		Type:        EventTypeSnapshot,
		Snapshot:    snap,
		PublishedAt: time.Now().UTC(),
	}
}

// Key is the partition/routing key for the event: the restaurant id when
// known, otherwise the source url.
func (e Event) Key() string {
	if id, ok := e.Snapshot.RestaurantID(); ok {
		return strconv.FormatInt(id, 10)
	}
	return e.Snapshot.SourceURL
}

// Attributes are the string attributes attached to queue/topic messages.
func (e Event) Attributes() map[string]string {
	return map[string]string{
		"event_type": e.Type,
		"digest":     e.Snapshot.Digest,
		"source_url": e.Snapshot.SourceURL,
	}
}
