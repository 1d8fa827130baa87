package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/samvad-hq/booking-harvester/pkg/booking"
)

// Snapshot is one fetched booking payload plus the metadata needed to dedupe and route it.
type Snapshot struct {
	Digest    string               `json:"digest"`
	SourceURL string               `json:"source_url"`
	FetchedAt time.Time            `json:"fetched_at"`
	Data      *booking.BookingData `json:"data"`
	// Payload is the body exactly as served, including fields Data does not model.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewSnapshot wraps data fetched from sourceURL, digesting the raw body.
func NewSnapshot(sourceURL string, data *booking.BookingData) Snapshot {
	var raw []byte
	if data != nil {
		raw = data.Raw
	}
	return Snapshot{
		Digest:    Digest(raw),
		SourceURL: sourceURL,
		FetchedAt: time.Now().UTC(),
		Data:      data,
		Payload:   json.RawMessage(raw),
	}
}

// Digest returns the hex SHA-256 of body.
func Digest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// RestaurantID returns the restaurant id when the payload carries one.
func (s Snapshot) RestaurantID() (int64, bool) {
	if s.Data == nil || s.Data.Restaurant == nil {
		return 0, false
	}
	return s.Data.Restaurant.ID, true
}
