package poller

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/booking-harvester/internal/domain"
	"github.com/samvad-hq/booking-harvester/internal/logger"
	"github.com/samvad-hq/booking-harvester/pkg/publishers"
)

// Result summarises one harvest pass.
type Result struct {
	Digest    string
	Skipped   bool
	Published int
}

// Service runs harvest passes against the booking endpoint.
type Service struct {
	fetcher   BookingFetcher
	publisher EventPublisher
	deduper   Deduper
	log       logger.Logger
}

// NewService wires a poller. A nil deduper publishes every snapshot.
func NewService(fetcher BookingFetcher, pub EventPublisher, log logger.Logger, deduper Deduper) *Service {
	return &Service{
		fetcher:   fetcher,
		publisher: pub,
		deduper:   deduper,
		log:       logger.Ensure(log),
	}
}

// RunOnce fetches the booking data and publishes it when its digest is new.
// The digest is marked only after at least one publisher accepted the event.
func (s *Service) RunOnce(ctx context.Context) (Result, error) {
	if s == nil || s.fetcher == nil {
		return Result{}, fmt.Errorf("poller service is not initialized")
	}

	data, err := s.fetcher.FetchBookingData(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch booking data: %w", err)
	}

	snap := domain.NewSnapshot(s.fetcher.URL(), data)
	res := Result{Digest: snap.Digest}

	if s.seen(snap.Digest) {
		s.log.DebugObj("booking snapshot unchanged", "snapshot_skip", map[string]any{
			"digest": snap.Digest,
		})
		res.Skipped = true
		return res, nil
	}

	if s.publisher == nil {
		return res, fmt.Errorf("no publisher configured")
	}

	published, pubErr := s.publisher.Publish(ctx, publishers.NewEvent(snap))
	res.Published = published
	if pubErr != nil {
		s.log.ErrorObj("booking snapshot publish failed", "publish_error", map[string]any{
			"digest":    snap.Digest,
			"published": published,
			"error":     pubErr.Error(),
		})
	}
	if published == 0 {
		if pubErr == nil {
			pubErr = errors.New("no publisher accepted the snapshot")
		}
		return res, fmt.Errorf("publish snapshot %s: %w", snap.Digest, pubErr)
	}

	var errs []error
	if pubErr != nil {
		errs = append(errs, fmt.Errorf("publish snapshot %s: %w", snap.Digest, pubErr))
	}
	if s.deduper != nil {
		if err := s.deduper.MarkSnapshot(snap.Digest); err != nil {
			s.log.ErrorObj("snapshot mark failed", "storage_error", map[string]any{
				"digest": snap.Digest,
				"error":  err.Error(),
			})
			errs = append(errs, fmt.Errorf("mark snapshot %s: %w", snap.Digest, err))
		}
	}

	fields := map[string]any{
		"digest":     snap.Digest,
		"tables":     len(data.Tables),
		"publishers": published,
	}
	if id, ok := snap.RestaurantID(); ok {
		fields["restaurant_id"] = id
	}
	s.log.InfoObj("booking snapshot published", "snapshot_result", fields)
	return res, errors.Join(errs...)
}

// seen reports lookup errors as unseen.
func (s *Service) seen(digest string) bool {
	if s.deduper == nil {
		return false
	}
	ok, err := s.deduper.SeenSnapshot(digest)
	if err != nil {
		s.log.WarnObj("snapshot lookup failed", "storage_error", map[string]any{
			"digest": digest,
			"error":  err.Error(),
		})
		return false
	}
	return ok
}
