package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/booking-harvester/internal/config"
	"github.com/samvad-hq/booking-harvester/internal/logger"
	"github.com/samvad-hq/booking-harvester/internal/poller"
	"github.com/samvad-hq/booking-harvester/internal/storage"
	"github.com/samvad-hq/booking-harvester/pkg/booking"
	"github.com/samvad-hq/booking-harvester/pkg/httpclient"
	"github.com/samvad-hq/booking-harvester/pkg/publishers"
)

// Harvester polls the booking endpoint and publishes changed snapshots. It
// owns the publishers and the snapshot store and releases them when Run returns.
type Harvester struct {
	cfg          *config.Config
	fanout       *publishers.Fanout
	pollService  *poller.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewHarvester builds a harvester runtime from config.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger) (*Harvester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultBuilders(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	target := cfg.BBoltPath
	if cfg.StorageType == storage.TypeRedis {
		target = cfg.RedisAddr
	}
	store, err := storage.NewStore(cfg.StorageType, target, storage.Options{
		SnapshotTTL:     cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
		RedisPassword:   cfg.RedisPassword,
		RedisDB:         cfg.RedisDB,
	})
	if err != nil {
		if cerr := fanout.Close(); cerr != nil {
			log.ErrorObj("publisher close failed", "error", cerr)
		}
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"target":                   target,
		"snapshot_ttl_seconds":     int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	client := newBookingClient(cfg, log)
	return &Harvester{
		cfg:          cfg,
		fanout:       fanout,
		pollService:  poller.NewService(client, fanout, log, store),
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

func newBookingClient(cfg *config.Config, log logger.Logger) *booking.Client {
	return booking.NewClient(booking.Options{
		URL:        cfg.BookingURL,
		HTTPClient: httpclient.NewRestyClient(cfg.RequestTimeout, httpclient.WithUserAgent(cfg.AppName)),
		Logger:     log,
	})
}

// Run polls until the context is cancelled. Failed passes are logged and retried on the next tick.
func (h *Harvester) Run(ctx context.Context) error {
	if h == nil || h.pollService == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.close()

	h.log.InfoObj("harvester loop starting", "harvester_state", map[string]any{
		"booking_url":      h.cfg.BookingURL,
		"publishers_count": h.fanout.Size(),
		"poll_interval":    h.pollInterval.String(),
	})

	if err := h.runOnce(ctx); err != nil {
		h.log.ErrorObj("initial poll failed", "error", err)
	}

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.InfoObj("harvester loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := h.runOnce(ctx); err != nil {
				h.log.ErrorObj("scheduled poll failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single pass and releases the harvester's resources.
func (h *Harvester) RunOnce(ctx context.Context) error {
	if h == nil || h.pollService == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.close()
	return h.runOnce(ctx)
}

// runOnce performs a single harvest pass.
func (h *Harvester) runOnce(ctx context.Context) error {
	start := time.Now()
	res, err := h.pollService.RunOnce(ctx)
	if err != nil {
		return err
	}
	h.log.InfoObj("poll completed", "poll_meta", map[string]any{
		"digest":     res.Digest,
		"skipped":    res.Skipped,
		"published":  res.Published,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

func (h *Harvester) close() {
	if err := h.fanout.Close(); err != nil {
		h.log.ErrorObj("publisher close failed", "error", err)
	}
	if h.store == nil {
		return
	}
	if err := h.store.Close(); err != nil {
		h.log.ErrorObj("storage close failed", "error", err)
	}
}
