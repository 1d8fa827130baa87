package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/samvad-hq/booking-harvester/internal/config"
	"github.com/samvad-hq/booking-harvester/internal/logger"
	"github.com/samvad-hq/booking-harvester/pkg/booking"
)

// Fetcher performs a single booking fetch and prints the payload.
type Fetcher struct {
	client *booking.Client
	log    logger.Logger
}

// NewFetcher builds a one-shot fetcher from config.
func NewFetcher(cfg *config.Config, log logger.Logger) (*Fetcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	return &Fetcher{client: newBookingClient(cfg, log), log: log}, nil
}

// Run fetches once and writes the body to w as indented JSON.
func (f *Fetcher) Run(ctx context.Context, w io.Writer) error {
	if f == nil || f.client == nil {
		return fmt.Errorf("fetcher is not initialized")
	}

	raw, err := f.client.FetchRaw(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("format booking data: %w", err)
	}
	buf.WriteByte('\n')
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write booking data: %w", err)
	}
	f.log.InfoObj("booking data written", "fetch_meta", map[string]any{
		"url":   f.client.URL(),
		"bytes": len(raw),
	})
	return nil
}
