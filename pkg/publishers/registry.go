package publishers

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/booking-harvester/internal/logger"
)

// Builder creates a Publisher from a config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error)

// Builders maps a publisher type to its constructor.
type Builders map[string]Builder

// DefaultBuilders knows every sink type accepted by the publishers file.
func DefaultBuilders() Builders {
	return Builders{
		TypeHTTP:   newHTTPPublisher,
		TypeSQS:    newSQSPublisher,
		TypeSNS:    newSNSPublisher,
		TypePubSub: newPubSubPublisher,
		TypeKafka:  newKafkaPublisher,
		TypeAMQP:   newAMQPPublisher,
	}
}

// Build constructs the sink described by cfg.
func (b Builders) Build(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("publisher %q has no type configured", cfg.ID)
	}
	build, ok := b[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("no publisher registered for type %q", cfg.Type)
	}
	return build(ctx, cfg, logger.Ensure(log))
}

// BuildAll constructs every sink in cfgs. On failure the sinks already built are closed.
func BuildAll(ctx context.Context, b Builders, cfgs []PublisherConfig, log logger.Logger) ([]Publisher, error) {
	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := b.Build(ctx, cfg, log)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("publisher %q: %w", cfg.ID, err), closeAll(pubs))
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}

func closeAll(pubs []Publisher) error {
	var errs []error
	for _, p := range pubs {
		c, ok := p.(Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", p.Type(), p.ID(), err))
		}
	}
	return errors.Join(errs...)
}
