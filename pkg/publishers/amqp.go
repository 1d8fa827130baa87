package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samvad-hq/booking-harvester/internal/logger"
)

// amqpChannel is the subset of *amqp.Channel used by amqpPublisher.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type amqpPublisher struct {
	id         string
	exchange   string
	routingKey string
	conn       io.Closer
	ch         amqpChannel
	log        logger.Logger
}

func newAMQPPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.AMQP == nil {
		return nil, fmt.Errorf("publisher %q missing amqp configuration", cfg.ID)
	}

	conn, err := amqp.Dial(cfg.AMQP.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	return &amqpPublisher{
		id:         cfg.ID,
		exchange:   cfg.AMQP.Exchange,
		routingKey: cfg.AMQP.RoutingKey,
		conn:       conn,
		ch:         ch,
		log:        logger.Ensure(log),
	}, nil
}

func (a *amqpPublisher) ID() string   { return a.id }
func (a *amqpPublisher) Type() string { return TypeAMQP }

// Publish sends the event as a persistent JSON message.
func (a *amqpPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	headers := amqp.Table{}
	for k, v := range evt.Attributes() {
		headers[k] = v
	}

	err = a.ch.PublishWithContext(ctx, a.exchange, a.routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    evt.PublishedAt,
		ContentType:  "application/json",
		MessageId:    evt.Snapshot.Digest,
		Type:         evt.Type,
		Headers:      headers,
		Body:         payload,
	})
	if err != nil {
		a.log.ErrorObj("amqp publisher send failed", "publisher_amqp_error", map[string]any{
			"publisher_id": a.id,
			"exchange":     a.exchange,
			"error":        err.Error(),
		})
		return fmt.Errorf("publish amqp message: %w", err)
	}
	return nil
}

func (a *amqpPublisher) Close() error {
	var errs []error
	if a.ch != nil {
		errs = append(errs, a.ch.Close())
	}
	if a.conn != nil {
		errs = append(errs, a.conn.Close())
	}
	return errors.Join(errs...)
}
