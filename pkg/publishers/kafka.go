package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samvad-hq/booking-harvester/internal/logger"
	"github.com/segmentio/kafka-go"
)

// kafkaWriter is the subset of *kafka.Writer used by kafkaPublisher.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	id     string
	topic  string
	writer kafkaWriter
	log    logger.Logger
}

func newKafkaPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.Kafka == nil {
		return nil, fmt.Errorf("publisher %q missing kafka configuration", cfg.ID)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("publisher %q has no kafka brokers", cfg.ID)
	}

	// Hash balancing keeps one restaurant's snapshots on one partition.
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}

	return &kafkaPublisher{
		id:     cfg.ID,
		topic:  cfg.Kafka.Topic,
		writer: writer,
		log:    logger.Ensure(log),
	}, nil
}

func (k *kafkaPublisher) ID() string   { return k.id }
func (k *kafkaPublisher) Type() string { return TypeKafka }

// Publish writes the event keyed by restaurant.
func (k *kafkaPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	headers := make([]kafka.Header, 0, 3)
	for key, val := range evt.Attributes() {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(val)})
	}

	msg := kafka.Message{
		Key:     []byte(evt.Key()),
		Value:   payload,
		Headers: headers,
		Time:    evt.PublishedAt,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		k.log.ErrorObj("kafka publisher send failed", "publisher_kafka_error", map[string]any{
			"publisher_id": k.id,
			"topic":        k.topic,
			"error":        err.Error(),
		})
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

func (k *kafkaPublisher) Close() error {
	return k.writer.Close()
}
