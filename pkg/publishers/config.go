package publishers

import (
	"errors"
	"fmt"
	"strings"
)

// Sink types accepted in the publishers file.
const (
	TypeHTTP   = "http"
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
	TypeKafka  = "kafka"
	TypeAMQP   = "amqp"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// PublisherConfig is one entry of the publishers file. Exactly the block
// matching Type is read.
type PublisherConfig struct {
	ID      string               `json:"id" yaml:"id"`
	Type    string               `json:"type" yaml:"type"`
	Enabled *bool                `json:"enabled" yaml:"enabled"`
	HTTP    *HTTPPublisherConfig `json:"http" yaml:"http"`
	SQS     *SQSPublisherConfig  `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig  `json:"sns" yaml:"sns"`
	PubSub  *PubSubConfig        `json:"pubsub" yaml:"pubsub"`
	Kafka   *KafkaConfig         `json:"kafka" yaml:"kafka"`
	AMQP    *AMQPConfig          `json:"amqp" yaml:"amqp"`
}

// HTTPPublisherConfig describes a webhook.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// SQSPublisherConfig describes an SQS queue.
type SQSPublisherConfig struct {
	QueueURL string `json:"uri" yaml:"uri"`
	Region   string `json:"region" yaml:"region"`
}

// SNSPublisherConfig describes an SNS topic.
type SNSPublisherConfig struct {
	TopicARN string `json:"topic_arn" yaml:"topic_arn"`
	Region   string `json:"region" yaml:"region"`
}

// PubSubConfig describes a Google Cloud Pub/Sub topic.
type PubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// KafkaConfig describes a Kafka topic and its bootstrap brokers.
type KafkaConfig struct {
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

// AMQPConfig describes a RabbitMQ exchange or queue.
type AMQPConfig struct {
	URL        string `json:"url" yaml:"url"`
	Exchange   string `json:"exchange" yaml:"exchange"`
	RoutingKey string `json:"routing_key" yaml:"routing_key"`
}

// EnabledValue reports the enabled flag; an absent flag means enabled.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

// normalized returns a trimmed copy with defaults applied. Nested blocks are
// copied so the caller's pointers are never mutated.
func (cfg PublisherConfig) normalized() PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Enabled == nil {
		on := true
		cfg.Enabled = &on
	}

	if cfg.HTTP != nil {
		c := *cfg.HTTP
		c.URL = strings.TrimSpace(c.URL)
		if c.Method = strings.ToUpper(strings.TrimSpace(c.Method)); c.Method == "" {
			c.Method = httpDefaultMethod
		}
		if c.TimeoutSeconds <= 0 {
			c.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		c.Headers = cleanHeaders(c.Headers)
		cfg.HTTP = &c
	}
	if cfg.SQS != nil {
		cfg.SQS = &SQSPublisherConfig{
			QueueURL: strings.TrimSpace(cfg.SQS.QueueURL),
			Region:   strings.TrimSpace(cfg.SQS.Region),
		}
	}
	if cfg.SNS != nil {
		cfg.SNS = &SNSPublisherConfig{
			TopicARN: strings.TrimSpace(cfg.SNS.TopicARN),
			Region:   strings.TrimSpace(cfg.SNS.Region),
		}
	}
	if cfg.PubSub != nil {
		cfg.PubSub = &PubSubConfig{
			ProjectID:       strings.TrimSpace(cfg.PubSub.ProjectID),
			Topic:           strings.TrimSpace(cfg.PubSub.Topic),
			CredentialsFile: strings.TrimSpace(cfg.PubSub.CredentialsFile),
		}
	}
	if cfg.Kafka != nil {
		var brokers []string
		for _, b := range cfg.Kafka.Brokers {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		cfg.Kafka = &KafkaConfig{Brokers: brokers, Topic: strings.TrimSpace(cfg.Kafka.Topic)}
	}
	if cfg.AMQP != nil {
		cfg.AMQP = &AMQPConfig{
			URL:        strings.TrimSpace(cfg.AMQP.URL),
			Exchange:   strings.TrimSpace(cfg.AMQP.Exchange),
			RoutingKey: strings.TrimSpace(cfg.AMQP.RoutingKey),
		}
	}
	return cfg
}

func cleanHeaders(headers map[string]string) map[string]string {
	var out map[string]string
	for k, v := range headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(headers))
		}
		out[k] = v
	}
	return out
}

// validate checks the fields the matching sink needs to connect.
func (cfg PublisherConfig) validate() error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}

	var missing string
	switch cfg.Type {
	case "":
		return fmt.Errorf("type is required for publisher %q", cfg.ID)
	case TypeHTTP:
		switch {
		case cfg.HTTP == nil:
			missing = "http"
		case cfg.HTTP.URL == "":
			missing = "http.url"
		}
	case TypeSQS:
		switch {
		case cfg.SQS == nil:
			missing = "sqs"
		case cfg.SQS.QueueURL == "":
			missing = "sqs.uri"
		case cfg.SQS.Region == "":
			missing = "sqs.region"
		}
	case TypeSNS:
		switch {
		case cfg.SNS == nil:
			missing = "sns"
		case cfg.SNS.TopicARN == "":
			missing = "sns.topic_arn"
		case cfg.SNS.Region == "":
			missing = "sns.region"
		}
	case TypePubSub:
		switch {
		case cfg.PubSub == nil:
			missing = "pubsub"
		case cfg.PubSub.ProjectID == "":
			missing = "pubsub.project_id"
		case cfg.PubSub.Topic == "":
			missing = "pubsub.topic"
		}
	case TypeKafka:
		switch {
		case cfg.Kafka == nil:
			missing = "kafka"
		case len(cfg.Kafka.Brokers) == 0:
			missing = "kafka.brokers"
		case cfg.Kafka.Topic == "":
			missing = "kafka.topic"
		}
	case TypeAMQP:
		switch {
		case cfg.AMQP == nil:
			missing = "amqp"
		case cfg.AMQP.URL == "":
			missing = "amqp.url"
		case cfg.AMQP.Exchange == "" && cfg.AMQP.RoutingKey == "":
			missing = "amqp.exchange or amqp.routing_key"
		}
	default:
		return fmt.Errorf("unknown type %q for publisher %q", cfg.Type, cfg.ID)
	}

	if missing != "" {
		return fmt.Errorf("%s is required for publisher %q", missing, cfg.ID)
	}
	return nil
}
