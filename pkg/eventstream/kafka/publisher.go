// Package kafka publishes index events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/docqa/pkg/eventstream"
	"github.com/papercomputeco/docqa/pkg/logger"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "docqa.index-events"

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// PublisherConfig holds configuration for a Kafka publisher.
type PublisherConfig struct {
	Brokers []string
	Topic   string

	// WriteTimeout bounds a single publish. Defaults to 10s.
	WriteTimeout time.Duration

	// Writer overrides the kafka-go writer built from Brokers and Topic.
	Writer MessageWriter

	Logger *slog.Logger
}

// Publisher writes one message per event, keyed by document id so that all
// events for a document land on the same partition.
type Publisher struct {
	writer  MessageWriter
	timeout time.Duration
	logger  *slog.Logger
}

// NewPublisher creates a Kafka publisher.
func NewPublisher(c PublisherConfig) (*Publisher, error) {
	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	timeout := c.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	w := c.Writer
	if w == nil {
		if len(c.Brokers) == 0 {
			return nil, errors.New("kafka publisher requires at least one broker")
		}
		topic := c.Topic
		if topic == "" {
			topic = DefaultTopic
		}
		w = &kafkago.Writer{
			Addr:                   kafkago.TCP(c.Brokers...),
			Topic:                  topic,
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			AllowAutoTopicCreation: true,
		}
		log.Info("kafka publisher configured", "brokers", c.Brokers, "topic", topic)
	}

	return &Publisher{
		writer:  w,
		timeout: timeout,
		logger:  log,
	}, nil
}

// PublishIndexEvent encodes the event as JSON and writes it to the topic.
func (p *Publisher) PublishIndexEvent(ctx context.Context, event *eventstream.IndexEvent) error {
	if err := eventstream.Validate(event); err != nil {
		return err
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding index event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafkago.Message{
		Key:   []byte(strconv.FormatInt(event.DocumentID, 10)),
		Value: value,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing index event: %w", err)
	}

	p.logger.Debug("published index event",
		"event_type", event.EventType,
		"event_id", event.EventID,
		"document_id", event.DocumentID,
	)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
