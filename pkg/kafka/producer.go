package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// ProducerConfig holds configuration for a Kafka producer.
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
}

// Producer wraps a kafka-go writer with event envelope support.
type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
	topic  string
}

// NewProducer creates a producer for the given topic. Writes require
// acknowledgement from all in-sync replicas before they are considered
// delivered.
func NewProducer(cfg ProducerConfig, logger *slog.Logger) *Producer {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    batchSize,
		BatchTimeout: batchTimeout,
		RequiredAcks: kafka.RequireAll,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Publish marshals the event and writes it keyed by aggregate ID, so all
// events for the same aggregate land on the same partition.
func (p *Producer) Publish(ctx context.Context, event *Event) error {
	payload, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish event",
			"topic", p.topic,
			"event_type", event.EventType,
			"aggregate_id", event.AggregateID,
			"error", err)
		return fmt.Errorf("write message: %w", err)
	}

	p.logger.Debug("event published",
		"topic", p.topic,
		"event_type", event.EventType,
		"aggregate_id", event.AggregateID)
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
