package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/confirmly/risk-engine/internal/domain/event"
)

// typedEvent is satisfied by all domain events.
type typedEvent interface {
	EventType() string
}

// KafkaPublisher implements port.EventPublisher on a single topic using
// kafka-go.
type KafkaPublisher struct {
	writer *kafkago.Writer
	topic  string
	logger *slog.Logger
}

// NewKafkaPublisher creates a publisher writing to one topic on the given
// brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafkago.RequireAll,
		},
		topic:  topic,
		logger: logger,
	}
}

// Publish sends domain events to Kafka. The event type travels as a message
// header; the fingerprint or run ID, when present, becomes the partition key.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...any) error {
	messages := make([]kafkago.Message, 0, len(events))
	for _, evt := range events {
		eventType := "unknown"
		if te, ok := evt.(typedEvent); ok {
			eventType = te.EventType()
		}

		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("marshaling event %s: %w", eventType, err)
		}

		messages = append(messages, kafkago.Message{
			Key:   messageKey(evt),
			Value: payload,
			Headers: []kafkago.Header{
				{Key: "event_type", Value: []byte(eventType)},
			},
		})

		p.logger.Debug("publishing event",
			slog.String("event_type", eventType),
			slog.String("topic", p.topic),
			slog.Int("payload_size", len(payload)),
		)
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("kafka publish to %s: %w", p.topic, err)
	}
	return nil
}

// Close closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func messageKey(evt any) []byte {
	switch e := evt.(type) {
	case event.OrderScored:
		return []byte(e.Fingerprint)
	case event.ModelTrained:
		return []byte(e.RunID)
	default:
		return nil
	}
}

// NoopPublisher discards events, for deployments without a broker
// configured.
type NoopPublisher struct{}

// Publish discards the events.
func (NoopPublisher) Publish(_ context.Context, _ ...any) error { return nil }

// Close does nothing.
func (NoopPublisher) Close() error { return nil }
