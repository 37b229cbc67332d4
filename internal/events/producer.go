// Package events publishes generation lifecycle events to Kafka. Publishing
// is fire-and-forget: downstream consumers (analytics, notifications) must
// never block or fail a user request.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// GenerationFinished is emitted after a generation completes, including
// degraded successes (no artifact, no record).
type GenerationFinished struct {
	RecordID   *uuid.UUID `json:"record_id"`
	UserID     *uuid.UUID `json:"user_id"`
	Format     string     `json:"format"`
	HasAudio   bool       `json:"has_audio"`
	Duration   *float64   `json:"duration"`
	FinishedAt time.Time  `json:"finished_at"`
}

// Producer wraps a Kafka producer
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer. Returns nil when no brokers are
// configured; a nil Producer silently skips publishing.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 {
		log.Info().Msg("Kafka brokers not configured, event publishing disabled")
		return nil
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Async:                  false,
	}

	log.Info().
		Strs("brokers", brokers).
		Str("topic", topic).
		Msg("Kafka producer initialized")

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishGenerationFinished publishes a generation.finished event.
func (p *Producer) PublishGenerationFinished(ctx context.Context, event GenerationFinished) error {
	if p == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	key := "anonymous"
	if event.UserID != nil {
		key = event.UserID.String()
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event to kafka: %w", err)
	}

	log.Info().
		Str("topic", p.topic).
		Bool("has_audio", event.HasAudio).
		Msg("Generation event published")

	return nil
}

// Close closes the producer
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	log.Info().Msg("Closing Kafka producer")
	return p.writer.Close()
}
