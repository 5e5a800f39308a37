// Package events fans revocations out to, and in from, other instances over Kafka.
package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"github.com/turtacn/tokenlife/internal/config"
	"github.com/turtacn/tokenlife/internal/domain/models"
	"github.com/turtacn/tokenlife/internal/domain/service"
	"github.com/turtacn/tokenlife/pkg/logger"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher is a Kafka-backed implementation of service.RevocationPublisher.
type KafkaPublisher struct {
	writer messageWriter
	logger logger.Logger
}

var _ service.RevocationPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher writing to cfg.RevocationTopic.
func NewKafkaPublisher(cfg *config.KafkaConfig, log logger.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.RevocationTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireAll,
	}
	return newKafkaPublisher(writer, log)
}

func newKafkaPublisher(w messageWriter, log logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: w,
		logger: log.WithComponent("KafkaPublisher"),
	}
}

// PublishRevocation sends event to the revocation topic, keyed by its event id.
func (p *KafkaPublisher) PublishRevocation(ctx context.Context, event models.RevocationEvent) error {
	bytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error(ctx, "failed to marshal revocation event", err)
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.EventID),
		Value: bytes,
	})
	if err != nil {
		p.logger.Error(ctx, "failed to write revocation event to Kafka", err, logger.String("event_id", event.EventID))
		return err
	}
	p.logger.Debug(ctx, "revocation event published", logger.String("event_id", event.EventID))
	return nil
}

// Close closes the underlying Kafka writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
