package events

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/turtacn/tokenlife/internal/config"
	"github.com/turtacn/tokenlife/internal/domain/models"
	apperrors "github.com/turtacn/tokenlife/pkg/errors"
	"github.com/turtacn/tokenlife/pkg/logger"
)

const fetchRetryDelay = time.Second

// RevocationApplier records a revocation received from another instance.
type RevocationApplier interface {
	ApplyRevocation(ctx context.Context, event models.RevocationEvent) error
}

// messageReader is the part of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// RevocationConsumer listens for revocation events published by other instances and records
// them in the local ledger. This is the "fan-in" part of the shared revocation mechanism.
type RevocationConsumer struct {
	reader  messageReader
	applier RevocationApplier
	logger  logger.Logger
	now     func() time.Time
}

// ConsumerGroupID returns the consumer group for one instance. Every instance must see every
// revocation, so each joins its own group named prefix-instanceID.
func ConsumerGroupID(prefix, instanceID string) string {
	if prefix == "" {
		return instanceID
	}
	return prefix + "-" + instanceID
}

// NewRevocationConsumer creates a new consumer for revocation events. The reader joins the
// group for instanceID and starts from the oldest retained event.
func NewRevocationConsumer(cfg *config.KafkaConfig, instanceID string, applier RevocationApplier, log logger.Logger) *RevocationConsumer {
	reader := kafka.NewReader(readerConfig(cfg, instanceID))
	return newRevocationConsumer(reader, applier, log)
}

func readerConfig(cfg *config.KafkaConfig, instanceID string) kafka.ReaderConfig {
	return kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.RevocationTopic,
		GroupID:        ConsumerGroupID(cfg.GroupID, instanceID),
		StartOffset:    kafka.FirstOffset,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	}
}

func newRevocationConsumer(r messageReader, applier RevocationApplier, log logger.Logger) *RevocationConsumer {
	return &RevocationConsumer{
		reader:  r,
		applier: applier,
		logger:  log.WithComponent("RevocationConsumer"),
		now:     time.Now,
	}
}

// Run consumes until ctx is cancelled or the reader is closed. It is a blocking call.
func (c *RevocationConsumer) Run(ctx context.Context) error {
	c.logger.Info(ctx, "starting revocation consumer...")
	defer c.logger.Info(ctx, "revocation consumer stopped")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || stderrors.Is(err, io.EOF) {
				return nil
			}
			c.logger.Error(ctx, "failed to fetch message from kafka", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		if c.handleMessage(ctx, msg) {
			if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
				c.logger.Error(ctx, "failed to commit kafka message", err, logger.Int("partition", msg.Partition))
			}
		}
	}
}

// handleMessage applies one message and reports whether it should be committed.
// Undecodable messages are committed so a poison pill is not redelivered forever.
func (c *RevocationConsumer) handleMessage(ctx context.Context, msg kafka.Message) bool {
	var event models.RevocationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error(ctx, "failed to unmarshal revocation event", err, logger.Int("bytes", len(msg.Value)))
		return true
	}

	if !event.ExpiresAt.IsZero() && c.now().After(event.ExpiresAt) {
		c.logger.Debug(ctx, "skipping revocation of an already expired token", logger.String("event_id", event.EventID))
		return true
	}

	if err := c.applier.ApplyRevocation(ctx, event); err != nil {
		c.logger.Error(ctx, "failed to apply revocation event", err, logger.String("event_id", event.EventID))
		// invalid events will never apply; anything else is left uncommitted for redelivery
		return apperrors.Is(err, apperrors.ErrValidation)
	}
	c.logger.Debug(ctx, "applied revocation event",
		logger.String("event_id", event.EventID), logger.String("source", event.Source))
	return true
}

// Close closes the underlying Kafka reader.
func (c *RevocationConsumer) Close() error {
	return c.reader.Close()
}
