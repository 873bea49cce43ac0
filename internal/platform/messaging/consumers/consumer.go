package consumers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/card-authorization-gateway/internal/config"
)

// fetchRetryDelay is how long the loop waits after a failed fetch.
const fetchRetryDelay = time.Second

type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, handler MessageHandler) error
	Close() error
}

// MessageReader is the part of *kafka.Reader the consumer loop needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer reads one topic as part of a consumer group. Offsets are only
// committed after the handler succeeds, so a failing message is redelivered.
type KafkaConsumer struct {
	reader MessageReader
	topic  string
	group  string
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewKafkaConsumer(logger *slog.Logger, cfg *config.KafkaConfig, topic string) *KafkaConsumer {
	startOffset := kafka.FirstOffset
	if cfg.StartOffset == kafka.LastOffset {
		startOffset = kafka.LastOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.BrokerList(),
		Topic:       topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: startOffset,
	})

	return newConsumer(logger, reader, topic, cfg.ConsumerGroup)
}

func newConsumer(logger *slog.Logger, reader MessageReader, topic, group string) *KafkaConsumer {
	return &KafkaConsumer{
		reader: reader,
		topic:  topic,
		group:  group,
		logger: logger.With("topic", topic, "group_id", group),
	}
}

// Subscribe starts consuming in the background until ctx is canceled.
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler MessageHandler) error {
	c.logger.Info("Subscribed to Kafka topic")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.consume(ctx, handler)
	}()
	return nil
}

func (c *KafkaConsumer) consume(ctx context.Context, handler MessageHandler) {
	for {
		if ctx.Err() != nil {
			c.logger.Info("Context canceled, stopping consumer")
			return
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Context canceled, stopping consumer")
				return
			}
			c.logger.Error("Failed to fetch message from Kafka", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		msgLogger := c.logger.With(
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
		)
		msgLogger.Debug("Received message from Kafka")

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			msgLogger.Error("Failed to process message, will not commit offset", "error", err)
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			msgLogger.Error("Failed to commit message after successful processing", "error", err)
			continue
		}
		msgLogger.Debug("Message committed successfully")
	}
}

// Close stops the reader and waits for the consume loop to return.
func (c *KafkaConsumer) Close() error {
	if c.reader == nil {
		return nil
	}
	err := c.reader.Close()
	c.wg.Wait()
	return err
}
