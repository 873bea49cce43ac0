package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/card-authorization-gateway/internal/config"
)

// MessagePublisher publishes JSON encoded values to a single topic.
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// KafkaWriter is the subset of *kafka.Writer the producers use.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var (
	_ MessagePublisher = (*TopicProducer)(nil)
	_ KafkaWriter      = (*kafka.Writer)(nil)
)

// TopicProducer writes JSON messages to one topic.
type TopicProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewAuthorizationRequestProducer is used by the gateway to queue async
// authorization requests. Delivery is acknowledged by the partition leader
// before Publish returns, so a 202 response means the request is on the topic.
func NewAuthorizationRequestProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*TopicProducer, error) {
	return newTopicProducer(ctx, logger, cfg, cfg.TransactionTopic, kafka.RequireOne)
}

// NewDecisionProducer is used by the processor to report async decisions.
func NewDecisionProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*TopicProducer, error) {
	return newTopicProducer(ctx, logger, cfg, cfg.DecisionTopic, kafka.RequireAll)
}

func newTopicProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig, topic string, acks kafka.RequiredAcks) (*TopicProducer, error) {
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is not configured")
	}

	if err := ensureTopic(ctx, cfg, topic, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure topic %s exists: %w", topic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.BrokerList()...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: acks,
		WriteTimeout: cfg.MaxWait,
	}

	return &TopicProducer{
		logger: logger.With("topic", topic),
		writer: writer,
		topic:  topic,
	}, nil
}

// Publish marshals value and writes it under key. Keys decide the partition,
// so messages for the same merchant stay ordered.
func (p *TopicProducer) Publish(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message for topic %s: %w", p.topic, err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message", "key", key, "error", err)
		return fmt.Errorf("failed to publish message to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published message", "key", key)
	return nil
}

func (p *TopicProducer) Close() error {
	p.logger.Info("Closing Kafka producer")
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
