package producers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/card-authorization-gateway/internal/config"
)

const (
	topicReadAttempts = 5
	topicReadBackoff  = 2 * time.Second
)

// ensureTopic creates topic on the cluster when it does not exist yet.
func ensureTopic(ctx context.Context, cfg *config.KafkaConfig, topic string, logger *slog.Logger) error {
	brokers := cfg.BrokerList()
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial kafka broker %s: %w", brokers[0], err)
	}
	defer conn.Close()

	logger = logger.With("topic", topic)

	var partitions []kafka.Partition
	for attempt := 1; attempt <= topicReadAttempts; attempt++ {
		partitions, err = conn.ReadPartitions(topic)
		if err == nil && len(partitions) > 0 {
			logger.Info("Kafka topic already exists", "partitions", len(partitions))
			return nil
		}
		logger.Warn("Failed to read partitions, retrying", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(topicReadBackoff):
		}
	}

	logger.Info("Creating Kafka topic")
	if err := conn.CreateTopics(topicConfig(topic, cfg.NumPartitions, cfg.ReplicationFactor)); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topic, err)
	}
	logger.Info("Successfully created Kafka topic")
	return nil
}

func topicConfig(topic string, partitions, replication int) kafka.TopicConfig {
	if partitions <= 0 {
		partitions = 1
	}
	if replication <= 0 {
		replication = 1
	}
	return kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: replication,
	}
}
