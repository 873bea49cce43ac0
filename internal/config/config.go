// Package config provides configuration structures and validation for the card
// authorization services. Values come from an optional .env file, defaults and the
// process environment, in that order of precedence (environment wins).
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration. Every binary loads the same
// structure; sections a binary does not use still carry their defaults.
type Config struct {
	Application   ApplicationConfig
	Logging       LoggingConfig
	Server        ServerConfig
	Kafka         KafkaConfig
	Postgres      PostgresConfig
	MongoDB       MongoDBConfig
	Redis         RedisConfig
	Outbox        OutboxConfig
	WorkerPool    WorkerPoolConfig
	Authorization AuthorizationConfig
	Telemetry     TelemetryConfig
	Ingest        IngestConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	TransactionTopic  string // Async authorization requests
	DecisionTopic     string // Decisions for async requests
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// RedisConfig configures the merchant credential cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	CredentialTTL time.Duration
}

// OutboxConfig contains outbox pattern configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int
}

// AuthorizationConfig tunes the authorization engine.
type AuthorizationConfig struct {
	BankAvailabilityRate float64       // Probability that the bank network reports available
	Timeout              time.Duration // Upper bound for the store calls of a single authorization
	MaxCASRetries        int           // Attempts when a concurrent update wins the credit_used race
}

// TelemetryConfig toggles metrics and tracing.
type TelemetryConfig struct {
	MetricsEnabled bool
	TracingEnabled bool
	OTLPEndpoint   string
}

// IngestConfig is only read by the batch loader.
type IngestConfig struct {
	BcryptCost int
}

// validate performs validation of all configuration values and reports every
// problem found at once.
func (c *Config) validate() error {
	var validationErrors []string

	// Server
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	// Kafka
	if c.Kafka.Brokers == "" {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.TransactionTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_TRANSACTION_TOPIC is required")
	}
	if c.Kafka.DecisionTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_DECISION_TOPIC is required")
	}
	if c.Kafka.ConsumerGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_GROUP is required")
	}
	if c.Kafka.MinBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	}
	if c.Kafka.MaxBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	}
	if c.Kafka.MaxWait <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}
	if c.Kafka.DLQTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_DLQ_TOPIC is required")
	}

	// PostgreSQL
	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// MongoDB
	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
	}
	if c.MongoDB.MaxPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MinPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MIN_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MaxConnIdleTime <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Redis is optional, but a configured cache needs a positive TTL
	if c.Redis.Addr != "" && c.Redis.CredentialTTL <= 0 {
		validationErrors = append(validationErrors, "REDIS_CREDENTIAL_TTL must be greater than 0")
	}

	// Outbox
	if c.Outbox.PollingInterval <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	}
	if c.Outbox.BatchSize <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_BATCH_SIZE must be greater than 0")
	}
	if c.Outbox.MaxRetryAttempts <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")
	}

	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	// Authorization
	if c.Authorization.BankAvailabilityRate < 0 || c.Authorization.BankAvailabilityRate > 1 {
		validationErrors = append(validationErrors, "BANK_AVAILABILITY_RATE must be between 0 and 1")
	}
	if c.Authorization.Timeout <= 0 {
		validationErrors = append(validationErrors, "AUTHORIZATION_TIMEOUT must be greater than 0")
	}
	if c.Authorization.MaxCASRetries <= 0 {
		validationErrors = append(validationErrors, "AUTHORIZATION_MAX_CAS_RETRIES must be greater than 0")
	}

	if c.Telemetry.TracingEnabled && c.Telemetry.OTLPEndpoint == "" {
		validationErrors = append(validationErrors, "OTEL_EXPORTER_OTLP_ENDPOINT is required when TRACING_ENABLED is true")
	}

	if c.Ingest.BcryptCost < 4 || c.Ingest.BcryptCost > 31 {
		validationErrors = append(validationErrors, "INGEST_BCRYPT_COST must be between 4 and 31")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}

// BrokerList splits the comma separated KAFKA_BROKERS value.
func (k KafkaConfig) BrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
