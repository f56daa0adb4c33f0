package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	// Kafka
	KafkaBrokers     string
	KafkaLedgerTopic string
	KafkaDLQTopic    string

	// Service
	APIPort             int
	WorkerConsumerGroup string
	PublisherInterval   time.Duration
	PublisherBatchSize  int

	// Observability
	JaegerEndpoint string
	Env            string

	// API
	APIKey string

	// Ledger domain
	MaturityDays     int
	MinPayoutAmount  int64
	DefaultCurrency  string
	DefaultMinAmount int64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		PostgresHost:        getEnv("POSTGRES_HOST", "postgres"),
		PostgresPort:        getEnvAsInt("POSTGRES_PORT", 5432),
		PostgresUser:        getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword:    getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:          getEnv("POSTGRES_DB", "settlement_ledger"),
		KafkaBrokers:        getEnv("KAFKA_BROKERS", "redpanda:9092"),
		KafkaLedgerTopic:    getEnv("KAFKA_LEDGER_TOPIC", "ledger.postings"),
		KafkaDLQTopic:       getEnv("KAFKA_DLQ_TOPIC", "ledger.postings.dlq"),
		APIPort:             getEnvAsInt("API_PORT", 8080),
		WorkerConsumerGroup: getEnv("WORKER_CONSUMER_GROUP", "ledger-activity-projector"),
		PublisherInterval:   getEnvAsDuration("PUBLISHER_INTERVAL", 5*time.Second),
		PublisherBatchSize:  getEnvAsInt("PUBLISHER_BATCH_SIZE", 100),
		JaegerEndpoint:      getEnv("JAEGER_ENDPOINT", ""),
		Env:                 getEnv("ENV", "development"),
		APIKey:              getEnv("API_KEY", ""),
		MaturityDays:        getEnvAsInt("MATURITY_DAYS", 7),
		MinPayoutAmount:     int64(getEnvAsInt("MIN_PAYOUT_AMOUNT", 10000)),
		DefaultCurrency:     getEnv("DEFAULT_CURRENCY", "PEN"),
		DefaultMinAmount:    int64(getEnvAsInt("DEFAULT_BATCH_MIN_AMOUNT", 5000)),
	}

	return cfg, nil
}

// GetPostgresDSN returns the PostgreSQL connection string
func (c *Config) GetPostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
