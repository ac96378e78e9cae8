package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// KafkaConsumerConfig defines configuration for Kafka consumer
type KafkaConsumerConfig struct {
	Brokers           []string `yaml:"brokers"`             // e.g., ["kafka1:9092", "kafka2:9092"]
	Topic             string   `yaml:"topic"`               // Topic to consume tracking jobs from
	GroupID           string   `yaml:"group_id"`            // Consumer group ID
	Count             int      `yaml:"count"`               // Number of consumers to create
	SessionTimeout    string   `yaml:"session_timeout"`     // Kafka session timeout
	HeartbeatInterval string   `yaml:"heartbeat_interval"`  // Kafka heartbeat interval
	MaxProcessingTime string   `yaml:"max_processing_time"` // Maximum time for processing a message
	AutoOffsetReset   string   `yaml:"auto_offset_reset"`   // earliest/latest
	EnableAutoCommit  bool     `yaml:"enable_auto_commit"`  // Enable auto offset commit
}

// SetDefaults sets reasonable default values for Kafka consumer configuration
func (c *KafkaConsumerConfig) SetDefaults() {
	if c.Count <= 0 {
		c.Count = 1
		fmt.Printf("Warning: kafka_consumer.count not set or invalid, defaulting to %d\n", c.Count)
	}
	if c.SessionTimeout == "" {
		c.SessionTimeout = "30s"
		fmt.Printf("Warning: kafka_consumer.session_timeout not set, defaulting to %s\n", c.SessionTimeout)
	}
	if c.HeartbeatInterval == "" {
		c.HeartbeatInterval = "3s"
		fmt.Printf("Warning: kafka_consumer.heartbeat_interval not set, defaulting to %s\n", c.HeartbeatInterval)
	}
	if c.MaxProcessingTime == "" {
		c.MaxProcessingTime = "10m"
		fmt.Printf("Warning: kafka_consumer.max_processing_time not set, defaulting to %s\n", c.MaxProcessingTime)
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = "earliest"
		fmt.Printf("Warning: kafka_consumer.auto_offset_reset not set, defaulting to %s\n", c.AutoOffsetReset)
	}
}

// IsMock reports whether the predefined mock consumer was requested.
func (c *KafkaConsumerConfig) IsMock() bool {
	return len(c.Brokers) == 0 || c.Brokers[0] == "mock://local"
}

// WorkerConfig defines configuration for the confirmation workers
type WorkerConfig struct {
	Concurrency        int    `yaml:"concurrency"`          // Transactions tracked in parallel per consumer
	ConsumerRetryDelay string `yaml:"consumer_retry_delay"` // Delay when consumer encounters errors
	MaxTrackAttempts   int    `yaml:"max_track_attempts"`   // Redeliveries before a job is marked failed
}

// SetDefaults sets reasonable default values for worker configuration
func (c *WorkerConfig) SetDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 8
		fmt.Printf("Warning: worker.concurrency not set or invalid, defaulting to %d\n", c.Concurrency)
	}
	if c.ConsumerRetryDelay == "" {
		c.ConsumerRetryDelay = "5s"
		fmt.Printf("Warning: worker.consumer_retry_delay not set, defaulting to %s\n", c.ConsumerRetryDelay)
	}
	if c.MaxTrackAttempts <= 0 {
		c.MaxTrackAttempts = 3
		fmt.Printf("Warning: worker.max_track_attempts not set or invalid, defaulting to %d\n", c.MaxTrackAttempts)
	}
}

// EngineMonitoringConfig defines monitoring configuration for engine
type EngineMonitoringConfig struct {
	HealthCheckPath string `yaml:"health_check_path"` // Health check endpoint path
	ListenAddr      string `yaml:"listen_addr"`       // Optional health listener
}

// SetDefaults sets reasonable default values for monitoring configuration
func (c *EngineMonitoringConfig) SetDefaults() {
	if c.HealthCheckPath == "" {
		c.HealthCheckPath = "/health"
		fmt.Printf("Warning: monitoring.health_check_path not set, defaulting to %s\n", c.HealthCheckPath)
	}
}

// EngineConfig defines all configuration for the confirmation engine
type EngineConfig struct {
	// Database Configuration - using unified DatabaseConfig
	Database DatabaseConfig `yaml:"database"`

	// Kafka Consumer Configuration
	KafkaConsumer KafkaConsumerConfig `yaml:"kafka_consumer"`

	// Worker Configuration
	Worker WorkerConfig `yaml:"worker"`

	// Monitoring Configuration
	Monitoring EngineMonitoringConfig `yaml:"monitoring"`

	// Ledger Client Configuration
	LedgerConfigPath string `yaml:"ledger_config_path"`
}

// LoadEngineConfig loads configuration from the specified YAML file path
func LoadEngineConfig(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg EngineConfig
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML config file: %w", err)
	}

	// Set default values for all configurations
	cfg.Database.SetDefaults()
	cfg.KafkaConsumer.SetDefaults()
	cfg.Worker.SetDefaults()
	cfg.Monitoring.SetDefaults()

	if cfg.LedgerConfigPath == "" {
		cfg.LedgerConfigPath = "./config/client_config.yml"
		fmt.Printf("Warning: ledger_config_path not set, defaulting to %s\n", cfg.LedgerConfigPath)
	}

	// Validate database configuration
	if err := cfg.Database.Validate(); err != nil {
		return nil, fmt.Errorf("database configuration error: %w", err)
	}

	return &cfg, nil
}
