package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// KafkaProducerConfig defines configuration for Kafka producer
type KafkaProducerConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`

	// Batch processing settings
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	BatchBytes   int           `yaml:"batch_bytes"`

	// Reliability settings
	RequiredAcks string `yaml:"required_acks"`
	Async        bool   `yaml:"async"`

	// Performance settings
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
}

// IsMock reports whether tracking jobs should stay in process.
func (c *KafkaProducerConfig) IsMock() bool {
	return len(c.Brokers) == 0 || c.Brokers[0] == "mock://local"
}

// BatchProcessorConfig defines configuration for batching tracking jobs
type BatchProcessorConfig struct {
	BatchSize          int           `yaml:"batch_size"`
	BatchTimeout       time.Duration `yaml:"batch_timeout"`
	FlushChannelBuffer int           `yaml:"flush_channel_buffer"` // Buffer size for flush channel
}

// SetDefaults sets reasonable default values for batch processor configuration
func (c *BatchProcessorConfig) SetDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
		fmt.Printf("Warning: batch_processor.batch_size not set or invalid, defaulting to %d\n", c.BatchSize)
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 200 * time.Millisecond
		fmt.Printf("Warning: batch_processor.batch_timeout not set or invalid, defaulting to %v\n", c.BatchTimeout)
	}
	if c.FlushChannelBuffer <= 0 {
		c.FlushChannelBuffer = 16
		fmt.Printf("Warning: batch_processor.flush_channel_buffer not set or invalid, defaulting to %d\n", c.FlushChannelBuffer)
	}
}

// HttpServerConfig defines HTTP server configuration
type HttpServerConfig struct {
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
}

// SetDefaults fills in server timeouts and limits.
func (c *HttpServerConfig) SetDefaults() {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 2 * time.Minute
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.MaxHeaderBytes == 0 {
		c.MaxHeaderBytes = 1 << 20 // 1 MB
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 32 << 20 // evidence files travel inline
	}
}

// GatewayConfig defines all configurations required for the gateway
type GatewayConfig struct {
	HttpListenAddr string `yaml:"http_listen_addr"`

	Database       DatabaseConfig       `yaml:"database"`       // Use unified DatabaseConfig
	KafkaProducer  KafkaProducerConfig  `yaml:"kafka_producer"` // Tracking job producer
	BatchProcessor BatchProcessorConfig `yaml:"batch_processor"`
	HttpServer     HttpServerConfig     `yaml:"http_server"`

	LedgerConfigPath  string `yaml:"ledger_config_path"`
	StorageConfigPath string `yaml:"storage_config_path"`
	KeysConfigPath    string `yaml:"keys_config_path"`
}

// LoadGatewayConfig loads gateway configuration from the specified YAML file path
func LoadGatewayConfig(path string) (*GatewayConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway config file '%s': %w", path, err)
	}

	var cfg GatewayConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse gateway YAML config file: %w", err)
	}

	cfg.Database.SetDefaults()
	cfg.BatchProcessor.SetDefaults()
	cfg.HttpServer.SetDefaults()

	if cfg.LedgerConfigPath == "" {
		cfg.LedgerConfigPath = "./config/client_config.yml"
	}
	if cfg.StorageConfigPath == "" {
		cfg.StorageConfigPath = "./config/storage.yml"
	}
	if cfg.KeysConfigPath == "" {
		cfg.KeysConfigPath = "./config/keys.yml"
	}

	// Validation
	if cfg.HttpListenAddr == "" {
		return nil, fmt.Errorf("configuration error: http_listen_addr must be configured")
	}

	// Validate database configuration
	if err := cfg.Database.Validate(); err != nil {
		return nil, fmt.Errorf("database configuration error: %w", err)
	}

	return &cfg, nil
}
