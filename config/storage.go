package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// PinataConfig configures the pinning service backend.
type PinataConfig struct {
	APIURL     string `yaml:"api_url"`
	GatewayURL string `yaml:"gateway_url"`
	JWTEnv     string `yaml:"jwt_env"` // name of the environment variable holding the JWT
}

// KuboConfig configures a Kubo node reached over its RPC API.
type KuboConfig struct {
	APIURL     string `yaml:"api_url"`
	CidVersion int    `yaml:"cid_version"`
}

// StorageConfig selects and configures the content store.
type StorageConfig struct {
	StoreType string       `yaml:"store_type"` // "pinata", "kubo", "memory"
	Timeout   string       `yaml:"timeout"`
	MaxBytes  int64        `yaml:"max_bytes"`
	Pinata    PinataConfig `yaml:"pinata"`
	Kubo      KuboConfig   `yaml:"kubo"`
}

// SetDefaults sets reasonable default values for the content store.
func (c *StorageConfig) SetDefaults() {
	if c.StoreType == "" {
		c.StoreType = "pinata"
		fmt.Printf("Warning: store_type not set, defaulting to %s\n", c.StoreType)
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
		fmt.Printf("Warning: timeout not set, defaulting to %s\n", c.Timeout)
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 64 << 20
	}
	if c.Pinata.APIURL == "" {
		c.Pinata.APIURL = "https://api.pinata.cloud"
	}
	if c.Pinata.GatewayURL == "" {
		c.Pinata.GatewayURL = "https://gateway.pinata.cloud"
	}
	if c.Pinata.JWTEnv == "" {
		c.Pinata.JWTEnv = "PINATA_JWT"
	}
	if c.Kubo.APIURL == "" {
		c.Kubo.APIURL = "http://127.0.0.1:5001"
	}
}

// Validate checks the selected backend.
func (c *StorageConfig) Validate() error {
	switch c.StoreType {
	case "pinata", "kubo", "memory":
		return nil
	default:
		return fmt.Errorf("unsupported store_type: %s", c.StoreType)
	}
}

// LoadStorageConfig loads content store configuration from the specified YAML file path
func LoadStorageConfig(path string) (*StorageConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage config file '%s': %w", path, err)
	}

	var cfg StorageConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse storage YAML config file: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("storage configuration error: %w", err)
	}
	return &cfg, nil
}
