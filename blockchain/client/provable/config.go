package provable

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// ProvableConfig stores configuration for the Aleo wallet bridge and explorer API
type ProvableConfig struct {
	// --- Wallet bridge (signs and broadcasts) ---
	BridgeURL    string `yaml:"bridge_url"`     // exposes POST /execute and GET /status/{handle}
	BridgeKeyEnv string `yaml:"bridge_key_env"` // env var holding the bridge bearer token

	// --- Explorer (read-only) ---
	ExplorerURL string `yaml:"explorer_url"`
	Network     string `yaml:"network"`
}

// SetDefaults points the explorer at the public testnet API.
func (c *ProvableConfig) SetDefaults() {
	if c.Network == "" {
		c.Network = "testnet"
		fmt.Printf("Warning: provable.network not set, defaulting to %s\n", c.Network)
	}
	if c.ExplorerURL == "" {
		c.ExplorerURL = "https://api.provable.com/v2/" + c.Network
		fmt.Printf("Warning: provable.explorer_url not set, defaulting to %s\n", c.ExplorerURL)
	}
}

// Validate checks the fields that have no usable default.
func (c *ProvableConfig) Validate() error {
	if c.BridgeURL == "" {
		return fmt.Errorf("provable.bridge_url is required")
	}
	return nil
}

// LoadProvableConfig loads Provable configuration from the specified YAML file path
func LoadProvableConfig(path string) (*ProvableConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path of Provable config file: %w", err)
	}

	fmt.Printf("Loading Provable configuration from '%s'...\n", absPath)

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read Provable config file '%s': %w", absPath, err)
	}

	var cfg ProvableConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse Provable YAML config file: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fmt.Println("Provable configuration loaded successfully.")
	return &cfg, nil
}
