package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// RecipientConfig names one party allowed to open submitted reports.
type RecipientConfig struct {
	Name      string `yaml:"name"`
	PublicKey string `yaml:"public_key"` // "<x>field"
}

// KeysConfig carries the explicit session context for ledger writes.
type KeysConfig struct {
	Signer         string            `yaml:"signer"`           // account that pays fees
	Recipients     []RecipientConfig `yaml:"recipients"`       // e.g. admin, reviewer
	PrivateKeyPath string            `yaml:"private_key_path"` // reviewer scalar, review side only
}

// Validate checks that at least one recipient is configured.
func (c *KeysConfig) Validate() error {
	if len(c.Recipients) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}
	for i, r := range c.Recipients {
		if r.PublicKey == "" {
			return fmt.Errorf("recipient %d (%s) has no public_key", i, r.Name)
		}
	}
	return nil
}

// LoadKeysConfig loads recipient keys from the specified YAML file path
func LoadKeysConfig(path string) (*KeysConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keys config file '%s': %w", path, err)
	}

	var cfg KeysConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse keys YAML config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("keys configuration error: %w", err)
	}
	return &cfg, nil
}
