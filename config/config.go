package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the complete application configuration
type Config struct {
	Engine  *EngineConfig
	Gateway *GatewayConfig
	Ledger  *LedgerConfig
	Storage *StorageConfig
	Keys    *KeysConfig
}

// LoadConfig loads all configuration files present in a directory
func LoadConfig(configDir string) (*Config, error) {
	absDir, err := filepath.Abs(configDir)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path of config directory: %w", err)
	}

	config := &Config{}

	// Load engine config
	enginePath := filepath.Join(absDir, "engine.defaults.yml")
	if _, err := os.Stat(enginePath); err == nil {
		engineCfg, err := LoadEngineConfig(enginePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load engine config: %w", err)
		}
		config.Engine = engineCfg
	}

	// Load gateway config
	gatewayPath := filepath.Join(absDir, "gateway.defaults.yml")
	if _, err := os.Stat(gatewayPath); err == nil {
		gatewayCfg, err := LoadGatewayConfig(gatewayPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load gateway config: %w", err)
		}
		config.Gateway = gatewayCfg
	}

	// Load ledger config
	ledgerPath := filepath.Join(absDir, "client_config.yml")
	if _, err := os.Stat(ledgerPath); err == nil {
		ledgerCfg, err := LoadLedgerConfig(ledgerPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load ledger config: %w", err)
		}
		config.Ledger = ledgerCfg
	}

	// Load content store config
	storagePath := filepath.Join(absDir, "storage.yml")
	if _, err := os.Stat(storagePath); err == nil {
		storageCfg, err := LoadStorageConfig(storagePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load storage config: %w", err)
		}
		config.Storage = storageCfg
	}

	// Load recipient keys
	keysPath := filepath.Join(absDir, "keys.yml")
	if _, err := os.Stat(keysPath); err == nil {
		keysCfg, err := LoadKeysConfig(keysPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load keys config: %w", err)
		}
		config.Keys = keysCfg
	}

	return config, nil
}
