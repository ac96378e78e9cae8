package blockchain

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/blockend-dev/AleoWhistle/blockchain/client/chainmaker"
	"github.com/blockend-dev/AleoWhistle/blockchain/client/mock"
	"github.com/blockend-dev/AleoWhistle/blockchain/client/provable"
	"github.com/blockend-dev/AleoWhistle/config"
)

// LedgerType represents the type of ledger client
type LedgerType string

const (
	Provable   LedgerType = "provable"
	ChainMaker LedgerType = "chainmaker"
	Mock       LedgerType = "mock"
)

// LoadChainSpecificConfig loads backend-specific configuration based on ledger type
func LoadChainSpecificConfig(ledgerType string, configDir string) (any, error) {
	switch LedgerType(ledgerType) {
	case Provable, "":
		// Default to Provable if not specified
		return provable.LoadProvableConfig(filepath.Join(configDir, "clients", "provable.yml"))
	case ChainMaker:
		return chainmaker.LoadChainMakerConfig(filepath.Join(configDir, "clients", "chainmaker.yml"))
	case Mock:
		return &mock.Config{}, nil
	default:
		return nil, fmt.Errorf("unsupported ledger type: %s", ledgerType)
	}
}

var (
	_ LedgerClient  = (*provable.Client)(nil)
	_ ReceiptReader = (*provable.Client)(nil)
	_ LedgerClient  = (*chainmaker.Client)(nil)
	_ ReceiptReader = (*chainmaker.Client)(nil)
	_ LedgerClient  = (*mock.Ledger)(nil)
	_ ReceiptReader = (*mock.Ledger)(nil)
)

// NewLedgerClient creates a ledger client based on the configuration
func NewLedgerClient(cfg *config.LedgerConfig, logger *log.Logger) (LedgerClient, error) {
	switch LedgerType(cfg.LedgerType) {
	case Provable, "":
		client, err := provable.NewProvableClient(cfg, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case ChainMaker:
		client, err := chainmaker.NewChainMakerClient(cfg, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case Mock:
		return mock.NewLedger(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported ledger type: %s", cfg.LedgerType)
	}
}

// NewLedgerClientFromFile creates a ledger client from configuration files
func NewLedgerClientFromFile(configPath string, logger *log.Logger) (LedgerClient, error) {
	// Load common configuration
	cfg, err := config.LoadLedgerConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load common config from file '%s': %w", configPath, err)
	}

	// Load backend-specific configuration
	configDir := filepath.Dir(configPath)
	chainSpecificCfg, err := LoadChainSpecificConfig(cfg.LedgerType, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load chain-specific config: %w", err)
	}

	cfg.ChainSpecific = chainSpecificCfg
	return NewLedgerClient(cfg, logger)
}
