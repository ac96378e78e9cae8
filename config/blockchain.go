package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// FeeConfig holds the fee attached to each ledger function, in microcredits.
type FeeConfig struct {
	SubmitReport uint64 `yaml:"submit_report"`
	UpdateStatus uint64 `yaml:"update_status"`
	AddComment   uint64 `yaml:"add_comment"`
}

// SetDefaults fills in the standard per-function fees.
func (c *FeeConfig) SetDefaults() {
	if c.SubmitReport == 0 {
		c.SubmitReport = 1500000
		fmt.Printf("Warning: fees.submit_report not set, defaulting to %d\n", c.SubmitReport)
	}
	if c.UpdateStatus == 0 {
		c.UpdateStatus = 50000
		fmt.Printf("Warning: fees.update_status not set, defaulting to %d\n", c.UpdateStatus)
	}
	if c.AddComment == 0 {
		c.AddComment = 50000
		fmt.Printf("Warning: fees.add_comment not set, defaulting to %d\n", c.AddComment)
	}
}

// TrackerConfig controls how dispatched transactions are polled.
type TrackerConfig struct {
	PollInterval string `yaml:"poll_interval"` // delay between status lookups
	Timeout      string `yaml:"timeout"`       // overall bound per transaction
}

// SetDefaults sets the polling cadence and bound.
func (c *TrackerConfig) SetDefaults() {
	if c.PollInterval == "" {
		c.PollInterval = "3s"
		fmt.Printf("Warning: tracker.poll_interval not set, defaulting to %s\n", c.PollInterval)
	}
	if c.Timeout == "" {
		c.Timeout = "5m"
		fmt.Printf("Warning: tracker.timeout not set, defaulting to %s\n", c.Timeout)
	}
}

// LedgerConfig stores common ledger configuration across all ledger backends
type LedgerConfig struct {
	// --- Ledger Type Selection ---
	LedgerType string `yaml:"ledger_type"` // "provable", "chainmaker", "mock"

	// --- Program ---
	Program    string    `yaml:"program"`
	PrivateFee bool      `yaml:"private_fee"`
	Fees       FeeConfig `yaml:"fees"`

	// --- Common Behavior Configuration ---
	RetryLimit     int           `yaml:"retry_limit"`
	RetryInterval  int           `yaml:"retry_interval"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Tracker        TrackerConfig `yaml:"tracker"`

	// --- Backend-specific Configuration ---
	// Loaded separately based on ledger type
	ChainSpecific any `yaml:"-"`
}

// SetDefaults applies defaults to every nested section.
func (c *LedgerConfig) SetDefaults() {
	if c.Program == "" {
		c.Program = "new_whistleblowing_version1.aleo"
		fmt.Printf("Warning: program not set, defaulting to %s\n", c.Program)
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 15
		fmt.Printf("Warning: timeout_seconds not set or invalid, defaulting to %d\n", c.TimeoutSeconds)
	}
	c.Fees.SetDefaults()
	c.Tracker.SetDefaults()
}

// FeeFor returns the configured fee for a ledger function name.
func (c *LedgerConfig) FeeFor(function string) uint64 {
	switch function {
	case "submit_report":
		return c.Fees.SubmitReport
	case "update_status":
		return c.Fees.UpdateStatus
	case "add_comment":
		return c.Fees.AddComment
	default:
		return c.Fees.UpdateStatus
	}
}

// LoadLedgerConfig loads ledger configuration from the specified YAML file path
func LoadLedgerConfig(path string) (*LedgerConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path of config file: %w", err)
	}

	fmt.Printf("Loading ledger configuration from '%s'...\n", absPath)

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", absPath, err)
	}

	var cfg LedgerConfig
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML config file: %w", err)
	}
	cfg.SetDefaults()

	fmt.Println("Ledger configuration loaded successfully.")
	return &cfg, nil
}
