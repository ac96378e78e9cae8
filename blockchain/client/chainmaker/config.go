package chainmaker

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// NodeConfig stores detailed configuration for a single ChainMaker node
type NodeConfig struct {
	Address     string   `yaml:"address"`
	ConnCount   int      `yaml:"conn_count"`
	UseTLS      bool     `yaml:"use_tls"`
	TLSHostName string   `yaml:"tls_host_name"`
	CaPaths     []string `yaml:"ca_paths"`
}

// ChainMakerConfig stores ChainMaker-specific configuration
type ChainMakerConfig struct {
	// --- SDK Connection Required ---
	ChainID string `yaml:"chain_id"`
	OrgID   string `yaml:"org_id"`

	// TLS Connection Credentials
	UserKeyPath  string `yaml:"user_key_path"`
	UserCertPath string `yaml:"user_cert_path"`

	// Transaction Signing Credentials
	UserSignKeyPath  string `yaml:"user_sign_key_path"`
	UserSignCertPath string `yaml:"user_sign_cert_path"`

	Nodes []NodeConfig `yaml:"nodes"`

	// --- Report Contract ---
	ContractName           string `yaml:"contract_name"`
	SubmitReportMethodName string `yaml:"submit_report_method_name"`
	UpdateStatusMethodName string `yaml:"update_status_method_name"`
	AddCommentMethodName   string `yaml:"add_comment_method_name"`
	ParamKeyInputs         string `yaml:"param_key_inputs"` // JSON array of ledger literals
	ParamKeySigner         string `yaml:"param_key_signer"`
	ReportEventTopic       string `yaml:"report_event_topic"` // first event datum is the report id
}

// SetDefaults fills in the method and parameter names used by the reference contract.
func (c *ChainMakerConfig) SetDefaults() {
	if c.SubmitReportMethodName == "" {
		c.SubmitReportMethodName = "submit_report"
		fmt.Printf("Warning: submit_report_method_name not set, defaulting to %s\n", c.SubmitReportMethodName)
	}
	if c.UpdateStatusMethodName == "" {
		c.UpdateStatusMethodName = "update_status"
		fmt.Printf("Warning: update_status_method_name not set, defaulting to %s\n", c.UpdateStatusMethodName)
	}
	if c.AddCommentMethodName == "" {
		c.AddCommentMethodName = "add_comment"
		fmt.Printf("Warning: add_comment_method_name not set, defaulting to %s\n", c.AddCommentMethodName)
	}
	if c.ParamKeyInputs == "" {
		c.ParamKeyInputs = "inputs"
		fmt.Printf("Warning: param_key_inputs not set, defaulting to %s\n", c.ParamKeyInputs)
	}
	if c.ParamKeySigner == "" {
		c.ParamKeySigner = "signer"
		fmt.Printf("Warning: param_key_signer not set, defaulting to %s\n", c.ParamKeySigner)
	}
	if c.ReportEventTopic == "" {
		c.ReportEventTopic = "report_submitted"
		fmt.Printf("Warning: report_event_topic not set, defaulting to %s\n", c.ReportEventTopic)
	}
}

// Validate checks the fields the SDK cannot run without.
func (c *ChainMakerConfig) Validate() error {
	if c.ChainID == "" || c.OrgID == "" {
		return fmt.Errorf("chain_id and org_id are required")
	}
	if c.ContractName == "" {
		return fmt.Errorf("contract_name is required")
	}
	if len(c.Nodes) == 0 {
		return fmt.Errorf("no node configurations provided in config")
	}
	return nil
}

// MethodFor maps a ledger function onto the contract method that implements it.
func (c *ChainMakerConfig) MethodFor(function string) (string, error) {
	switch function {
	case "submit_report":
		return c.SubmitReportMethodName, nil
	case "update_status":
		return c.UpdateStatusMethodName, nil
	case "add_comment":
		return c.AddCommentMethodName, nil
	default:
		return "", fmt.Errorf("no contract method configured for %q", function)
	}
}

// LoadChainMakerConfig loads ChainMaker configuration from the specified YAML file path
func LoadChainMakerConfig(path string) (*ChainMakerConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path of ChainMaker config file: %w", err)
	}

	fmt.Printf("Loading ChainMaker configuration from '%s'...\n", absPath)

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ChainMaker config file '%s': %w", absPath, err)
	}

	var cfg ChainMakerConfig
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ChainMaker YAML config file: %w", err)
	}
	cfg.SetDefaults()

	fmt.Println("ChainMaker configuration loaded successfully.")
	return &cfg, nil
}
