package chainmaker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/blockend-dev/AleoWhistle/blockchain/types"
	"github.com/blockend-dev/AleoWhistle/config"
	"github.com/blockend-dev/AleoWhistle/internal/field"

	"chainmaker.org/chainmaker/pb-go/v2/common"
	sdk "chainmaker.org/chainmaker/sdk-go/v2"
)

// Client is the wrapper around the ChainMaker SDK client
type Client struct {
	sdkClient *sdk.ChainClient
	cfg       *config.LedgerConfig
	logger    *log.Logger
}

// NewChainMakerClient initializes the ChainMaker SDK client with the combined configuration
func NewChainMakerClient(cfg *config.LedgerConfig, logger *log.Logger) (*Client, error) {
	logger.Println("Initializing ChainMaker SDK client using builder pattern...")

	// Extract ChainMaker-specific configuration
	chainmakerCfg, ok := cfg.ChainSpecific.(*ChainMakerConfig)
	if !ok {
		return nil, fmt.Errorf("invalid ChainMaker configuration type")
	}
	if err := chainmakerCfg.Validate(); err != nil {
		return nil, err
	}

	opts, err := clientOptions(cfg, chainmakerCfg)
	if err != nil {
		return nil, err
	}

	client, err := sdk.NewChainClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build ChainMaker SDK client: %w", err)
	}
	if err := client.EnableCertHash(); err != nil {
		logger.Printf("Warning: cert hash disabled, full certs will be sent: %v", err)
	}

	logger.Println("ChainMaker SDK client initialized successfully.")

	return &Client{
		sdkClient: client,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// clientOptions maps the identity, node list and retry policy onto SDK options
func clientOptions(cfg *config.LedgerConfig, cm *ChainMakerConfig) ([]sdk.ChainClientOption, error) {
	opts := []sdk.ChainClientOption{
		sdk.WithChainClientOrgId(cm.OrgID),
		sdk.WithChainClientChainId(cm.ChainID),
		sdk.WithUserKeyFilePath(cm.UserKeyPath),
		sdk.WithUserCrtFilePath(cm.UserCertPath),
		sdk.WithUserSignKeyFilePath(cm.UserSignKeyPath),
		sdk.WithUserSignCrtFilePath(cm.UserSignCertPath),
	}
	for _, n := range cm.Nodes {
		if n.UseTLS && len(n.CaPaths) == 0 {
			return nil, fmt.Errorf("node %s: TLS enabled without ca_paths", n.Address)
		}
		opts = append(opts, sdk.AddChainClientNodeConfig(sdk.NewNodeConfig(
			sdk.WithNodeAddr(n.Address),
			sdk.WithNodeConnCnt(n.ConnCount),
			sdk.WithNodeUseTLS(n.UseTLS),
			sdk.WithNodeCAPaths(n.CaPaths),
			sdk.WithNodeTLSHostName(n.TLSHostName),
		)))
	}
	if cfg.RetryLimit > 0 {
		opts = append(opts, sdk.WithRetryLimit(cfg.RetryLimit))
	}
	if cfg.RetryInterval > 0 {
		opts = append(opts, sdk.WithRetryInterval(cfg.RetryInterval))
	}
	return opts, nil
}

func (c *Client) chainmaker() *ChainMakerConfig {
	return c.cfg.ChainSpecific.(*ChainMakerConfig)
}

// Config returns the configuration associated with the client.
func (c *Client) Config() any {
	if c.cfg == nil || c.cfg.ChainSpecific == nil {
		log.Println("Warning: Accessing client config before initialization.")
		return &ChainMakerConfig{} // Return empty config to avoid nil pointer panic
	}
	return c.cfg.ChainSpecific
}

// Close stops the SDK client
func (c *Client) Close() error {
	c.logger.Println("Closing ChainMaker SDK client...")
	if err := c.sdkClient.Stop(); err != nil {
		c.logger.Printf("Error stopping ChainMaker SDK client: %v", err)
		return fmt.Errorf("failed to stop ChainMaker SDK client: %w", err)
	}
	return nil
}

// Execute invokes the contract method for tx without waiting for the block. The SDK-generated
// tx id is both the provisional handle and the final id.
func (c *Client) Execute(ctx context.Context, signer string, tx types.Transaction) (types.Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	method, kvs, err := buildInvocation(c.chainmaker(), signer, tx)
	if err != nil {
		return "", err
	}

	resp, err := c.sdkClient.InvokeContract(c.chainmaker().ContractName, method, "", kvs, -1, false)
	if err != nil {
		return "", fmt.Errorf("SDK invoke failed: %w", err)
	}
	if resp.Code != common.TxStatusCode_SUCCESS {
		return "", fmt.Errorf("contract execution failed: %s (code: %d)", resp.Message, resp.Code)
	}
	c.logger.Printf("Dispatched %s as %s", tx.Kind(), resp.TxId)
	return types.Handle(resp.TxId), nil
}

// TransactionStatus looks the tx id up on chain. A tx the node does not know yet is pending.
func (c *Client) TransactionStatus(ctx context.Context, handle types.Handle) (*types.StatusReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if handle == "" {
		return nil, fmt.Errorf("transaction hash cannot be empty")
	}
	txInfo, err := c.sdkClient.GetTxByTxId(string(handle))
	return statusFromTxInfo(handle, txInfo, err)
}

// ReportID reads the report id from the contract event emitted by submit_report.
func (c *Client) ReportID(ctx context.Context, finalTxID string) (field.Element, error) {
	if err := ctx.Err(); err != nil {
		return field.Element{}, err
	}
	txInfo, err := c.sdkClient.GetTxByTxId(finalTxID)
	if err != nil {
		return field.Element{}, fmt.Errorf("SDK get transaction failed: %w", err)
	}
	return reportIDFromTxInfo(c.chainmaker().ReportEventTopic, finalTxID, txInfo)
}

func buildInvocation(cfg *ChainMakerConfig, signer string, tx types.Transaction) (string, []*common.KeyValuePair, error) {
	method, err := cfg.MethodFor(string(tx.Kind()))
	if err != nil {
		return "", nil, err
	}
	inputs, err := json.Marshal(tx.Inputs())
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal inputs: %w", err)
	}
	kvs := []*common.KeyValuePair{
		{Key: cfg.ParamKeyInputs, Value: inputs},
	}
	if signer != "" {
		kvs = append(kvs, &common.KeyValuePair{Key: cfg.ParamKeySigner, Value: []byte(signer)})
	}
	return method, kvs, nil
}

func statusFromTxInfo(handle types.Handle, txInfo *common.TransactionInfo, err error) (*types.StatusReport, error) {
	if err != nil {
		if isTxNotFound(err) {
			return &types.StatusReport{Status: string(types.StatePending)}, nil
		}
		return nil, fmt.Errorf("SDK get transaction failed: %w", err)
	}
	if txInfo == nil || txInfo.Transaction == nil || txInfo.Transaction.Result == nil {
		return &types.StatusReport{Status: string(types.StatePending)}, nil
	}
	if txInfo.Transaction.Result.Code != common.TxStatusCode_SUCCESS {
		return &types.StatusReport{Status: string(types.StateFailed)}, nil
	}
	return &types.StatusReport{Status: string(types.StateAccepted), TransactionID: string(handle)}, nil
}

func reportIDFromTxInfo(topic, txID string, txInfo *common.TransactionInfo) (field.Element, error) {
	if txInfo == nil || txInfo.Transaction == nil || txInfo.Transaction.Result == nil || txInfo.Transaction.Result.ContractResult == nil {
		return field.Element{}, fmt.Errorf("transaction data is incomplete or nil for tx: %s", txID)
	}
	if txInfo.Transaction.Result.Code != common.TxStatusCode_SUCCESS {
		return field.Element{}, fmt.Errorf("transaction execution failed: %s", txInfo.Transaction.Result.Message)
	}
	for _, event := range txInfo.Transaction.Result.ContractResult.ContractEvent {
		if event.Topic != topic {
			continue
		}
		if len(event.EventData) == 0 {
			return field.Element{}, fmt.Errorf("malformed event data: event '%s' carries no report id", topic)
		}
		return field.Parse(event.EventData[0])
	}
	return field.Element{}, fmt.Errorf("event '%s' not found in transaction %s", topic, txID)
}

// The SDK reports unknown tx ids through its error text only.
func isTxNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no such")
}
