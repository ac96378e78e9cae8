// Package provable talks to an Aleo wallet bridge for writes and to the Provable explorer API
// for reads.
package provable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/blockend-dev/AleoWhistle/blockchain/types"
	"github.com/blockend-dev/AleoWhistle/config"
)

// maxResponseBytes caps bodies read from the bridge and the explorer.
const maxResponseBytes = 4 << 20

// Client signs and broadcasts through the wallet bridge
type Client struct {
	httpClient *http.Client
	cfg        *config.LedgerConfig
	token      string
	logger     *log.Logger
}

type executeRequest struct {
	Program    string   `json:"program"`
	Function   string   `json:"function"`
	Inputs     []string `json:"inputs"`
	Fee        uint64   `json:"fee"`
	PrivateFee bool     `json:"privateFee"`
	Network    string   `json:"network"`
	Signer     string   `json:"signer,omitempty"`
}

// NewProvableClient builds a client from the common ledger config and its *ProvableConfig
func NewProvableClient(cfg *config.LedgerConfig, logger *log.Logger) (*Client, error) {
	pcfg, ok := cfg.ChainSpecific.(*ProvableConfig)
	if !ok || pcfg == nil {
		return nil, fmt.Errorf("invalid Provable configuration type")
	}
	if err := pcfg.Validate(); err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	var token string
	if pcfg.BridgeKeyEnv != "" {
		token = os.Getenv(pcfg.BridgeKeyEnv)
		if token == "" {
			logger.Printf("Warning: %s is empty, calling the wallet bridge without credentials", pcfg.BridgeKeyEnv)
		}
	}

	logger.Printf("Provable client ready (bridge: %s, explorer: %s, program: %s)", pcfg.BridgeURL, pcfg.ExplorerURL, cfg.Program)
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		token:      token,
		logger:     logger,
	}, nil
}

func (c *Client) provable() *ProvableConfig {
	return c.cfg.ChainSpecific.(*ProvableConfig)
}

// Execute asks the bridge to sign and broadcast tx. The bridge answers either with a bare
// string or with an object carrying transactionId.
func (c *Client) Execute(ctx context.Context, signer string, tx types.Transaction) (types.Handle, error) {
	function := string(tx.Kind())
	body, err := json.Marshal(executeRequest{
		Program:    c.cfg.Program,
		Function:   function,
		Inputs:     tx.Inputs(),
		Fee:        c.cfg.FeeFor(function),
		PrivateFee: c.cfg.PrivateFee,
		Network:    c.provable().Network,
		Signer:     signer,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal execute request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.bridgeURL("execute"), body)
	if err != nil {
		return "", fmt.Errorf("execute %s: %w", function, err)
	}

	result := gjson.ParseBytes(resp)
	handle := result.String()
	if result.IsObject() {
		handle = result.Get("transactionId").String()
	}
	if handle == "" {
		return "", fmt.Errorf("execute %s: bridge response carries no transaction id", function)
	}
	c.logger.Printf("Dispatched %s as %s", function, handle)
	return types.Handle(handle), nil
}

// TransactionStatus asks the bridge about a provisional handle. An empty answer means the
// wallet has nothing to report yet.
func (c *Client) TransactionStatus(ctx context.Context, handle types.Handle) (*types.StatusReport, error) {
	resp, err := c.do(ctx, http.MethodGet, c.bridgeURL("status", string(handle)), nil)
	if err != nil {
		return nil, fmt.Errorf("status %s: %w", handle, err)
	}
	result := gjson.ParseBytes(resp)
	if !result.IsObject() {
		return &types.StatusReport{}, nil
	}
	return &types.StatusReport{
		Status:        result.Get("status").String(),
		TransactionID: result.Get("transactionId").String(),
	}, nil
}

// Config returns the configuration associated with the client.
func (c *Client) Config() any {
	return c.cfg.ChainSpecific
}

// Close releases idle connections
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) bridgeURL(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return strings.TrimRight(c.provable().BridgeURL, "/") + "/" + strings.Join(escaped, "/")
}

func (c *Client) do(ctx context.Context, method, target string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, errorMessage(data))
	}
	return data, nil
}

func errorMessage(body []byte) string {
	for _, key := range []string{"error", "message"} {
		if msg := gjson.GetBytes(body, key).String(); msg != "" {
			return msg
		}
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return strings.TrimSpace(string(body))
}
