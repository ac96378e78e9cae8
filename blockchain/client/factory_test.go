package blockchain

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockend-dev/AleoWhistle/blockchain/client/mock"
	"github.com/blockend-dev/AleoWhistle/blockchain/client/provable"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewLedgerClientFromFileMock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client_config.yml")
	writeFile(t, path, "ledger_type: mock\n")

	client, err := NewLedgerClientFromFile(path, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	defer client.Close()

	assert.IsType(t, &mock.Ledger{}, client)
	_, ok := client.(ReceiptReader)
	assert.True(t, ok)
}

func TestNewLedgerClientFromFileProvable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client_config.yml")
	writeFile(t, path, "ledger_type: provable\nfees:\n  submit_report: 2000000\n")
	writeFile(t, filepath.Join(dir, "clients", "provable.yml"), "bridge_url: http://127.0.0.1:4100\n")

	client, err := NewLedgerClientFromFile(path, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	defer client.Close()

	pcfg, ok := client.Config().(*provable.ProvableConfig)
	require.True(t, ok)
	assert.Equal(t, "https://api.provable.com/v2/testnet", pcfg.ExplorerURL)
}

func TestUnsupportedLedgerType(t *testing.T) {
	_, err := LoadChainSpecificConfig("ethereum", t.TempDir())
	assert.Error(t, err)
}

func TestProvableWithoutBridgeFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client_config.yml")
	writeFile(t, path, "ledger_type: provable\n")
	writeFile(t, filepath.Join(dir, "clients", "provable.yml"), "network: testnet\n")

	client, err := NewLedgerClientFromFile(path, log.New(io.Discard, "", 0))
	assert.Error(t, err)
	assert.Nil(t, client)
}
