package blockchain

import (
	"context"

	"github.com/blockend-dev/AleoWhistle/blockchain/types"
	"github.com/blockend-dev/AleoWhistle/internal/field"
)

// LedgerClient defines the generic interface for ledger interactions
// This interface is backend-agnostic and can be implemented by different ledger clients
type LedgerClient interface {
	// Execute dispatches a write signed by signer and returns its provisional handle
	Execute(ctx context.Context, signer string, tx types.Transaction) (types.Handle, error)

	// TransactionStatus reports the current state of a dispatched write
	TransactionStatus(ctx context.Context, handle types.Handle) (*types.StatusReport, error)

	// Close closes the ledger client and releases resources
	Close() error

	// Config returns the configuration associated with the client
	Config() any // Return any to accommodate different config types
}

// ReceiptReader is implemented by ledgers that can read back accepted transactions
type ReceiptReader interface {
	// ReportID extracts the report identifier the program derived for a submit_report transaction
	ReportID(ctx context.Context, finalTxID string) (field.Element, error)
}
