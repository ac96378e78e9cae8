// Package store journals dispatched ledger transactions and their confirmation outcome.
// Only public values are kept: handles, final ids, report ids and error text.
package store

import (
	"context"
	"errors"
	"time"
)

// TxStatus is the journal state of one dispatched transaction.
type TxStatus string

const (
	StatusPending  TxStatus = "PENDING"  // journaled, tracking job published
	StatusTracking TxStatus = "TRACKING" // an engine worker is polling the ledger
	StatusAccepted TxStatus = "ACCEPTED"
	StatusFailed   TxStatus = "FAILED"
)

// Terminal reports whether the record can no longer change.
func (s TxStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusFailed
}

// ErrNotFound is returned for unknown request ids.
var ErrNotFound = errors.New("transaction record not found")

// TxRecord is one journal row
type TxRecord struct {
	RequestID    string    `json:"request_id"`
	Handle       string    `json:"handle"`
	Kind         string    `json:"kind"`
	ReportID     string    `json:"report_id,omitempty"`
	Status       TxStatus  `json:"status"`
	FinalTxID    string    `json:"final_tx_id,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Attempts     int       `json:"attempts"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CompletionRecord closes a record as accepted
type CompletionRecord struct {
	RequestID string
	FinalTxID string
	ReportID  string // empty when the ledger could not report it
}

// FailureRecord closes a record as failed
type FailureRecord struct {
	RequestID    string
	ErrorMessage string
}

// Store defines the journal operations used by the gateway and the engine
type Store interface {
	// InsertTransactionBatch journals freshly dispatched transactions; existing ids are kept
	InsertTransactionBatch(ctx context.Context, records []*TxRecord) error

	// MarkTracking claims a record for polling and bumps its attempt counter. Terminal records
	// are returned unchanged so redelivered jobs can be acknowledged without work.
	MarkTracking(ctx context.Context, requestID string) (*TxRecord, error)

	// MarkAccepted records the final transaction id
	MarkAccepted(ctx context.Context, rec CompletionRecord) error

	// MarkFailed records why the transaction did not make it
	MarkFailed(ctx context.Context, rec FailureRecord) error

	// MarkForRetry puts a claimed record back to pending after a transient error
	MarkForRetry(ctx context.Context, requestID, errMsg string) error

	// GetByRequestID returns one record or ErrNotFound
	GetByRequestID(ctx context.Context, requestID string) (*TxRecord, error)

	Close()
}
