// Package mock is an in-memory ledger used by tests and by "mock" deployments.
package mock

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/blockend-dev/AleoWhistle/blockchain/types"
	"github.com/blockend-dev/AleoWhistle/config"
	"github.com/blockend-dev/AleoWhistle/internal/field"
)

// Config is the backend-specific configuration of the mock ledger (currently empty).
type Config struct{}

// Executed records one dispatched write.
type Executed struct {
	Handle types.Handle
	Signer string
	Tx     types.Transaction
	Fee    uint64
}

// Ledger answers status lookups from scripted sequences.
//
// By default every transaction reports pending once and is then accepted under a final id
// derived from its handle. The mock program uses the seed itself as the report id.
type Ledger struct {
	mu         sync.Mutex
	cfg        *config.LedgerConfig
	logger     *log.Logger
	seq        int
	executed   []Executed
	scripts    map[types.Handle][]types.StatusReport
	next       [][]types.StatusReport
	lookups    map[types.Handle]int
	reportIDs  map[string]field.Element
	executeErr error
	statusErr  error
}

// NewLedger creates an empty mock ledger.
func NewLedger(cfg *config.LedgerConfig, logger *log.Logger) *Ledger {
	if cfg == nil {
		cfg = &config.LedgerConfig{LedgerType: "mock"}
		cfg.Fees.SubmitReport, cfg.Fees.UpdateStatus, cfg.Fees.AddComment = 1500000, 50000, 50000
	}
	return &Ledger{
		cfg:       cfg,
		logger:    logger,
		scripts:   make(map[types.Handle][]types.StatusReport),
		lookups:   make(map[types.Handle]int),
		reportIDs: make(map[string]field.Element),
	}
}

// Script queues the status sequence for the next dispatched transaction.
func (l *Ledger) Script(statuses ...types.StatusReport) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next = append(l.next, statuses)
}

// FailExecute makes every following Execute call fail with err (nil clears it).
func (l *Ledger) FailExecute(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.executeErr = err
}

// FailStatus makes every following status lookup fail with err (nil clears it).
func (l *Ledger) FailStatus(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statusErr = err
}

// Execute records the transaction and returns a provisional handle.
func (l *Ledger) Execute(ctx context.Context, signer string, tx types.Transaction) (types.Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.executeErr != nil {
		return "", l.executeErr
	}

	l.seq++
	handle := types.Handle(fmt.Sprintf("tmp_%d", l.seq))
	l.executed = append(l.executed, Executed{Handle: handle, Signer: signer, Tx: tx, Fee: l.cfg.FeeFor(string(tx.Kind()))})

	if len(l.next) > 0 {
		l.scripts[handle] = l.next[0]
		l.next = l.next[1:]
	} else {
		l.scripts[handle] = []types.StatusReport{
			{Status: "Pending"},
			{Status: "Accepted", TransactionID: fmt.Sprintf("at_final_%d", l.seq)},
		}
	}
	if submit, ok := tx.(types.SubmitReport); ok {
		l.reportIDs[fmt.Sprintf("at_final_%d", l.seq)] = submit.Seed
	}
	if l.logger != nil {
		l.logger.Printf("[MockLedger] Executed %s as %s", tx.Kind(), handle)
	}
	return handle, nil
}

// TransactionStatus pops the next scripted status; the last one repeats.
func (l *Ledger) TransactionStatus(ctx context.Context, handle types.Handle) (*types.StatusReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.statusErr != nil {
		return nil, l.statusErr
	}
	script, ok := l.scripts[handle]
	if !ok {
		return nil, fmt.Errorf("unknown transaction handle %q", handle)
	}
	l.lookups[handle]++
	if len(script) == 0 {
		return &types.StatusReport{Status: "Pending"}, nil
	}
	report := script[0]
	if len(script) > 1 {
		l.scripts[handle] = script[1:]
	}
	return &report, nil
}

// ReportID returns the seed of the submit_report accepted under finalTxID.
func (l *Ledger) ReportID(ctx context.Context, finalTxID string) (field.Element, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.reportIDs[finalTxID]
	if !ok {
		return field.Element{}, fmt.Errorf("no submit_report transition in %s", finalTxID)
	}
	return id, nil
}

// Executed returns a copy of the dispatched writes.
func (l *Ledger) Executed() []Executed {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Executed(nil), l.executed...)
}

// Lookups returns how many status lookups a handle has received.
func (l *Ledger) Lookups(handle types.Handle) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lookups[handle]
}

// Config returns the common ledger configuration.
func (l *Ledger) Config() any {
	return l.cfg
}

// Close is a no-op.
func (l *Ledger) Close() error {
	return nil
}
