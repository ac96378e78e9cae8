package store

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// MemoryStore is the journal used with the mock:// DSN
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*TxRecord
	logger  *log.Logger
}

// NewMemoryStore creates an empty in-memory journal
func NewMemoryStore(logger *log.Logger) *MemoryStore {
	logger.Println("Using in-memory transaction journal; records are lost on exit")
	return &MemoryStore{records: make(map[string]*TxRecord), logger: logger}
}

func (m *MemoryStore) InsertTransactionBatch(ctx context.Context, records []*TxRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, r := range records {
		if _, exists := m.records[r.RequestID]; exists {
			continue
		}
		cp := *r
		if cp.Status == "" {
			cp.Status = StatusPending
		}
		cp.CreatedAt, cp.UpdatedAt = now, now
		m.records[r.RequestID] = &cp
	}
	return nil
}

func (m *MemoryStore) MarkTracking(ctx context.Context, requestID string) (*TxRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[requestID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	if !r.Status.Terminal() {
		r.Status = StatusTracking
		r.Attempts++
		r.UpdatedAt = time.Now()
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) MarkAccepted(ctx context.Context, rec CompletionRecord) error {
	return m.update(rec.RequestID, func(r *TxRecord) {
		r.Status = StatusAccepted
		r.FinalTxID = rec.FinalTxID
		if rec.ReportID != "" {
			r.ReportID = rec.ReportID
		}
		r.ErrorMessage = ""
	})
}

func (m *MemoryStore) MarkFailed(ctx context.Context, rec FailureRecord) error {
	return m.update(rec.RequestID, func(r *TxRecord) {
		r.Status = StatusFailed
		r.ErrorMessage = rec.ErrorMessage
	})
}

func (m *MemoryStore) MarkForRetry(ctx context.Context, requestID, errMsg string) error {
	return m.update(requestID, func(r *TxRecord) {
		if r.Status == StatusTracking {
			r.Status = StatusPending
		}
		r.ErrorMessage = errMsg
	})
}

func (m *MemoryStore) GetByRequestID(ctx context.Context, requestID string) (*TxRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[requestID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) Close() {}

func (m *MemoryStore) update(requestID string, fn func(*TxRecord)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[requestID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	fn(r)
	r.UpdatedAt = time.Now()
	return nil
}

var _ Store = (*MemoryStore)(nil)
