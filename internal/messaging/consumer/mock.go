package consumer

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/blockend-dev/AleoWhistle/internal/models"
)

// MockConsumer serves tracking jobs from an in-memory channel. Every delivery gets the next
// offset of a single partition, committed in order the way KafkaConsumer does.
type MockConsumer struct {
	logger   *log.Logger
	messages chan *models.TrackJob
	closed   bool
	mu       sync.Mutex

	window    *commitWindow
	next      int64 // offset of the next delivery
	committed int64 // offset a restarted consumer would resume from
}

// NewMockConsumer creates a MockConsumer preloaded with jobs.
func NewMockConsumer(logger *log.Logger, jobs ...*models.TrackJob) *MockConsumer {
	mc := &MockConsumer{
		logger:   logger,
		messages: make(chan *models.TrackJob, len(jobs)+64),
		window:   newCommitWindow(),
	}
	for _, job := range jobs {
		mc.messages <- job
	}
	logger.Printf("[MockConsumer] Initialized with %d predefined jobs", len(jobs))
	return mc
}

// Enqueue adds a job as if it had been published.
func (m *MockConsumer) Enqueue(job *models.TrackJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("message channel closed")
	}
	select {
	case m.messages <- job:
		return nil
	default:
		return errors.New("mock consumer buffer full")
	}
}

// Consume reads jobs from the channel. A NACK puts the job back.
func (m *MockConsumer) Consume(ctx context.Context) (msg *models.TrackJob, ack func(success bool), err error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case msg, ok := <-m.messages:
		if !ok || msg == nil {
			m.logger.Println("[MockConsumer] Message channel closed")
			return nil, nil, errors.New("message channel closed")
		}
		m.mu.Lock()
		offset := m.next
		m.next++
		m.mu.Unlock()
		m.window.track(0, offset)
		m.logger.Printf("[MockConsumer] Consumed job: request_id=%s handle=%s offset=%d", msg.RequestID, msg.Handle, offset)

		ackCallback := func(success bool) {
			if success {
				m.logger.Printf("[MockConsumer] ACK received for job: request_id=%s", msg.RequestID)
			} else {
				m.logger.Printf("[MockConsumer] NACK received for job: request_id=%s. Re-queueing (mock)", msg.RequestID)
				if err := m.Enqueue(msg); err != nil {
					m.logger.Printf("[MockConsumer] Warning: Failed to re-queue job %s: %v", msg.RequestID, err)
					return
				}
			}
			m.release(offset)
		}
		return msg, ackCallback, nil
	}
}

func (m *MockConsumer) release(offset int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if upTo, ok := m.window.complete(0, offset); ok {
		m.committed = upTo + 1
	}
}

// Committed returns the offset a restarted consumer would resume from.
func (m *MockConsumer) Committed() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.committed
}

// Close closes the message channel.
func (m *MockConsumer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.logger.Println("[MockConsumer] Closing...")
	m.closed = true
	close(m.messages)
	return nil
}

var _ Consumer = (*MockConsumer)(nil)
