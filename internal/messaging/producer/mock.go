package producer

import (
	"context"
	"log"
	"sync"

	"github.com/blockend-dev/AleoWhistle/internal/models"
)

// MockProducer keeps published jobs in memory and optionally hands each one to Forward.
type MockProducer struct {
	mu        sync.Mutex
	logger    *log.Logger
	published []*models.TrackJob
	failWith  error

	// Forward, when set, receives every published job (e.g. an in-process MockConsumer).
	Forward func(*models.TrackJob) error
}

// NewMockProducer creates an empty MockProducer
func NewMockProducer(logger *log.Logger) *MockProducer {
	return &MockProducer{logger: logger}
}

// Fail makes subsequent publishes return err; nil restores normal behavior.
func (p *MockProducer) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failWith = err
}

func (p *MockProducer) Publish(ctx context.Context, msg *models.TrackJob) error {
	return p.PublishBatch(ctx, []*models.TrackJob{msg})
}

func (p *MockProducer) PublishBatch(ctx context.Context, msgs []*models.TrackJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	for _, msg := range msgs {
		p.published = append(p.published, msg)
		if p.Forward != nil {
			if err := p.Forward(msg); err != nil {
				p.logger.Printf("[MockProducer] Forward of job %s failed: %v", msg.RequestID, err)
			}
		}
	}
	p.logger.Printf("[MockProducer] Published %d tracking jobs", len(msgs))
	return nil
}

// Published returns a copy of every job published so far.
func (p *MockProducer) Published() []*models.TrackJob {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*models.TrackJob(nil), p.published...)
}

func (p *MockProducer) Close() error { return nil }

var _ Producer = (*MockProducer)(nil)
