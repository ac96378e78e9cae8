package producer

import (
	"context"

	"github.com/blockend-dev/AleoWhistle/internal/models"
)

// Producer defines the interface for message queue producer
type Producer interface {
	// Publish sends a single tracking job to the configured topic
	Publish(ctx context.Context, msg *models.TrackJob) error

	// PublishBatch sends tracking jobs in batch to the configured topic
	PublishBatch(ctx context.Context, msgs []*models.TrackJob) error

	// Close closes the producer connection
	Close() error
}
