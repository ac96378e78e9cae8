package processing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	blockchain "github.com/blockend-dev/AleoWhistle/blockchain/client"
	"github.com/blockend-dev/AleoWhistle/blockchain/types"
	"github.com/blockend-dev/AleoWhistle/config"
	"github.com/blockend-dev/AleoWhistle/internal/messaging/consumer"
	"github.com/blockend-dev/AleoWhistle/internal/models"
	"github.com/blockend-dev/AleoWhistle/storage/store"
)

// Worker consumes tracking jobs and follows each transaction concurrently
type Worker struct {
	workerConfig       config.WorkerConfig
	consumerRetryDelay time.Duration // Parsed from workerConfig.ConsumerRetryDelay

	logger   *log.Logger
	store    store.Store
	consumer consumer.Consumer
	tracker  *Tracker
	receipts blockchain.ReceiptReader // nil when the ledger cannot read receipts
}

// New creates a new Worker instance
func New(cfg config.WorkerConfig, logger *log.Logger, s store.Store, c consumer.Consumer, ledger blockchain.LedgerClient, tracker *Tracker) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.MaxTrackAttempts <= 0 {
		cfg.MaxTrackAttempts = 3
	}

	consumerRetryDelay, err := time.ParseDuration(cfg.ConsumerRetryDelay)
	if err != nil {
		logger.Printf("Warning: Invalid consumer_retry_delay '%s', using default 5s", cfg.ConsumerRetryDelay)
		consumerRetryDelay = 5 * time.Second
	}

	receipts, _ := ledger.(blockchain.ReceiptReader)

	return &Worker{
		workerConfig:       cfg,
		consumerRetryDelay: consumerRetryDelay,
		logger:             logger,
		store:              s,
		consumer:           c,
		tracker:            tracker,
		receipts:           receipts,
	}
}

// Run consumes jobs until ctx is cancelled, tracking at most Concurrency of them at a time
func (w *Worker) Run(ctx context.Context) {
	w.logger.Printf("Starting confirmation worker with concurrency: %d", w.workerConfig.Concurrency)

	slots := make(chan struct{}, w.workerConfig.Concurrency)
	var wg sync.WaitGroup
	defer func() {
		wg.Wait()
		w.logger.Println("Confirmation worker stopped.")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case slots <- struct{}{}:
		}

		job, ack, err := w.consumer.Consume(ctx)
		if err != nil {
			<-slots
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				continue
			}
			// Only log real consumer errors
			w.logger.Printf("Consumer error: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.consumerRetryDelay):
			}
			continue
		}
		if job == nil {
			<-slots
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-slots }()
			ack(w.handleJob(ctx, job))
		}()
	}
}

// handleJob tracks one transaction and journals the outcome. It returns whether the job
// should be acknowledged.
func (w *Worker) handleJob(ctx context.Context, job *models.TrackJob) bool {
	if job.RequestID == "" || job.Handle == "" {
		w.logger.Printf("Dropping malformed tracking job: %+v", job)
		return true
	}

	rec, err := w.store.MarkTracking(ctx, job.RequestID)
	if errors.Is(err, store.ErrNotFound) {
		// The gateway publishes only after journaling, so this job is stale.
		w.logger.Printf("Job %s has no journal record, dropping", job.RequestID)
		return true
	}
	if err != nil {
		w.logger.Printf("DB error claiming job %s: %v", job.RequestID, err)
		return false
	}
	if rec.Status.Terminal() {
		return true
	}
	if rec.Attempts > w.workerConfig.MaxTrackAttempts {
		w.markFailed(job.RequestID, fmt.Sprintf("gave up after %d tracking attempts: %s", rec.Attempts-1, rec.ErrorMessage))
		return true
	}

	start := time.Now()
	finalID, err := w.tracker.Await(ctx, types.Handle(job.Handle))
	var txErr *TransactionError
	var timeoutErr *TimeoutError
	switch {
	case err == nil:
		completion := store.CompletionRecord{RequestID: job.RequestID, FinalTxID: finalID}
		if job.Kind == string(types.KindSubmitReport) && w.receipts != nil {
			if id, rerr := w.receipts.ReportID(ctx, finalID); rerr != nil {
				w.logger.Printf("Job %s: accepted as %s but report id unavailable: %v", job.RequestID, finalID, rerr)
			} else {
				completion.ReportID = id.String()
			}
		}
		if err := w.store.MarkAccepted(context.WithoutCancel(ctx), completion); err != nil {
			w.logger.Printf("CRITICAL: MarkAccepted failed for %s: %v", job.RequestID, err)
			return false
		}
		w.logger.Printf("Job %s: %s accepted as %s in %v", job.RequestID, job.Kind, finalID, time.Since(start))
		return true

	case errors.As(err, &txErr), errors.As(err, &timeoutErr):
		return w.markFailed(job.RequestID, err.Error())

	default:
		// Shutdown or a transient lookup error: leave the job for redelivery.
		if markErr := w.store.MarkForRetry(context.WithoutCancel(ctx), job.RequestID, err.Error()); markErr != nil {
			w.logger.Printf("CRITICAL: MarkForRetry failed for %s: %v", job.RequestID, markErr)
		}
		if !errors.Is(err, ErrCanceled) {
			w.logger.Printf("Job %s: tracking interrupted: %v", job.RequestID, err)
		}
		return false
	}
}

func (w *Worker) markFailed(requestID, msg string) bool {
	if err := w.store.MarkFailed(context.Background(), store.FailureRecord{RequestID: requestID, ErrorMessage: msg}); err != nil {
		w.logger.Printf("CRITICAL: MarkFailed failed for %s: %v", requestID, err)
		return false
	}
	w.logger.Printf("Job %s failed: %s", requestID, msg)
	return true
}
