package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/blockend-dev/AleoWhistle/blockchain/types"
	"github.com/blockend-dev/AleoWhistle/config"
	"github.com/blockend-dev/AleoWhistle/internal/messaging/producer"
	"github.com/blockend-dev/AleoWhistle/internal/models"
	"github.com/blockend-dev/AleoWhistle/storage/store"
)

// BatchProcessor journals dispatched transactions and publishes their tracking jobs in batches
type BatchProcessor struct {
	batchSize    int
	batchTimeout time.Duration
	logger       *log.Logger
	store        store.Store
	producer     producer.Producer

	// Buffers
	buffer      []*batchEntry
	bufferMutex sync.Mutex
	flushChan   chan []*batchEntry

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type batchEntry struct {
	record *store.TxRecord
	job    *models.TrackJob
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(batchSize int, batchTimeout time.Duration, flushChannelBuffer int,
	store store.Store, producer producer.Producer, logger *log.Logger) *BatchProcessor {
	var defaults config.BatchProcessorConfig
	defaults.SetDefaults()
	if batchSize <= 0 {
		batchSize = defaults.BatchSize
	}
	if batchTimeout <= 0 {
		// time.NewTicker panics on a non-positive period
		batchTimeout = defaults.BatchTimeout
	}
	if flushChannelBuffer < 0 {
		flushChannelBuffer = defaults.FlushChannelBuffer
	}

	ctx, cancel := context.WithCancel(context.Background())

	bp := &BatchProcessor{
		batchSize:    batchSize,
		batchTimeout: batchTimeout,
		logger:       logger,
		store:        store,
		producer:     producer,
		buffer:       make([]*batchEntry, 0, batchSize),
		flushChan:    make(chan []*batchEntry, flushChannelBuffer),
		ctx:          ctx,
		cancel:       cancel,
	}

	bp.wg.Add(2)
	go bp.batchTimer()
	go bp.batchProcessor()

	return bp
}

// Submit queues one dispatched transaction
func (bp *BatchProcessor) Submit(requestID string, handle types.Handle, kind types.TxKind, reportID string) {
	rec, job := newJob(requestID, handle, kind, reportID, time.Now())
	entry := &batchEntry{record: rec, job: job}

	bp.bufferMutex.Lock()
	bp.buffer = append(bp.buffer, entry)
	shouldFlush := len(bp.buffer) >= bp.batchSize
	bp.bufferMutex.Unlock()

	if shouldFlush {
		batch := bp.getAndResetBuffer()
		select {
		case bp.flushChan <- batch:
		default:
			bp.requeue(batch)
			bp.logger.Printf("Flush channel full, will flush on next timer")
		}
	}
}

// batchTimer handles periodic flushing
func (bp *BatchProcessor) batchTimer() {
	defer bp.wg.Done()

	ticker := time.NewTicker(bp.batchTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			bp.flushIfNeeded()
		case <-bp.ctx.Done():
			return
		}
	}
}

// batchProcessor handles actual batch processing
func (bp *BatchProcessor) batchProcessor() {
	defer bp.wg.Done()

	for {
		select {
		case batch := <-bp.flushChan:
			bp.processBatch(batch)
		case <-bp.ctx.Done():
			// Drain queued batches and the buffer before shutdown
			for drained := false; !drained; {
				select {
				case batch := <-bp.flushChan:
					bp.processBatch(batch)
				default:
					drained = true
				}
			}
			bp.processBatch(bp.getAndResetBuffer())
			return
		}
	}
}

// flushIfNeeded flushes the buffer if it has entries
func (bp *BatchProcessor) flushIfNeeded() {
	batch := bp.getAndResetBuffer()
	if len(batch) == 0 {
		return
	}
	select {
	case bp.flushChan <- batch:
	default:
		bp.requeue(batch)
	}
}

// getAndResetBuffer safely gets the current buffer and resets it
func (bp *BatchProcessor) getAndResetBuffer() []*batchEntry {
	bp.bufferMutex.Lock()
	defer bp.bufferMutex.Unlock()

	batch := make([]*batchEntry, len(bp.buffer))
	copy(batch, bp.buffer)
	bp.buffer = bp.buffer[:0]
	return batch
}

// requeue puts a batch that could not be handed off back in front of the buffer
func (bp *BatchProcessor) requeue(batch []*batchEntry) {
	bp.bufferMutex.Lock()
	bp.buffer = append(batch, bp.buffer...)
	bp.bufferMutex.Unlock()
}

// processBatch journals the batch, then publishes its tracking jobs
func (bp *BatchProcessor) processBatch(batch []*batchEntry) {
	if len(batch) == 0 {
		return
	}

	start := time.Now()
	records := make([]*store.TxRecord, len(batch))
	jobs := make([]*models.TrackJob, len(batch))
	for i, entry := range batch {
		records[i] = entry.record
		jobs[i] = entry.job
	}

	// Journal first so the engine always finds the record a job points at
	dbStart := time.Now()
	if err := bp.store.InsertTransactionBatch(context.Background(), records); err != nil {
		bp.logger.Printf("Batch journal insert failed for %d transactions: %v", len(batch), err)
		return
	}
	dbDuration := time.Since(dbStart)

	kafkaStart := time.Now()
	if err := bp.producer.PublishBatch(context.Background(), jobs); err != nil {
		// Records stay PENDING; the handles are still visible through the journal
		bp.logger.Printf("Batch tracking job publish failed for %d transactions: %v", len(batch), err)
		return
	}
	kafkaDuration := time.Since(kafkaStart)

	bp.logger.Printf("Batch processed: %d transactions, DB: %v, Kafka: %v, Total: %v",
		len(batch), dbDuration, kafkaDuration, time.Since(start))
}

// Close flushes what is buffered and stops the processor
func (bp *BatchProcessor) Close() {
	bp.cancel()
	bp.wg.Wait()
}
