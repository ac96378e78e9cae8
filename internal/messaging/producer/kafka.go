package producer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/blockend-dev/AleoWhistle/config"
	"github.com/blockend-dev/AleoWhistle/internal/models"
)

// KindHeader carries the transaction kind so consumers can filter without decoding.
const KindHeader = "whistle-kind"

// KafkaProducer publishes tracking jobs keyed by transaction handle
type KafkaProducer struct {
	writer *kafka.Writer
	logger *log.Logger
	topic  string
}

// NewKafkaProducer creates a new KafkaProducer
func NewKafkaProducer(cfg config.KafkaProducerConfig, logger *log.Logger) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("kafka producer configuration incomplete: both brokers and topic are required")
	}

	w := &kafka.Writer{
		Addr:  kafka.TCP(cfg.Brokers...),
		Topic: cfg.Topic,
		// Hash on the key keeps every job of one handle on one partition
		Balancer:     &kafka.Hash{},
		BatchSize:    orDefault(cfg.BatchSize, 100),
		BatchTimeout: orDefaultDuration(cfg.BatchTimeout, 100*time.Millisecond),
		BatchBytes:   int64(orDefault(cfg.BatchBytes, 1<<20)),
		RequiredAcks: requiredAcks(cfg.RequiredAcks),
		// Jobs are journaled before publishing, so a synchronous write is what tells the
		// gateway a job really left the process.
		Async:        cfg.Async,
		WriteTimeout: orDefaultDuration(cfg.WriteTimeout, 5*time.Second),
		ReadTimeout:  orDefaultDuration(cfg.ReadTimeout, 5*time.Second),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Printf("Kafka Writer Error: "+msg, args...)
		}),
	}

	logger.Printf("Kafka producer created, connected to Brokers: %v, Topic: %s", cfg.Brokers, cfg.Topic)
	return &KafkaProducer{writer: w, logger: logger, topic: cfg.Topic}, nil
}

// Message converts a tracking job into its queue form
func Message(job *models.TrackJob) (kafka.Message, error) {
	value, err := models.EncodeTrackJob(job)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:     []byte(job.Handle),
		Value:   value,
		Headers: []kafka.Header{{Key: KindHeader, Value: []byte(job.Kind)}},
	}, nil
}

// Publish sends a single tracking job
func (p *KafkaProducer) Publish(ctx context.Context, job *models.TrackJob) error {
	return p.PublishBatch(ctx, []*models.TrackJob{job})
}

// PublishBatch sends tracking jobs in one write. A job that cannot be encoded fails the batch
// before anything is written.
func (p *KafkaProducer) PublishBatch(ctx context.Context, jobs []*models.TrackJob) error {
	if len(jobs) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, len(jobs))
	for i, job := range jobs {
		msg, err := Message(job)
		if err != nil {
			return fmt.Errorf("job %d: %w", i, err)
		}
		msgs[i] = msg
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Printf("Failed to publish %d tracking jobs: %v", len(jobs), err)
		return fmt.Errorf("failed to write tracking jobs to Kafka: %w", err)
	}
	p.logger.Printf("Queued %d tracking jobs (Topic: %s)", len(jobs), p.topic)
	return nil
}

// Close flushes buffered jobs and closes the writer
func (p *KafkaProducer) Close() error {
	p.logger.Println("Closing Kafka producer (and flushing buffer)...")
	return p.writer.Close()
}

func requiredAcks(s string) kafka.RequiredAcks {
	switch s {
	case "none":
		return kafka.RequireNone
	case "one":
		return kafka.RequireOne
	default:
		return kafka.RequireAll
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

var _ Producer = (*KafkaProducer)(nil) // Compile-time interface check
