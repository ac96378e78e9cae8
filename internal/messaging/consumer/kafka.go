package consumer

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/blockend-dev/AleoWhistle/config"
	"github.com/blockend-dev/AleoWhistle/internal/models"
)

// KafkaConsumer reads tracking jobs from a consumer group. A NACKed job is written back to
// the topic before its offset is released, so it is retried without blocking the partition.
// Offsets are committed only up to the oldest job still being tracked.
type KafkaConsumer struct {
	reader *kafka.Reader
	retry  *kafka.Writer
	logger *log.Logger

	window   *commitWindow
	commitMu sync.Mutex // keeps commits of one consumer monotonic
}

// NewKafkaConsumer creates a new KafkaConsumer instance
func NewKafkaConsumer(cfg config.KafkaConsumerConfig, logger *log.Logger) (*KafkaConsumer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" {
		return nil, errors.New("incomplete kafka configuration: brokers, topic, group_id are all required")
	}

	sessionTimeout := parseDuration(cfg.SessionTimeout, 30*time.Second, "session_timeout", logger)
	heartbeatInterval := parseDuration(cfg.HeartbeatInterval, 3*time.Second, "heartbeat_interval", logger)
	// A member rejoining a rebalance may still be tracking jobs it fetched earlier
	rebalanceTimeout := parseDuration(cfg.MaxProcessingTime, 10*time.Minute, "max_processing_time", logger)

	startOffset := kafka.FirstOffset
	switch cfg.AutoOffsetReset {
	case "latest":
		startOffset = kafka.LastOffset
	case "earliest", "":
	default:
		logger.Printf("Warning: Unknown auto_offset_reset '%s', using earliest", cfg.AutoOffsetReset)
	}

	readerConfig := kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		Topic:             cfg.Topic,
		MinBytes:          1,    // jobs are small and latency matters more than throughput
		MaxBytes:          10e6, // 10MB
		MaxWait:           500 * time.Millisecond,
		SessionTimeout:    sessionTimeout,
		HeartbeatInterval: heartbeatInterval,
		RebalanceTimeout:  rebalanceTimeout,
		StartOffset:       startOffset,
	}
	if cfg.EnableAutoCommit {
		readerConfig.CommitInterval = time.Second
	}

	logger.Printf("Kafka consumer created, connected to Brokers: %v, Topic: %s, GroupID: %s", cfg.Brokers, cfg.Topic, cfg.GroupID)

	return &KafkaConsumer{
		reader: kafka.NewReader(readerConfig),
		retry: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		logger: logger,
		window: newCommitWindow(),
	}, nil
}

// Consume implements the Consumer interface by reading messages from Kafka
func (k *KafkaConsumer) Consume(ctx context.Context) (*models.TrackJob, func(success bool), error) {
	for {
		kafkaMsg, err := k.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				k.logger.Println("Kafka consumer: Context cancelled, stopping consumption.")
				return nil, nil, ctx.Err()
			}
			return nil, nil, err
		}

		k.window.track(kafkaMsg.Partition, kafkaMsg.Offset)

		job, err := models.DecodeTrackJob(kafkaMsg.Value)
		if err != nil {
			// Poison message: release it and read the next one
			k.logger.Printf("Kafka consumer: Discarding message at offset %d: %v", kafkaMsg.Offset, err)
			k.release(ctx, kafkaMsg)
			continue
		}

		return job, k.ackFunc(kafkaMsg, job), nil
	}
}

func (k *KafkaConsumer) ackFunc(kafkaMsg kafka.Message, job *models.TrackJob) func(success bool) {
	return func(success bool) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if !success {
			retryMsg := kafka.Message{Key: kafkaMsg.Key, Value: kafkaMsg.Value, Headers: kafkaMsg.Headers}
			if err := k.retry.WriteMessages(ctx, retryMsg); err != nil {
				// Leave the offset uncommitted; the group redelivers it after a rebalance
				k.logger.Printf("Kafka consumer: Failed to requeue request_id %s: %v", job.RequestID, err)
				return
			}
			k.logger.Printf("Kafka consumer: Requeued request_id %s (handle %s)", job.RequestID, job.Handle)
		}
		k.release(ctx, kafkaMsg)
	}
}

// release marks a message handled and commits the partition up to the last offset whose
// predecessors are all handled too.
func (k *KafkaConsumer) release(ctx context.Context, msg kafka.Message) {
	k.commitMu.Lock()
	defer k.commitMu.Unlock()

	upTo, ok := k.window.complete(msg.Partition, msg.Offset)
	if !ok {
		return
	}
	commit := kafka.Message{Topic: msg.Topic, Partition: msg.Partition, Offset: upTo}
	if err := k.reader.CommitMessages(ctx, commit); err != nil {
		k.logger.Printf("Kafka consumer: Failed to commit partition %d up to offset %d: %v", msg.Partition, upTo, err)
	}
}

// Close implements the Consumer interface by closing the Kafka reader
func (k *KafkaConsumer) Close() error {
	k.logger.Println("Closing Kafka consumer...")
	return errors.Join(k.reader.Close(), k.retry.Close())
}

func parseDuration(s string, def time.Duration, name string, logger *log.Logger) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		logger.Printf("Warning: Invalid %s '%s', using default %s", name, s, def)
		return def
	}
	return d
}

// Ensure KafkaConsumer implements the Consumer interface
var _ Consumer = (*KafkaConsumer)(nil)
