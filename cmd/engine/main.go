package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	blockchain "github.com/blockend-dev/AleoWhistle/blockchain/client"
	"github.com/blockend-dev/AleoWhistle/config"
	"github.com/blockend-dev/AleoWhistle/internal/messaging/consumer"
	worker "github.com/blockend-dev/AleoWhistle/processing"
	"github.com/blockend-dev/AleoWhistle/storage/store"
)

const engineConfigPath = "./config/engine.defaults.yml"

func main() {
	logger := log.New(os.Stdout, "[ENGINE] ", log.LstdFlags|log.Lshortfile)
	logger.Println("Starting Confirmation Engine...")

	// 1. Load Engine Config
	engineCfg, err := config.LoadEngineConfig(engineConfigPath)
	if err != nil {
		logger.Fatalf("FATAL: Failed to load engine configuration: %v", err)
	}
	ledgerCfg, err := config.LoadLedgerConfig(engineCfg.LedgerConfigPath)
	if err != nil {
		logger.Fatalf("FATAL: Failed to load ledger configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize Dependencies
	logger.Println("Initializing transaction journal...")
	journal, err := store.Open(ctx, engineCfg.Database, logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize transaction journal: %v", err)
	}
	defer journal.Close()

	logger.Println("Initializing ledger client using configuration files...")
	ledger, err := blockchain.NewLedgerClientFromFile(engineCfg.LedgerConfigPath, logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize ledger client: %v", err)
	}
	defer ledger.Close()

	tracker := worker.NewTrackerFromConfig(ledger, ledgerCfg.Tracker, logger)

	// 3. Initialize Multiple Consumers
	var mqConsumers []consumer.Consumer
	if !engineCfg.KafkaConsumer.IsMock() {
		logger.Printf("Initializing %d Kafka message queue consumers...", engineCfg.KafkaConsumer.Count)
		for i := 0; i < engineCfg.KafkaConsumer.Count; i++ {
			kafkaConsumer, err := consumer.NewKafkaConsumer(engineCfg.KafkaConsumer, logger)
			if err != nil {
				logger.Fatalf("FATAL: Failed to initialize Kafka consumer %d: %v", i, err)
			}
			mqConsumers = append(mqConsumers, kafkaConsumer)
		}
	} else {
		logger.Println("Initializing Mock message queue consumer...")
		mqConsumers = append(mqConsumers, consumer.NewMockConsumer(logger))
	}

	// Ensure all consumers are closed on exit
	defer func() {
		for _, c := range mqConsumers {
			c.Close()
		}
	}()

	// 4. Optional health listener
	var healthServer *http.Server
	if engineCfg.Monitoring.ListenAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc(engineCfg.Monitoring.HealthCheckPath, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"healthy","service":"whistle-engine"}`))
		})
		healthServer = &http.Server{Addr: engineCfg.Monitoring.ListenAddr, Handler: mux, ReadTimeout: 5 * time.Second}
		go func() {
			logger.Printf("Health endpoint listening on %s%s", engineCfg.Monitoring.ListenAddr, engineCfg.Monitoring.HealthCheckPath)
			if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("Health endpoint failed: %v", err)
			}
		}()
	}

	// 5. Create and Start Multiple Workers
	var workers []*worker.Worker
	var wg sync.WaitGroup

	for i, c := range mqConsumers {
		workerInstance := worker.New(engineCfg.Worker, logger, journal, c, ledger, tracker)
		workers = append(workers, workerInstance)

		wg.Add(1)
		go func(workerID int, w *worker.Worker) {
			defer wg.Done()
			logger.Printf("Starting worker %d with its dedicated consumer...", workerID)
			w.Run(ctx)
			logger.Printf("Worker %d stopped.", workerID)
		}(i+1, workerInstance)
	}

	logger.Printf("Confirmation Engine started with %d workers. Press Ctrl+C to stop.", len(workers))

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Println("Received shutdown signal, initiating graceful shutdown...")
	cancel()

	if healthServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = healthServer.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	// Wait for all workers to finish
	logger.Println("Waiting for all workers to finish...")
	wg.Wait()

	logger.Println("Confirmation Engine shut down gracefully.")
}
