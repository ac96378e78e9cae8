package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	blockchain "github.com/blockend-dev/AleoWhistle/blockchain/client"
	"github.com/blockend-dev/AleoWhistle/config"
	core "github.com/blockend-dev/AleoWhistle/ingestion/service/core"
	httphandler "github.com/blockend-dev/AleoWhistle/ingestion/service/http"
	"github.com/blockend-dev/AleoWhistle/internal/messaging/producer"
	"github.com/blockend-dev/AleoWhistle/storage/content"
	"github.com/blockend-dev/AleoWhistle/storage/store"
	"github.com/blockend-dev/AleoWhistle/submission"
)

// Gateway configuration file path
const gatewayConfigPath = "./config/gateway.defaults.yml"

func main() {
	logger := log.New(os.Stdout, "[GATEWAY] ", log.LstdFlags|log.Lshortfile)
	logger.Println("Starting report gateway...")

	// 1. Load configuration
	cfg, err := config.LoadGatewayConfig(gatewayConfigPath)
	if err != nil {
		logger.Fatalf("Failed to load gateway configuration: %v", err)
	}
	storageCfg, err := config.LoadStorageConfig(cfg.StorageConfigPath)
	if err != nil {
		logger.Fatalf("Failed to load storage configuration: %v", err)
	}
	keysCfg, err := config.LoadKeysConfig(cfg.KeysConfigPath)
	if err != nil {
		logger.Fatalf("Failed to load keys configuration: %v", err)
	}
	session, err := submission.SessionFromConfig(keysCfg)
	if err != nil {
		logger.Fatalf("Invalid recipient keys: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize dependencies
	logger.Println("Initializing transaction journal...")
	journal, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize transaction journal: %v", err)
	}
	defer journal.Close()

	var jobProducer producer.Producer
	if cfg.KafkaProducer.IsMock() {
		logger.Println("Initializing mock tracking job producer...")
		jobProducer = producer.NewMockProducer(logger)
	} else {
		logger.Println("Initializing Kafka producer...")
		jobProducer, err = producer.NewKafkaProducer(cfg.KafkaProducer, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize Kafka producer: %v", err)
		}
	}
	defer jobProducer.Close()

	logger.Println("Initializing ledger client using configuration files...")
	ledger, err := blockchain.NewLedgerClientFromFile(cfg.LedgerConfigPath, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize ledger client: %v", err)
	}
	defer ledger.Close()

	contentStore, err := content.NewStore(storageCfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize content store: %v", err)
	}

	// 3. Create core Service and Handlers. Confirmation is the engine's job.
	orch := submission.NewOrchestrator(contentStore, ledger, nil, logger)
	coreService := core.NewService(
		orch,
		session,
		journal,
		jobProducer,
		logger,
		cfg.BatchProcessor.BatchSize,
		cfg.BatchProcessor.BatchTimeout,
		cfg.BatchProcessor.FlushChannelBuffer,
	)
	defer coreService.Close()

	mux := http.NewServeMux()
	httphandler.NewReportHandler(coreService, cfg.HttpServer.MaxBodyBytes, logger).Register(mux)

	httpServer := &http.Server{
		Addr:           cfg.HttpListenAddr,
		Handler:        mux,
		ReadTimeout:    cfg.HttpServer.ReadTimeout,
		WriteTimeout:   cfg.HttpServer.WriteTimeout,
		IdleTimeout:    cfg.HttpServer.IdleTimeout,
		MaxHeaderBytes: cfg.HttpServer.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("HTTP server listening on %s (%d recipients)", cfg.HttpListenAddr, len(session.Recipients))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	// 4. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Printf("Received shutdown signal: %s, starting graceful shutdown of gateway...", sig)
	case err := <-serverErr:
		logger.Printf("HTTP server startup failed: %v", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	logger.Println("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server shutdown failed: %v", err)
	}
	logger.Println("Gateway shutdown.")
}
