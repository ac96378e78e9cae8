// Package content stores encrypted blobs and hands back content-addressed locators.
package content

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/blockend-dev/AleoWhistle/config"
)

// ErrNotFound is returned by Get when a locator names no stored object.
var ErrNotFound = errors.New("content not found")

// ErrTooLarge is returned when an object exceeds the configured size cap.
var ErrTooLarge = errors.New("content exceeds size limit")

// Store is the content store contract: bytes in, locator out, and back.
type Store interface {
	// Put stores data under a display name and returns its CID string
	Put(ctx context.Context, name string, data []byte) (string, error)
	// Get returns the bytes a locator names
	Get(ctx context.Context, locator string) ([]byte, error)
}

var (
	_ Store = (*PinataStore)(nil)
	_ Store = (*KuboStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// NewStore builds the backend selected by cfg.StoreType.
func NewStore(cfg *config.StorageConfig, logger *log.Logger) (Store, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		logger.Printf("Warning: invalid storage timeout '%s', using default 60s. Error: %v", cfg.Timeout, err)
		timeout = 60 * time.Second
	}

	switch cfg.StoreType {
	case "pinata":
		return NewPinataStore(cfg.Pinata, cfg.MaxBytes, timeout, logger)
	case "kubo":
		return NewKuboStore(cfg.Kubo, cfg.MaxBytes, timeout, logger)
	case "memory":
		logger.Println("Using in-memory content store; stored objects are lost on exit")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store_type: %s", cfg.StoreType)
	}
}
