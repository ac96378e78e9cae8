package store

import (
	"context"
	"log"
	"time"

	"github.com/blockend-dev/AleoWhistle/config"
)

// Open returns the in-memory journal for mock:// DSNs and a Postgres journal otherwise.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *log.Logger) (Store, error) {
	if cfg.IsMock() {
		return NewMemoryStore(logger), nil
	}
	cfg.LogConfiguration(logger)

	maxIdle, err := time.ParseDuration(cfg.MaxIdleTime)
	if err != nil {
		logger.Printf("Warning: Invalid max_idle_time '%s', using pool default", cfg.MaxIdleTime)
		maxIdle = 0
	}
	maxLifetime, err := time.ParseDuration(cfg.MaxLifetime)
	if err != nil {
		logger.Printf("Warning: Invalid max_lifetime '%s', using pool default", cfg.MaxLifetime)
		maxLifetime = 0
	}

	poolCfg, err := PoolConfig(cfg.DSN, cfg.MaxConnections, cfg.MinConnections, maxIdle, maxLifetime)
	if err != nil {
		return nil, err
	}
	return connect(ctx, poolCfg, logger)
}
