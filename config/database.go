package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// MockDSN selects the in-memory journal instead of Postgres.
const MockDSN = "mock://local"

// DatabaseConfig defines the unified database configuration structure
// This is used by both the gateway and the engine
type DatabaseConfig struct {
	DSN            string `yaml:"dsn" json:"dsn"`                         // PostgreSQL connection string
	MaxConnections int    `yaml:"max_connections" json:"max_connections"` // Maximum number of connections
	MinConnections int    `yaml:"min_connections" json:"min_connections"` // Minimum number of connections
	MaxIdleTime    string `yaml:"max_idle_time" json:"max_idle_time"`     // Maximum time a connection can be idle
	MaxLifetime    string `yaml:"max_lifetime" json:"max_lifetime"`       // Maximum lifetime of a connection
}

// SetDefaults sets sensible default values for the database configuration
func (c *DatabaseConfig) SetDefaults() {
	if c.MaxConnections <= 0 {
		c.MaxConnections = 20
		fmt.Printf("Warning: database.max_connections not set or invalid, defaulting to %d\n", c.MaxConnections)
	}
	if c.MinConnections <= 0 {
		c.MinConnections = 2
		fmt.Printf("Warning: database.min_connections not set or invalid, defaulting to %d\n", c.MinConnections)
	}
	if c.MaxIdleTime == "" {
		c.MaxIdleTime = "1h"
		fmt.Printf("Warning: database.max_idle_time not set, defaulting to %s\n", c.MaxIdleTime)
	}
	if c.MaxLifetime == "" {
		c.MaxLifetime = "24h"
		fmt.Printf("Warning: database.max_lifetime not set, defaulting to %s\n", c.MaxLifetime)
	}
}

// IsMock reports whether the in-memory journal was requested.
func (c *DatabaseConfig) IsMock() bool {
	return strings.HasPrefix(c.DSN, "mock://")
}

// Validate validates the database configuration. Pool durations may be empty (pool defaults).
func (c *DatabaseConfig) Validate() error {
	switch {
	case c.DSN == "":
		return errors.New("database DSN is required")
	case c.IsMock():
		return nil
	case c.MaxConnections <= 0:
		return errors.New("database max_connections must be positive")
	case c.MinConnections < 0 || c.MinConnections > c.MaxConnections:
		return fmt.Errorf("database min_connections must be within [0, %d], got %d", c.MaxConnections, c.MinConnections)
	}
	for name, v := range map[string]string{"max_idle_time": c.MaxIdleTime, "max_lifetime": c.MaxLifetime} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("database %s: %w", name, err)
		}
	}
	return nil
}

// LogConfiguration prints the pool settings. The DSN carries credentials and is never printed.
func (c *DatabaseConfig) LogConfiguration(logger *log.Logger) {
	logger.Printf("Journal pool: connections %d..%d, max idle %s, max lifetime %s",
		c.MinConnections, c.MaxConnections, c.MaxIdleTime, c.MaxLifetime)
}
