package postgres

import (
	"fmt"
)

// StoreConfig holds configuration for the PostgreSQL backed stores.
// Pool configuration is handled separately via PoolConfig.
type StoreConfig struct {
	Pool PoolConfig

	// AutoMigrate applies pending embedded migrations when the stores are created.
	AutoMigrate bool

	// MaxTxRetries bounds how many times a transaction is retried after a
	// serialization failure or deadlock.
	// Default: 5
	MaxTxRetries uint
}

// Validate checks that the configuration is valid.
func (c *StoreConfig) Validate() error {
	if err := c.Pool.Validate(); err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	return nil
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *StoreConfig) ApplyDefaults() {
	c.Pool.ApplyDefaults()
	if c.MaxTxRetries == 0 {
		c.MaxTxRetries = 5
	}
}
