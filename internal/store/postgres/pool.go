package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const applicationName = "statuspage"

// PoolConfig holds configuration for the shared PostgreSQL connection pool.
// Durations are whole seconds so they map directly onto flags.
type PoolConfig struct {
	// ConnString is a postgres:// URL or key=value DSN.
	ConnString string

	// MaxConns bounds concurrent queries. The public status page fans out four
	// reads per request, so keep this well above the expected request rate.
	// Default: 20
	MaxConns int32

	// Default: 5
	MinConns int32

	// Default: 3600
	MaxConnLifetime int32

	// Default: 1800
	MaxConnIdleTime int32

	// Default: 60
	HealthCheckPeriod int32

	// ConnectTimeout applies to each dial.
	// Default: 10
	ConnectTimeout int32

	// StartupWait is how long NewPool keeps retrying the initial ping, for
	// deployments where the database comes up alongside the server.
	// Default: 30
	StartupWait int32
}

// Validate checks that the pool configuration is valid.
func (c *PoolConfig) Validate() error {
	if c.ConnString == "" {
		return errors.New("connection string is required")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("min conns (%d) exceeds max conns (%d)", c.MinConns, c.MaxConns)
	}
	return nil
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *PoolConfig) ApplyDefaults() {
	if c.MaxConns == 0 {
		c.MaxConns = 20
	}
	if c.MinConns == 0 {
		c.MinConns = min(5, c.MaxConns)
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = 3600
	}
	if c.MaxConnIdleTime == 0 {
		c.MaxConnIdleTime = 1800
	}
	if c.HealthCheckPeriod == 0 {
		c.HealthCheckPeriod = 60
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10
	}
	if c.StartupWait == 0 {
		c.StartupWait = 30
	}
}

func (c *PoolConfig) pgxConfig() (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(c.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = c.MaxConns
	poolConfig.MinConns = c.MinConns
	poolConfig.MaxConnLifetime = seconds(c.MaxConnLifetime)
	poolConfig.MaxConnIdleTime = seconds(c.MaxConnIdleTime)
	poolConfig.HealthCheckPeriod = seconds(c.HealthCheckPeriod)
	poolConfig.ConnConfig.ConnectTimeout = seconds(c.ConnectTimeout)

	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	return poolConfig, nil
}

// NewPool creates the connection pool and waits for the database to answer a ping.
func NewPool(ctx context.Context, cfg *PoolConfig) (*pgxpool.Pool, error) {
	if cfg == nil {
		return nil, errors.New("pool config is required")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pool config: %w", err)
	}

	poolConfig, err := cfg.pgxConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	ping := func() (struct{}, error) {
		err := pool.Ping(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Database not ready, retrying")
		}
		return struct{}{}, err
	}

	_, err = backoff.Retry(ctx, ping,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(seconds(cfg.StartupWait)),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

func seconds(n int32) time.Duration {
	return time.Duration(n) * time.Second
}
