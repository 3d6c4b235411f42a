package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wolfeidau/statuspage/internal/store"
)

// NewStores opens a connection pool, optionally applies migrations, and
// returns every store backed by that pool. The caller owns the pool and
// must close it.
func NewStores(ctx context.Context, cfg *StoreConfig) (store.Stores, *pgxpool.Pool, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return store.Stores{}, nil, fmt.Errorf("invalid store config: %w", err)
	}

	pool, err := NewPool(ctx, &cfg.Pool)
	if err != nil {
		return store.Stores{}, nil, err
	}

	if cfg.AutoMigrate {
		if err := RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return store.Stores{}, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return store.Stores{
		Organizations: NewOrganizationStore(pool, cfg.MaxTxRetries),
		Memberships:   NewMembershipStore(pool, cfg.MaxTxRetries),
		Users:         NewUserStore(pool),
		Services:      NewServiceStore(pool),
		Incidents:     NewIncidentStore(pool),
		Maintenances:  NewMaintenanceStore(pool),
	}, pool, nil
}
