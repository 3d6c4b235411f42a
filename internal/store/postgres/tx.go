package postgres

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// inTx runs fn inside a transaction, re-running it when postgres reports a
// serialization failure or deadlock. Any other error aborts immediately.
func inTx(ctx context.Context, pool *pgxpool.Pool, maxRetries uint, fn func(tx pgx.Tx) error) error {
	attempt := 0
	op := func() (struct{}, error) {
		attempt++

		err := runTx(ctx, pool, fn)
		if err == nil {
			return struct{}{}, nil
		}
		if isRetryable(err) {
			log.Debug().Err(err).Int("attempt", attempt).Msg("Retrying conflicting transaction")
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxRetries),
	)
	return err
}

func runTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
