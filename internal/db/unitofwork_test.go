package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	database := openTestDB(t)
	uow := NewSQLiteUnitOfWork(database)
	ctx := context.Background()

	err := uow.WithinTx(ctx, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO resources (id, resource_type, erp_id, name, synced_at)
			 VALUES ('r1', 'machine', 1, 'Mill 1', '2026-01-01T00:00:00Z')`)
		return err
	})
	require.NoError(t, err)

	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM resources`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	database := openTestDB(t)
	uow := NewSQLiteUnitOfWork(database)
	ctx := context.Background()

	boom := errors.New("boom")
	err := uow.WithinTx(ctx, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO resources (id, resource_type, erp_id, name, synced_at)
			 VALUES ('r1', 'machine', 1, 'Mill 1', '2026-01-01T00:00:00Z')`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM resources`).Scan(&n))
	assert.Equal(t, 0, n, "insert must be rolled back")
}
