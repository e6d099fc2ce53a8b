package migrations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"bridge-flow-lab/internal/storage/postgres"
)

func TestRunPostgresMigrations_RecordsVersions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("bridge"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	defer container.Terminate(ctx)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := postgres.NewPool(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	files, err := readMigrations(PostgresFS, "postgres")
	require.NoError(t, err)

	applied, err := RunPostgresMigrations(ctx, pool)
	require.NoError(t, err)
	require.Len(t, applied, len(files))
	assert.Equal(t, files[0].version, applied[0])

	again, err := RunPostgresMigrations(ctx, pool)
	require.NoError(t, err)
	assert.Empty(t, again)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM bridge_schema_migrations`).Scan(&count))
	assert.Equal(t, len(files), count)

	// tables exist
	_, err = pool.Exec(ctx, `SELECT 1 FROM token_transfer_data LIMIT 1`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `SELECT 1 FROM token_prices LIMIT 1`)
	require.NoError(t, err)
}
