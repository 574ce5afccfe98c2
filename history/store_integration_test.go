package history

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/shibukawa/declo/testrunner"
)

// TestPostgreSQLIntegration stores runs in a real PostgreSQL database
func TestPostgreSQLIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := t.Context()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)

	defer func() {
		assert.NoError(t, postgresContainer.Terminate(ctx))
	}()

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// The URL form goes through ParseDatabaseURL.
	store, err := Open("", connStr, nil)
	require.NoError(t, err)

	defer store.Close()

	assert.Equal(t, DriverPostgres, store.driver)
	checkStoreRoundtrip(t, store)
}

// TestMySQLIntegration stores runs in a real MySQL database
func TestMySQLIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := t.Context()

	mysqlContainer, err := mysql.Run(ctx,
		"mysql:8.4",
		mysql.WithDatabase("testdb"),
		mysql.WithUsername("testuser"),
		mysql.WithPassword("testpass"),
	)
	require.NoError(t, err)

	defer func() {
		assert.NoError(t, mysqlContainer.Terminate(ctx))
	}()

	connStr, err := mysqlContainer.ConnectionString(ctx)
	require.NoError(t, err)

	store, err := Open(DriverMySQL, connStr, nil)
	require.NoError(t, err)

	defer store.Close()

	checkStoreRoundtrip(t, store)
}

func checkStoreRoundtrip(t *testing.T, store *Store) {
	t.Helper()

	ctx := t.Context()

	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx))

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	first, err := store.SaveReport(ctx, sampleReport(), "examples", "ci")
	require.NoError(t, err)

	store.now = func() time.Time { return base.Add(time.Minute) }

	second, err := store.SaveReport(ctx, &testrunner.Report{Total: 2, Duration: time.Second}, "other", "local")
	require.NoError(t, err)

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 2, len(runs))
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)

	run := runs[1]
	assert.Equal(t, "examples", run.Corpus)
	assert.Equal(t, "ci", run.Environment)
	assert.Equal(t, 10, run.Total)
	assert.Equal(t, base.Add(-1500*time.Millisecond), run.StartedAt)
	assert.Equal(t, []CategoryResult{
		{Category: "compilation", Total: 10, Passed: 9, Rate: 90.0},
		{Category: "decompilation", Total: 10, Passed: 10, Rate: 100.0},
		{Category: "roundtrip", Total: 10, Passed: 8, Rate: 80.0},
	}, run.Categories)

	limited, err := store.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, len(limited))

	failures, err := store.Failures(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 3, len(failures))
	assert.Equal(t, Failure{Category: "compilation", Index: 4, Title: "Squares", Reason: "output differs"}, failures[0])

	_, err = store.Failures(ctx, "00000000-0000-0000-0000-000000000000")
	assert.IsError(t, err, ErrRunNotFound)
}
