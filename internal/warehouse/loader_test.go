package warehouse

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alext/moneyrobot/internal/dataset"
	"github.com/alext/moneyrobot/pkg/config"
	"github.com/alext/moneyrobot/pkg/database"
	"github.com/alext/moneyrobot/pkg/logger"
)

// testDB connects to the warehouse named by WAREHOUSE_URL, skipping the
// test when no warehouse is reachable.
func testDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	url := os.Getenv("WAREHOUSE_URL")
	if url == "" {
		t.Skip("WAREHOUSE_URL not set")
	}

	cfg := &config.Config{}
	cfg.Warehouse.URL = url
	cfg.Warehouse.MaxConns = 4
	cfg.Warehouse.MinConns = 1
	cfg.Warehouse.MaxConnLifetime = time.Hour
	cfg.Warehouse.MaxConnIdleTime = 30 * time.Minute

	db, err := database.New(cfg)
	require.NoError(t, err, "warehouse connection failed")
	t.Cleanup(db.Close)
	return db
}

func testLoadFrame(t *testing.T) *dataset.Frame {
	t.Helper()
	f, err := dataset.New(
		dataset.TimeColumn("Date", []string{"2025-01-02", "2025-01-03"}),
		dataset.FloatColumn("Close", []float64{100.5, 101.25}),
		dataset.IntColumn("Volume", []int64{1000, 1100}),
	)
	require.NoError(t, err)
	return f
}

func TestWriteRoundTrip(t *testing.T) {
	db := testDB(t)
	loader := NewLoader(db, logger.NewNop())
	ctx := context.Background()

	table := "MONEYROBOT_LOADER_TEST_TRAIN"
	f := testLoadFrame(t)

	require.NoError(t, loader.Write(ctx, table, ActionCreateReplace, f))
	defer db.Pool.Exec(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table))

	// Side effect: the caller's frame now carries upper-cased names.
	assert.Equal(t, []string{"DATE", "CLOSE", "VOLUME"}, f.ColumnNames())

	var count int
	require.NoError(t, db.Pool.QueryRow(ctx, "SELECT count(*) FROM "+quoteIdent(table)).Scan(&count))
	assert.Equal(t, f.NumRows(), count)

	rows, err := db.Pool.Query(ctx, "SELECT * FROM "+quoteIdent(table)+" LIMIT 0")
	require.NoError(t, err)
	var names []string
	for _, field := range rows.FieldDescriptions() {
		names = append(names, field.Name)
	}
	rows.Close()
	assert.Equal(t, []string{"DATE", "CLOSE", "VOLUME"}, names)
}

func TestCreateReplaceIsIdempotent(t *testing.T) {
	db := testDB(t)
	loader := NewLoader(db, logger.NewNop())
	ctx := context.Background()

	table := "MONEYROBOT_LOADER_TEST_REPLACE"
	defer db.Pool.Exec(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table))

	require.NoError(t, loader.Write(ctx, table, ActionCreateReplace, testLoadFrame(t)))
	require.NoError(t, loader.Write(ctx, table, ActionCreateReplace, testLoadFrame(t)))

	var count int
	require.NoError(t, db.Pool.QueryRow(ctx, "SELECT count(*) FROM "+quoteIdent(table)).Scan(&count))
	assert.Equal(t, 2, count, "repeating create_replace yields the same end state")
}

func TestAppendIsNotIdempotent(t *testing.T) {
	db := testDB(t)
	loader := NewLoader(db, logger.NewNop())
	ctx := context.Background()

	table := "MONEYROBOT_LOADER_TEST_APPEND"
	defer db.Pool.Exec(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table))

	require.NoError(t, loader.Write(ctx, table, ActionCreateReplace, testLoadFrame(t)))

	// Appending the same frame twice doubles the appended rows: callers
	// own at-most-once semantics.
	require.NoError(t, loader.Write(ctx, table, ActionAppend, testLoadFrame(t)))
	require.NoError(t, loader.Write(ctx, table, ActionAppend, testLoadFrame(t)))

	var count int
	require.NoError(t, db.Pool.QueryRow(ctx, "SELECT count(*) FROM "+quoteIdent(table)).Scan(&count))
	assert.Equal(t, 6, count)
}

func TestAppendRejectsSchemaChange(t *testing.T) {
	db := testDB(t)
	loader := NewLoader(db, logger.NewNop())
	ctx := context.Background()

	table := "MONEYROBOT_LOADER_TEST_SCHEMA"
	defer db.Pool.Exec(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table))

	require.NoError(t, loader.Write(ctx, table, ActionCreateReplace, testLoadFrame(t)))

	changed, err := dataset.New(
		dataset.TimeColumn("Date", []string{"2025-01-02"}),
		dataset.FloatColumn("Close", []float64{100.5}),
	)
	require.NoError(t, err)

	err = loader.Write(ctx, table, ActionAppend, changed)
	require.Error(t, err)

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, table, writeErr.Table)
	assert.Equal(t, ActionAppend, writeErr.Action)
}

func TestWriteUnknownAction(t *testing.T) {
	loader := NewLoader(&database.DB{}, logger.NewNop())
	err := loader.Write(context.Background(), "T", Action("merge"), testLoadFrame(t))
	require.Error(t, err)

	var writeErr *WriteError
	assert.ErrorAs(t, err, &writeErr)
}

func TestListTables(t *testing.T) {
	db := testDB(t)
	loader := NewLoader(db, logger.NewNop())
	ctx := context.Background()

	table := "MONEYROBOT_LIST_TEST_TRAIN"
	defer db.Pool.Exec(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table))
	require.NoError(t, loader.Write(ctx, table, ActionCreateReplace, testLoadFrame(t)))

	tables, err := loader.ListTables(ctx, "MONEYROBOT_LIST_TEST")
	require.NoError(t, err)
	assert.Contains(t, tables, table)
}
