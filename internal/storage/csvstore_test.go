package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oipulse/pkg/contracts/domain"
)

func testTable() *domain.DerivedTable {
	spot := 24500.5
	rec := domain.DerivedRecord{}
	rec.Date = time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC)
	rec.Category = "FII"
	rec.FutureIndexLong = 150
	rec.FutureIndexShort = 100
	rec.FutureNet = 50
	rec.NiftySpot = &spot
	return &domain.DerivedTable{Records: []domain.DerivedRecord{rec}}
}

func TestCSVStoreMissingFileIsEmptyTable(t *testing.T) {
	store := NewCSVStore(filepath.Join(t.TempDir(), "missing.csv"))

	table, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.True(t, table.Empty())
}

func TestCSVStoreReplaceThenLoad(t *testing.T) {
	store := NewCSVStore(filepath.Join(t.TempDir(), "data", "table.csv"))
	ctx := context.Background()

	require.NoError(t, store.Replace(ctx, testTable()))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Records, 1)

	rec := loaded.Records[0]
	assert.Equal(t, "FII", rec.Category)
	assert.Equal(t, "2025-12-05", rec.Date.Format("2006-01-02"))
	assert.InDelta(t, 150.0, rec.FutureIndexLong, 1e-9)
	require.NotNil(t, rec.NiftySpot)
	assert.InDelta(t, 24500.5, *rec.NiftySpot, 1e-9)
}

func TestCSVStoreReplaceOverwrites(t *testing.T) {
	store := NewCSVStore(filepath.Join(t.TempDir(), "table.csv"))
	ctx := context.Background()

	require.NoError(t, store.Replace(ctx, testTable()))
	require.NoError(t, store.Replace(ctx, &domain.DerivedTable{}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.Empty())
}

func TestCSVStoreName(t *testing.T) {
	assert.Equal(t, "csv", NewCSVStore("x").Name())
}
