package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oipulse/pkg/contracts/domain"
)

func day(value string) time.Time {
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return d
}

// obs builds a minimal observation; the variadic mutators fill in the
// position fields a test cares about.
func obs(date, category string, mutators ...func(*domain.RawObservation)) domain.RawObservation {
	o := domain.RawObservation{Date: day(date), Category: category}
	for _, m := range mutators {
		m(&o)
	}
	return o
}

func futures(long, short float64) func(*domain.RawObservation) {
	return func(o *domain.RawObservation) {
		o.FutureIndexLong = long
		o.FutureIndexShort = short
	}
}

func stockFutures(long, short float64) func(*domain.RawObservation) {
	return func(o *domain.RawObservation) {
		o.FutureStockLong = long
		o.FutureStockShort = short
	}
}

func indexOptions(callLong, callShort, putLong, putShort float64) func(*domain.RawObservation) {
	return func(o *domain.RawObservation) {
		o.OptionIndexCallLong = callLong
		o.OptionIndexCallShort = callShort
		o.OptionIndexPutLong = putLong
		o.OptionIndexPutShort = putShort
	}
}

func spot(v float64) func(*domain.RawObservation) {
	return func(o *domain.RawObservation) {
		o.NiftySpot = &v
	}
}

// find returns the record for a (date, category) pair, failing the test
// when no such record exists.
func find(t *testing.T, table *domain.DerivedTable, date, category string) *domain.DerivedRecord {
	t.Helper()
	for i := range table.Records {
		rec := &table.Records[i]
		if rec.Category == category && rec.Date.Format("2006-01-02") == date {
			return rec
		}
	}
	t.Fatalf("no record for %s / %s", date, category)
	return nil
}

func TestComputeEmptyInput(t *testing.T) {
	table, excluded := NewEngine().Compute(nil, 0)

	assert.True(t, table.Empty())
	assert.Equal(t, 0, excluded)
}

func TestComputeExcludesUndatedRows(t *testing.T) {
	rows := []domain.RawObservation{
		obs("2025-12-05", "FII", futures(100, 50)),
		{Category: "DII", FutureIndexLong: 10},
		{Category: "Pro", FutureIndexShort: 20},
	}

	table, excluded := NewEngine().Compute(rows, 0)

	assert.Equal(t, 2, excluded)
	assert.Len(t, table.Records, 1)
}

func TestComputeOrdersNewestFirstCategoriesAlphabetical(t *testing.T) {
	rows := []domain.RawObservation{
		obs("2025-12-04", "FII"),
		obs("2025-12-05", "Pro"),
		obs("2025-12-05", "Client"),
		obs("2025-12-04", "DII"),
		obs("2025-12-05", "DII"),
	}

	table, _ := NewEngine().Compute(rows, 0)

	require.Len(t, table.Records, 5)
	got := make([]string, len(table.Records))
	for i, rec := range table.Records {
		got[i] = rec.Date.Format("2006-01-02") + "/" + rec.Category
	}
	assert.Equal(t, []string{
		"2025-12-05/Client",
		"2025-12-05/DII",
		"2025-12-05/Pro",
		"2025-12-04/DII",
		"2025-12-04/FII",
	}, got)
}

func TestComputeRowLocalFields(t *testing.T) {
	rows := []domain.RawObservation{
		obs("2025-12-05", "FII",
			futures(300, 100),
			stockFutures(80, 40),
			indexOptions(500, 200, 150, 250)),
	}

	table, _ := NewEngine().Compute(rows, 0)
	rec := find(t, table, "2025-12-05", "FII")

	assert.InDelta(t, 300.0, rec.AbsChangeCall, 1e-9)
	assert.InDelta(t, -100.0, rec.AbsChangePut, 1e-9)
	// (CallLong + PutShort) - (PutLong + CallShort)
	assert.InDelta(t, 400.0, rec.OptionNet, 1e-9)
	assert.InDelta(t, 200.0, rec.FutureNet, 1e-9)
	assert.InDelta(t, 3.0, rec.FutLSRatio, 1e-9)
	assert.InDelta(t, 40.0, rec.StkFutNet, 1e-9)
	assert.InDelta(t, 2.0, rec.StkLSRatio, 1e-9)
}

func TestComputeRatioWithZeroShortSide(t *testing.T) {
	rows := []domain.RawObservation{
		obs("2025-12-05", "FII", futures(100, 0), stockFutures(50, 0)),
	}

	table, _ := NewEngine().Compute(rows, 0)
	rec := find(t, table, "2025-12-05", "FII")

	assert.Zero(t, rec.FutLSRatio)
	assert.Zero(t, rec.StkLSRatio)
}

func TestComputePeriodOverPeriodDifferences(t *testing.T) {
	rows := []domain.RawObservation{
		obs("2025-12-04", "FII",
			futures(100, 200),
			stockFutures(40, 10),
			indexOptions(100, 50, 80, 20)),
		obs("2025-12-05", "FII",
			futures(150, 100),
			stockFutures(60, 30),
			indexOptions(180, 60, 90, 50)),
	}

	table, _ := NewEngine().Compute(rows, 0)

	latest := find(t, table, "2025-12-05", "FII")
	require.NotNil(t, latest.FutAbsChgLong)
	assert.InDelta(t, 50.0, *latest.FutAbsChgLong, 1e-9)
	require.NotNil(t, latest.FutAbsChgShort)
	assert.InDelta(t, -100.0, *latest.FutAbsChgShort, 1e-9)
	require.NotNil(t, latest.FutLongPct)
	assert.InDelta(t, 50.0, *latest.FutLongPct, 1e-9)
	require.NotNil(t, latest.FutShortPct)
	assert.InDelta(t, -50.0, *latest.FutShortPct, 1e-9)
	require.NotNil(t, latest.FutureROC)
	assert.InDelta(t, 150.0, *latest.FutureROC, 1e-9) // 50 - (-100)

	require.NotNil(t, latest.StkFutROC)
	assert.InDelta(t, 0.0, *latest.StkFutROC, 1e-9) // 30 - 30
	require.NotNil(t, latest.StkLongPct)
	assert.InDelta(t, 50.0, *latest.StkLongPct, 1e-9)

	// AbsChangeCall 120 vs 50, AbsChangePut 40 vs 60.
	require.NotNil(t, latest.NetCallCoC)
	assert.InDelta(t, 70.0, *latest.NetCallCoC, 1e-9)
	require.NotNil(t, latest.NetPutCoC)
	assert.InDelta(t, -20.0, *latest.NetPutCoC, 1e-9)
	require.NotNil(t, latest.NetDiff)
	assert.InDelta(t, 90.0, *latest.NetDiff, 1e-9)

	oldest := find(t, table, "2025-12-04", "FII")
	assert.Nil(t, oldest.FutAbsChgLong)
	assert.Nil(t, oldest.FutureROC)
	assert.Nil(t, oldest.NetDiff)
	assert.Nil(t, oldest.OptionROC)
}

func TestComputePercentChangeUndefinedOnZeroBase(t *testing.T) {
	rows := []domain.RawObservation{
		obs("2025-12-04", "FII", futures(0, 0)),
		obs("2025-12-05", "FII", futures(50, 20)),
	}

	table, _ := NewEngine().Compute(rows, 0)
	latest := find(t, table, "2025-12-05", "FII")

	require.NotNil(t, latest.FutAbsChgLong)
	assert.InDelta(t, 50.0, *latest.FutAbsChgLong, 1e-9)
	assert.Nil(t, latest.FutLongPct)
	assert.Nil(t, latest.FutShortPct)
}

func TestComputeOptionROCNeedsTwoDefinedDiffs(t *testing.T) {
	rows := []domain.RawObservation{
		obs("2025-12-03", "FII", indexOptions(100, 50, 80, 20)),
		obs("2025-12-04", "FII", indexOptions(120, 40, 90, 40)),
		obs("2025-12-05", "FII", indexOptions(180, 60, 90, 50)),
	}

	table, _ := NewEngine().Compute(rows, 0)

	// NetDiff: 04 = (80-50) - (50-60) = 40; 05 = (120-80) - (40-50) = 50.
	mid := find(t, table, "2025-12-04", "FII")
	require.NotNil(t, mid.NetDiff)
	assert.InDelta(t, 40.0, *mid.NetDiff, 1e-9)
	assert.Nil(t, mid.OptionROC) // next-older NetDiff undefined

	latest := find(t, table, "2025-12-05", "FII")
	require.NotNil(t, latest.NetDiff)
	assert.InDelta(t, 50.0, *latest.NetDiff, 1e-9)
	require.NotNil(t, latest.OptionROC)
	assert.InDelta(t, 10.0, *latest.OptionROC, 1e-9)
}

func TestComputeDiffSkipsCalendarGaps(t *testing.T) {
	// FII appears on the 1st and the 5th; the 5th diffs against the 1st.
	rows := []domain.RawObservation{
		obs("2025-12-01", "FII", futures(100, 0)),
		obs("2025-12-03", "DII", futures(10, 0)),
		obs("2025-12-05", "FII", futures(130, 0)),
	}

	table, _ := NewEngine().Compute(rows, 0)
	latest := find(t, table, "2025-12-05", "FII")

	require.NotNil(t, latest.FutAbsChgLong)
	assert.InDelta(t, 30.0, *latest.FutAbsChgLong, 1e-9)
}

func TestComputeSpotStampedOnLatestDateOnly(t *testing.T) {
	rows := []domain.RawObservation{
		obs("2025-12-04", "FII", spot(24100)),
		obs("2025-12-05", "FII"),
		obs("2025-12-05", "DII"),
	}

	table, _ := NewEngine().Compute(rows, 24500)

	for _, category := range []string{"FII", "DII"} {
		rec := find(t, table, "2025-12-05", category)
		require.NotNil(t, rec.NiftySpot)
		assert.InDelta(t, 24500.0, *rec.NiftySpot, 1e-9)
	}

	older := find(t, table, "2025-12-04", "FII")
	require.NotNil(t, older.NiftySpot)
	assert.InDelta(t, 24100.0, *older.NiftySpot, 1e-9)
}

func TestComputeNiftyDiffRequiresBothSpots(t *testing.T) {
	rows := []domain.RawObservation{
		obs("2025-12-03", "FII"),
		obs("2025-12-04", "FII", spot(24100)),
		obs("2025-12-05", "FII"),
	}

	table, _ := NewEngine().Compute(rows, 24500)

	latest := find(t, table, "2025-12-05", "FII")
	require.NotNil(t, latest.NiftyDiff)
	assert.InDelta(t, 400.0, *latest.NiftyDiff, 1e-9)

	mid := find(t, table, "2025-12-04", "FII")
	assert.Nil(t, mid.NiftyDiff) // the 3rd carries no spot
}

func TestComputeShareOfTotalsWithAggregateRow(t *testing.T) {
	rows := []domain.RawObservation{
		obs("2025-12-05", "FII", futures(100, 50)),
		obs("2025-12-05", "DII", futures(300, 150)),
		// Deliberately inconsistent with the member rows: the published
		// aggregate wins over the recomputed sum.
		obs("2025-12-05", "TOTAL", futures(500, 250)),
	}

	table, _ := NewEngine().Compute(rows, 0)

	fii := find(t, table, "2025-12-05", "FII")
	require.NotNil(t, fii.FutureTotalLongPct)
	assert.InDelta(t, 20.0, *fii.FutureTotalLongPct, 1e-9)
	require.NotNil(t, fii.FutureTotalShortPct)
	assert.InDelta(t, 20.0, *fii.FutureTotalShortPct, 1e-9)

	total := find(t, table, "2025-12-05", "TOTAL")
	require.NotNil(t, total.FutureTotalLongPct)
	assert.InDelta(t, 100.0, *total.FutureTotalLongPct, 1e-9)
}

func TestComputeShareOfTotalsWithoutAggregateRow(t *testing.T) {
	rows := []domain.RawObservation{
		obs("2025-12-05", "FII", futures(100, 0)),
		obs("2025-12-05", "DII", futures(300, 0)),
	}

	table, _ := NewEngine().Compute(rows, 0)

	fii := find(t, table, "2025-12-05", "FII")
	require.NotNil(t, fii.FutureTotalLongPct)
	assert.InDelta(t, 25.0, *fii.FutureTotalLongPct, 1e-9)
	// Zero short denominator: share undefined, not zero.
	assert.Nil(t, fii.FutureTotalShortPct)
}

func TestComputeTotalCategoryDifferencedLikeAnyOther(t *testing.T) {
	rows := []domain.RawObservation{
		obs("2025-12-04", "TOTAL", futures(400, 200)),
		obs("2025-12-05", "TOTAL", futures(500, 250)),
	}

	table, _ := NewEngine().Compute(rows, 0)
	latest := find(t, table, "2025-12-05", "TOTAL")

	require.NotNil(t, latest.FutAbsChgLong)
	assert.InDelta(t, 100.0, *latest.FutAbsChgLong, 1e-9)
	require.NotNil(t, latest.FutLongPct)
	assert.InDelta(t, 25.0, *latest.FutLongPct, 1e-9)
}

func TestComputeIsIdempotentOverRawRows(t *testing.T) {
	rows := []domain.RawObservation{
		obs("2025-12-04", "FII", futures(100, 200), indexOptions(100, 50, 80, 20), spot(24100)),
		obs("2025-12-05", "FII", futures(150, 100), indexOptions(180, 60, 90, 50)),
		obs("2025-12-05", "TOTAL", futures(150, 100)),
	}

	engine := NewEngine()
	first, _ := engine.Compute(rows, 24500)
	second, _ := engine.Compute(first.RawRows(), 24500)

	assert.Equal(t, first.Records, second.Records)
}
