package dataprocessing

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"oipulse/pkg/contracts/domain"
)

// Engine recomputes the complete derived table from raw observations.
// It is the sole producer of derived records: every submission re-feeds
// the full merged raw row set through Compute rather than deriving the
// new day in isolation, because every period-over-period field depends on
// which row is the immediately preceding one for its category.
type Engine struct{}

// NewEngine creates a new recomputation engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Compute derives the full analytics table from the merged raw rows.
// Rows whose date is unset are excluded and counted; the count is returned
// as a side channel, never as a failure. A non-zero currentSpot is stamped
// onto every row of the latest date only; earlier rows keep whatever spot
// value they carried when they were themselves the latest date. A zero
// currentSpot means no quote was available and the latest rows stay
// without one.
func (e *Engine) Compute(rows []domain.RawObservation, currentSpot float64) (*domain.DerivedTable, int) {
	working := make([]domain.RawObservation, 0, len(rows))
	excluded := 0
	for _, row := range rows {
		if row.Date.IsZero() {
			excluded++
			continue
		}
		working = append(working, row)
	}
	if excluded > 0 {
		slog.Warn("excluded rows without a parseable date", slog.Int("count", excluded))
	}
	if len(working) == 0 {
		return &domain.DerivedTable{}, excluded
	}

	// Canonical order: newest date first, categories alphabetical within a
	// date. The per-category differencing below is defined relative to this
	// exact traversal direction (current minus next-older).
	sort.SliceStable(working, func(i, j int) bool {
		di, dj := dateKey(working[i].Date), dateKey(working[j].Date)
		if di != dj {
			return di > dj
		}
		return strings.Compare(working[i].Category, working[j].Category) < 0
	})

	latest := dateKey(working[0].Date)
	records := make([]domain.DerivedRecord, len(working))
	for i, row := range working {
		if currentSpot != 0 && dateKey(row.Date) == latest {
			spot := currentSpot
			row.NiftySpot = &spot
		}
		records[i] = deriveRowLocal(row)
	}

	e.differencePerCategory(records)
	e.shareOfTotals(records)

	return &domain.DerivedTable{Records: records}, excluded
}

// deriveRowLocal computes the fields that depend only on the row itself.
func deriveRowLocal(row domain.RawObservation) domain.DerivedRecord {
	rec := domain.DerivedRecord{RawObservation: row}

	rec.AbsChangeCall = row.OptionIndexCallLong - row.OptionIndexCallShort
	rec.AbsChangePut = row.OptionIndexPutLong - row.OptionIndexPutShort
	rec.OptionNet = (row.OptionIndexCallLong + row.OptionIndexPutShort) -
		(row.OptionIndexPutLong + row.OptionIndexCallShort)

	rec.FutureNet = row.FutureIndexLong - row.FutureIndexShort
	rec.FutLSRatio = safeRatio(row.FutureIndexLong, row.FutureIndexShort)

	rec.StkFutNet = row.FutureStockLong - row.FutureStockShort
	rec.StkLSRatio = safeRatio(row.FutureStockLong, row.FutureStockShort)

	return rec
}

// differencePerCategory fills every period-over-period field. Records must
// already be in date-descending order; the previous row for a category is
// the next entry of that category's index sequence, whatever calendar gap
// lies between them. The aggregate TOTAL category is differenced like any
// other: it is just another category with its own independent time series.
func (e *Engine) differencePerCategory(records []domain.DerivedRecord) {
	byCategory := make(map[string][]int)
	order := make([]string, 0)
	for i, rec := range records {
		if _, seen := byCategory[rec.Category]; !seen {
			order = append(order, rec.Category)
		}
		byCategory[rec.Category] = append(byCategory[rec.Category], i)
	}

	for _, category := range order {
		seq := byCategory[category]
		for pos, i := range seq {
			if pos == len(seq)-1 {
				// Oldest row for the category: nothing to diff against.
				continue
			}
			cur := &records[i]
			prev := &records[seq[pos+1]]

			cur.NetCallCoC = ptr(cur.AbsChangeCall - prev.AbsChangeCall)
			cur.NetPutCoC = ptr(cur.AbsChangePut - prev.AbsChangePut)
			cur.NetDiff = ptr(*cur.NetCallCoC - *cur.NetPutCoC)

			cur.FutureROC = ptr(cur.FutureNet - prev.FutureNet)
			cur.FutAbsChgLong = ptr(cur.FutureIndexLong - prev.FutureIndexLong)
			cur.FutAbsChgShort = ptr(cur.FutureIndexShort - prev.FutureIndexShort)
			cur.FutLongPct = pctChange(*cur.FutAbsChgLong, prev.FutureIndexLong)
			cur.FutShortPct = pctChange(*cur.FutAbsChgShort, prev.FutureIndexShort)

			cur.StkFutROC = ptr(cur.StkFutNet - prev.StkFutNet)
			cur.StkAbsChgLong = ptr(cur.FutureStockLong - prev.FutureStockLong)
			cur.StkAbsChgShort = ptr(cur.FutureStockShort - prev.FutureStockShort)
			cur.StkLongPct = pctChange(*cur.StkAbsChgLong, prev.FutureStockLong)
			cur.StkShortPct = pctChange(*cur.StkAbsChgShort, prev.FutureStockShort)

			if cur.NiftySpot != nil && prev.NiftySpot != nil {
				cur.NiftyDiff = ptr(*cur.NiftySpot - *prev.NiftySpot)
			}
		}

		// Second-order diff of NET DIFF needs two consecutive defined values.
		for pos, i := range seq {
			if pos >= len(seq)-1 {
				continue
			}
			cur := &records[i]
			next := &records[seq[pos+1]]
			if cur.NetDiff != nil && next.NetDiff != nil {
				cur.OptionROC = ptr(*cur.NetDiff - *next.NetDiff)
			}
		}
	}
}

// shareOfTotals computes each category's index-future long and short as a
// percentage of the date's total. The denominator is the aggregate TOTAL
// row's value when one exists for the date, otherwise the sum across the
// non-aggregate categories. A zero denominator yields no value, not zero.
func (e *Engine) shareOfTotals(records []domain.DerivedRecord) {
	type totals struct {
		long, short       float64
		sumLong, sumShort float64
		hasAggregate      bool
	}
	byDate := make(map[string]*totals)
	for _, rec := range records {
		key := dateKey(rec.Date)
		t := byDate[key]
		if t == nil {
			t = &totals{}
			byDate[key] = t
		}
		if rec.IsTotal() {
			t.hasAggregate = true
			t.long = rec.FutureIndexLong
			t.short = rec.FutureIndexShort
		} else {
			t.sumLong += rec.FutureIndexLong
			t.sumShort += rec.FutureIndexShort
		}
	}

	for i := range records {
		t := byDate[dateKey(records[i].Date)]
		denomLong, denomShort := t.sumLong, t.sumShort
		if t.hasAggregate {
			denomLong, denomShort = t.long, t.short
		}
		if denomLong != 0 {
			records[i].FutureTotalLongPct = ptr(records[i].FutureIndexLong / denomLong * 100)
		}
		if denomShort != 0 {
			records[i].FutureTotalShortPct = ptr(records[i].FutureIndexShort / denomShort * 100)
		}
	}
}

// safeRatio applies the long-standing degenerate-case convention for L/S
// ratios: a zero short side yields an explicit zero, not an error and not
// a missing value.
func safeRatio(long, short float64) float64 {
	if short == 0 {
		return 0
	}
	return long / short
}

// pctChange returns change/base*100, or no value when the base is zero.
func pctChange(change, base float64) *float64 {
	if base == 0 {
		return nil
	}
	return ptr(change / base * 100)
}

func ptr(v float64) *float64 {
	return &v
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
