package domain

import (
	"time"
)

// DerivedRecord is one RawObservation plus the computed analytics for that
// (date, category) pair. Pointer fields carry period-over-period results
// that are undefined for the oldest row of a category or when a
// denominator is zero; nil means "no value", never zero.
type DerivedRecord struct {
	RawObservation

	// Option group.
	AbsChangeCall float64  `json:"abs_change_call"`
	AbsChangePut  float64  `json:"abs_change_put"`
	OptionNet     float64  `json:"option_net"`
	NetCallCoC    *float64 `json:"net_call_coc,omitempty"`
	NetPutCoC     *float64 `json:"net_put_coc,omitempty"`
	NetDiff       *float64 `json:"net_diff,omitempty"`
	OptionROC     *float64 `json:"option_roc,omitempty"`

	// Index-future group.
	FutureNet      float64  `json:"future_net"`
	FutureROC      *float64 `json:"future_roc,omitempty"`
	FutAbsChgLong  *float64 `json:"fut_abs_chg_long,omitempty"`
	FutAbsChgShort *float64 `json:"fut_abs_chg_short,omitempty"`
	FutLSRatio     float64  `json:"fut_ls_ratio"`
	FutLongPct     *float64 `json:"fut_long_pct,omitempty"`
	FutShortPct    *float64 `json:"fut_short_pct,omitempty"`

	// Stock-future group.
	StkFutNet      float64  `json:"stk_fut_net"`
	StkFutROC      *float64 `json:"stk_fut_roc,omitempty"`
	StkAbsChgLong  *float64 `json:"stk_abs_chg_long,omitempty"`
	StkAbsChgShort *float64 `json:"stk_abs_chg_short,omitempty"`
	StkLSRatio     float64  `json:"stk_ls_ratio"`
	StkLongPct     *float64 `json:"stk_long_pct,omitempty"`
	StkShortPct    *float64 `json:"stk_short_pct,omitempty"`

	// Reference-price drift.
	NiftyDiff *float64 `json:"nifty_diff,omitempty"`

	// Cross-category shares of the date's index-future total.
	FutureTotalLongPct  *float64 `json:"future_total_long_pct,omitempty"`
	FutureTotalShortPct *float64 `json:"future_total_short_pct,omitempty"`
}

// DerivedTable is the full ordered set of derived records. It is the
// system's sole persisted state, always replaced wholesale after a
// successful submission. Order is the engine's canonical computed order:
// date descending, category ascending.
type DerivedTable struct {
	Records []DerivedRecord `json:"records"`
}

// Empty reports whether the table holds no rows.
func (t *DerivedTable) Empty() bool {
	return t == nil || len(t.Records) == 0
}

// RawRows strips the table back to raw observations. Storage persists raw
// fields alongside derived ones precisely so this recovery is lossless and
// a later merge can always be re-fed through the engine.
func (t *DerivedTable) RawRows() []RawObservation {
	if t.Empty() {
		return nil
	}
	rows := make([]RawObservation, 0, len(t.Records))
	for _, rec := range t.Records {
		rows = append(rows, rec.RawObservation)
	}
	return rows
}

// Dates returns the distinct trading dates in the table, unordered.
func (t *DerivedTable) Dates() []time.Time {
	if t.Empty() {
		return nil
	}
	seen := make(map[string]time.Time)
	for _, rec := range t.Records {
		seen[rec.Date.Format("2006-01-02")] = rec.Date
	}
	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	return dates
}

// LatestDate returns the newest trading date present, or the zero time for
// an empty table.
func (t *DerivedTable) LatestDate() time.Time {
	var latest time.Time
	if t.Empty() {
		return latest
	}
	for _, rec := range t.Records {
		if rec.Date.After(latest) {
			latest = rec.Date
		}
	}
	return latest
}

// SubmissionResult summarises one completed merge+compute+persist cycle.
type SubmissionResult struct {
	DatesAdded   []time.Time `json:"dates_added"`
	RowsAdded    int         `json:"rows_added"`
	TotalRows    int         `json:"total_rows"`
	ExcludedRows int         `json:"excluded_rows"`
	SpotPrice    float64     `json:"spot_price"`
	SpotNote     string      `json:"spot_note,omitempty"`
	StorageNote  string      `json:"storage_note,omitempty"`
	ProcessedAt  time.Time   `json:"processed_at"`
}
