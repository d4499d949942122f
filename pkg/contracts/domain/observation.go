package domain

import (
	"strings"
	"time"
)

// CategoryTotal is the distinguished participant category representing the
// exchange's pre-summed aggregate across all other categories for a date.
const CategoryTotal = "TOTAL"

// RawObservation represents one participant category's open-interest
// positions for a single trading date, as published in the NSE
// participant-wise open interest report. This is the primary input
// structure for the recomputation engine.
type RawObservation struct {
	Date     time.Time `json:"date" validate:"required"`
	Category string    `json:"category" validate:"required"`

	FutureIndexLong  float64 `json:"future_index_long" validate:"min=0"`
	FutureIndexShort float64 `json:"future_index_short" validate:"min=0"`
	FutureStockLong  float64 `json:"future_stock_long" validate:"min=0"`
	FutureStockShort float64 `json:"future_stock_short" validate:"min=0"`

	OptionIndexCallLong  float64 `json:"option_index_call_long" validate:"min=0"`
	OptionIndexPutLong   float64 `json:"option_index_put_long" validate:"min=0"`
	OptionIndexCallShort float64 `json:"option_index_call_short" validate:"min=0"`
	OptionIndexPutShort  float64 `json:"option_index_put_short" validate:"min=0"`

	OptionStockCallLong  float64 `json:"option_stock_call_long" validate:"min=0"`
	OptionStockPutLong   float64 `json:"option_stock_put_long" validate:"min=0"`
	OptionStockCallShort float64 `json:"option_stock_call_short" validate:"min=0"`
	OptionStockPutShort  float64 `json:"option_stock_put_short" validate:"min=0"`

	TotalLongContracts  float64 `json:"total_long_contracts" validate:"min=0"`
	TotalShortContracts float64 `json:"total_short_contracts" validate:"min=0"`

	// NiftySpot is the reference index level attached to this row. It is
	// populated only for rows that were the latest date at the time of
	// their own computation; nil everywhere else.
	NiftySpot *float64 `json:"nifty_spot,omitempty"`
}

// Key identifies the row. At most one observation may exist per (date,
// category) pair in the authoritative table.
func (o RawObservation) Key() ObservationKey {
	return ObservationKey{Date: o.Date.Format("2006-01-02"), Category: o.Category}
}

// IsTotal reports whether this row is the exchange's aggregate row.
func (o RawObservation) IsTotal() bool {
	return IsTotalCategory(o.Category)
}

// IsTotalCategory reports whether a category name denotes the aggregate
// row. Detection is an exact match after trimming and uppercasing; the
// substring and allow-list variants seen in older report feeds are not
// honoured.
func IsTotalCategory(category string) bool {
	return strings.ToUpper(strings.TrimSpace(category)) == CategoryTotal
}

// ObservationKey is the (date, category) identity of a row. The date is
// carried as a formatted string so the key is usable as a map key.
type ObservationKey struct {
	Date     string
	Category string
}

// Upload represents one parsed daily report file: the raw rows it carried
// plus metadata about where the report date came from.
type Upload struct {
	FileName   string           `json:"file_name"`
	Rows       []RawObservation `json:"rows" validate:"required,dive"`
	ReportDate time.Time        `json:"report_date"`
	DateSource string           `json:"date_source"` // "date_column", "title_row" or "filename"
}
