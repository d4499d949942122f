package exporter

import (
	"oipulse/pkg/contracts/domain"
)

// ValueKind selects the display formatting for a column.
type ValueKind int

const (
	KindCount ValueKind = iota // thousands-grouped integer
	KindRatio                  // 2 decimals
	KindPercent                // 2 decimals + %
	KindPrice                  // 2 decimals
)

// Column describes one numeric column of the serialized table: its place
// in the three-tier header convention (broad group / sub-group / column
// name), its formatting kind, and accessors for round-tripping a record.
// The tier labels reproduce the legacy sheet layout byte-for-byte,
// spelling quirks included, because downstream consumers match on them.
type Column struct {
	Group    string
	Subgroup string
	Name     string
	Label    string
	Kind     ValueKind
	Get      func(*domain.DerivedRecord) (float64, bool)
	Set      func(*domain.DerivedRecord, float64)
}

func value(v float64) (float64, bool) { return v, true }
func optional(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Columns returns the full ordered column set: the legacy display groups
// first, then the raw position columns. Raw columns are persisted
// alongside derived ones so the stored table can always be stripped back
// to observations and re-merged.
func Columns() []Column {
	return []Column{
		// OPTION
		{"OPTION", "NET DIFF", "NET DIFF", "", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return optional(r.NetDiff) },
			func(r *domain.DerivedRecord, v float64) { r.NetDiff = &v }},
		{"OPTION", "ROC", "Option ROC", "", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return optional(r.OptionROC) },
			func(r *domain.DerivedRecord, v float64) { r.OptionROC = &v }},
		{"OPTION", "ABSULATE CHANGE", "Abs Change Call", "call Index", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.AbsChangeCall) },
			func(r *domain.DerivedRecord, v float64) { r.AbsChangeCall = v }},
		{"OPTION", "ABSULATE CHANGE", "Abs Change Put", "Put Index", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.AbsChangePut) },
			func(r *domain.DerivedRecord, v float64) { r.AbsChangePut = v }},
		{"OPTION", "OPTION", "Option NET", "NET", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.OptionNet) },
			func(r *domain.DerivedRecord, v float64) { r.OptionNet = v }},
		{"OPTION", "NET CALL", "NET CALL (CoC)", "", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return optional(r.NetCallCoC) },
			func(r *domain.DerivedRecord, v float64) { r.NetCallCoC = &v }},
		{"OPTION", "NET PUT", "NET PUT (CoC)", "", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return optional(r.NetPutCoC) },
			func(r *domain.DerivedRecord, v float64) { r.NetPutCoC = &v }},

		// FUTURE (index)
		{"FUTURE", "FUTURE", "Future Net", "NET", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.FutureNet) },
			func(r *domain.DerivedRecord, v float64) { r.FutureNet = v }},
		{"FUTURE", "ROC", "Future ROC", "", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return optional(r.FutureROC) },
			func(r *domain.DerivedRecord, v float64) { r.FutureROC = &v }},
		{"FUTURE", "ABSULATE CHANGE", "Fut Abs Chg Long", "LONG", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return optional(r.FutAbsChgLong) },
			func(r *domain.DerivedRecord, v float64) { r.FutAbsChgLong = &v }},
		{"FUTURE", "ABSULATE CHANGE", "Fut Abs Chg Short", "SHORT", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return optional(r.FutAbsChgShort) },
			func(r *domain.DerivedRecord, v float64) { r.FutAbsChgShort = &v }},
		{"FUTURE", "L/S RATIO", "Fut L/S Ratio", "", KindRatio,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.FutLSRatio) },
			func(r *domain.DerivedRecord, v float64) { r.FutLSRatio = v }},
		{"FUTURE", "LONG", "Fut Long %", "%", KindPercent,
			func(r *domain.DerivedRecord) (float64, bool) { return optional(r.FutLongPct) },
			func(r *domain.DerivedRecord, v float64) { r.FutLongPct = &v }},
		{"FUTURE", "SHORT", "Fut Short %", "%", KindPercent,
			func(r *domain.DerivedRecord) (float64, bool) { return optional(r.FutShortPct) },
			func(r *domain.DerivedRecord, v float64) { r.FutShortPct = &v }},

		// FUTURE STOCK
		{"FUTURE STOCK", "FUTURE", "Stk Fut Net", "NET", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.StkFutNet) },
			func(r *domain.DerivedRecord, v float64) { r.StkFutNet = v }},
		{"FUTURE STOCK", "ROC", "Stk Fut ROC", "", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return optional(r.StkFutROC) },
			func(r *domain.DerivedRecord, v float64) { r.StkFutROC = &v }},
		{"FUTURE STOCK", "ABSULATE CHANGE", "Stk Abs Chg Long", "LONG", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return optional(r.StkAbsChgLong) },
			func(r *domain.DerivedRecord, v float64) { r.StkAbsChgLong = &v }},
		{"FUTURE STOCK", "ABSULATE CHANGE", "Stk Abs Chg Short", "SHORT", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return optional(r.StkAbsChgShort) },
			func(r *domain.DerivedRecord, v float64) { r.StkAbsChgShort = &v }},
		{"FUTURE STOCK", "L/S RATIO", "Stk L/S Ratio", "", KindRatio,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.StkLSRatio) },
			func(r *domain.DerivedRecord, v float64) { r.StkLSRatio = v }},
		{"FUTURE STOCK", "LONG", "Stk Long %", "%", KindPercent,
			func(r *domain.DerivedRecord) (float64, bool) { return optional(r.StkLongPct) },
			func(r *domain.DerivedRecord, v float64) { r.StkLongPct = &v }},
		{"FUTURE STOCK", "SHORT", "Stk Short %", "%", KindPercent,
			func(r *domain.DerivedRecord) (float64, bool) { return optional(r.StkShortPct) },
			func(r *domain.DerivedRecord, v float64) { r.StkShortPct = &v }},

		// NIFTY
		{"", "NIFTY", "Nifty Diff", "difff", KindPrice,
			func(r *domain.DerivedRecord) (float64, bool) { return optional(r.NiftyDiff) },
			func(r *domain.DerivedRecord, v float64) { r.NiftyDiff = &v }},
		{"", "NIFTY", "Nifty Spot", "spot", KindPrice,
			func(r *domain.DerivedRecord) (float64, bool) { return optional(r.NiftySpot) },
			func(r *domain.DerivedRecord, v float64) { r.NiftySpot = &v }},

		// FUTURE share-of-total
		{"FUTURE", "TOTAL LONG", "Future Total Long %", "%", KindPercent,
			func(r *domain.DerivedRecord) (float64, bool) { return optional(r.FutureTotalLongPct) },
			func(r *domain.DerivedRecord, v float64) { r.FutureTotalLongPct = &v }},
		{"FUTURE", "TOTAL SHORT", "Future Total Short %", "%", KindPercent,
			func(r *domain.DerivedRecord) (float64, bool) { return optional(r.FutureTotalShortPct) },
			func(r *domain.DerivedRecord, v float64) { r.FutureTotalShortPct = &v }},

		// RAW positions
		{"RAW", "FUTURE INDEX", "Future Index Long", "LONG", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.FutureIndexLong) },
			func(r *domain.DerivedRecord, v float64) { r.FutureIndexLong = v }},
		{"RAW", "FUTURE INDEX", "Future Index Short", "SHORT", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.FutureIndexShort) },
			func(r *domain.DerivedRecord, v float64) { r.FutureIndexShort = v }},
		{"RAW", "FUTURE STOCK", "Future Stock Long", "LONG", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.FutureStockLong) },
			func(r *domain.DerivedRecord, v float64) { r.FutureStockLong = v }},
		{"RAW", "FUTURE STOCK", "Future Stock Short", "SHORT", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.FutureStockShort) },
			func(r *domain.DerivedRecord, v float64) { r.FutureStockShort = v }},
		{"RAW", "OPTION INDEX CALL", "Option Index Call Long", "LONG", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.OptionIndexCallLong) },
			func(r *domain.DerivedRecord, v float64) { r.OptionIndexCallLong = v }},
		{"RAW", "OPTION INDEX PUT", "Option Index Put Long", "LONG", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.OptionIndexPutLong) },
			func(r *domain.DerivedRecord, v float64) { r.OptionIndexPutLong = v }},
		{"RAW", "OPTION INDEX CALL", "Option Index Call Short", "SHORT", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.OptionIndexCallShort) },
			func(r *domain.DerivedRecord, v float64) { r.OptionIndexCallShort = v }},
		{"RAW", "OPTION INDEX PUT", "Option Index Put Short", "SHORT", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.OptionIndexPutShort) },
			func(r *domain.DerivedRecord, v float64) { r.OptionIndexPutShort = v }},
		{"RAW", "OPTION STOCK CALL", "Option Stock Call Long", "LONG", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.OptionStockCallLong) },
			func(r *domain.DerivedRecord, v float64) { r.OptionStockCallLong = v }},
		{"RAW", "OPTION STOCK PUT", "Option Stock Put Long", "LONG", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.OptionStockPutLong) },
			func(r *domain.DerivedRecord, v float64) { r.OptionStockPutLong = v }},
		{"RAW", "OPTION STOCK CALL", "Option Stock Call Short", "SHORT", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.OptionStockCallShort) },
			func(r *domain.DerivedRecord, v float64) { r.OptionStockCallShort = v }},
		{"RAW", "OPTION STOCK PUT", "Option Stock Put Short", "SHORT", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.OptionStockPutShort) },
			func(r *domain.DerivedRecord, v float64) { r.OptionStockPutShort = v }},
		{"RAW", "TOTAL", "Total Long Contracts", "LONG", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.TotalLongContracts) },
			func(r *domain.DerivedRecord, v float64) { r.TotalLongContracts = v }},
		{"RAW", "TOTAL", "Total Short Contracts", "SHORT", KindCount,
			func(r *domain.DerivedRecord) (float64, bool) { return value(r.TotalShortContracts) },
			func(r *domain.DerivedRecord, v float64) { r.TotalShortContracts = v }},
	}
}

// HeaderTiers returns the three export header rows. The leading Date and
// Client Type cells sit in an unnamed group, matching the legacy layout.
// The third tier carries the actual column names so a stored table can be
// parsed back by name.
func HeaderTiers() (layer1, layer2, layer3 []string) {
	layer1 = []string{"", ""}
	layer2 = []string{"Date", "Client Type"}
	layer3 = []string{"Date", "Client Type"}
	for _, col := range Columns() {
		layer1 = append(layer1, col.Group)
		layer2 = append(layer2, col.Subgroup)
		layer3 = append(layer3, col.Name)
	}
	return layer1, layer2, layer3
}

// ColumnNames returns the flat column name row (identical to the third
// header tier).
func ColumnNames() []string {
	_, _, names := HeaderTiers()
	return names
}
