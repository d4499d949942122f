// Package dataprocessing turns uploaded NSE participant-wise open interest
// reports into the fully derived historical analytics table.
//
// # Architecture
//
// The package is organized into three components:
//
//  1. Parser: reads CSV/XLSX uploads, locates the header and the report
//     date (Date column, NSE title row, or filename stamp)
//  2. Merge policy: combines an upload's raw rows with the raw rows
//     recovered from the persisted table, newest upload winning
//  3. Engine: recomputes every derived field for the whole table
//
// # Data Flow
//
//	Upload → Parser → RawObservations → Merge → Engine → DerivedTable
//
// The engine is the sole producer of derived records. The merge policy
// always re-feeds the full raw union through it, because each row's
// period-over-period fields depend on the immediately preceding date for
// the same participant category; a single inserted date can change which
// row is "previous" for its neighbours.
//
// # Failure semantics
//
// Compute never fails for well-typed input. Missing results (oldest row of
// a category, zero denominators) are explicit nils, and rows without a
// parseable date are excluded and counted, not fatal.
package dataprocessing
