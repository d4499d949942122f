package exporter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"oipulse/internal/errors"
	"oipulse/pkg/contracts/domain"
)

// FormattedRow renders one record for human-facing export: display date,
// category, then each column formatted per its kind.
func FormattedRow(rec *domain.DerivedRecord) []string {
	cols := Columns()
	row := make([]string, 0, len(cols)+2)
	row = append(row, rec.Date.Format(DisplayDateLayout), rec.Category)
	for _, col := range cols {
		v, ok := col.Get(rec)
		row = append(row, FormatValue(col.Kind, v, ok))
	}
	return row
}

// StorageRow renders one record for persistence: ISO date, category, then
// each column at full precision with nil values as empty cells.
func StorageRow(rec *domain.DerivedRecord) []string {
	cols := Columns()
	row := make([]string, 0, len(cols)+2)
	row = append(row, rec.Date.Format(StorageDateLayout), rec.Category)
	for _, col := range cols {
		row = append(row, StorageValue(col.Get(rec)))
	}
	return row
}

// StorageRows renders the whole table for persistence, in table order.
func StorageRows(table *domain.DerivedTable) [][]string {
	if table.Empty() {
		return nil
	}
	rows := make([][]string, 0, len(table.Records))
	for i := range table.Records {
		rows = append(rows, StorageRow(&table.Records[i]))
	}
	return rows
}

// FormattedRows renders the whole table for export, in table order.
func FormattedRows(table *domain.DerivedTable) [][]string {
	if table.Empty() {
		return nil
	}
	rows := make([][]string, 0, len(table.Records))
	for i := range table.Records {
		rows = append(rows, FormattedRow(&table.Records[i]))
	}
	return rows
}

// ParseTable reconstructs a DerivedTable from rows read back out of
// storage. It locates the header row by scanning for the row whose first
// cell is "Date", which skips the two decorative tiers a three-tier sheet
// carries above it, then maps cells to columns by name so reordered or
// extended sheets still load. Unknown columns are ignored; rows with an
// unreadable date or blank category are skipped.
func ParseTable(rows [][]string) (*domain.DerivedTable, error) {
	headerIdx := -1
	for i, row := range rows {
		if len(row) > 0 && strings.TrimSpace(row[0]) == "Date" {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		if len(rows) == 0 {
			return &domain.DerivedTable{}, nil
		}
		return nil, errors.NewStorageError("stored table has no header row", nil)
	}

	header := rows[headerIdx]
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.TrimSpace(name)] = i
	}
	catIdx, ok := colIdx["Client Type"]
	if !ok {
		return nil, errors.NewStorageError("stored table has no Client Type column", nil)
	}

	cols := Columns()
	table := &domain.DerivedTable{}
	for _, row := range rows[headerIdx+1:] {
		if len(row) <= catIdx {
			continue
		}
		date, err := parseStoredDate(strings.TrimSpace(row[0]))
		if err != nil {
			continue
		}
		category := strings.TrimSpace(row[catIdx])
		if category == "" {
			continue
		}
		rec := domain.DerivedRecord{}
		rec.Date = date
		rec.Category = category
		for _, col := range cols {
			idx, present := colIdx[col.Name]
			if !present || idx >= len(row) {
				continue
			}
			v, ok, err := parseStoredValue(row[idx])
			if err != nil {
				return nil, errors.NewStorageError(
					fmt.Sprintf("unreadable value %q in column %s", row[idx], col.Name), err)
			}
			if ok {
				col.Set(&rec, v)
			}
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

func parseStoredDate(s string) (time.Time, error) {
	for _, layout := range []string{StorageDateLayout, DisplayDateLayout, "02.01.2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// parseStoredValue reads a persisted cell. Empty means "no value". Comma
// grouping and percent suffixes are tolerated so a table exported in
// display format can still be loaded.
func parseStoredValue(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}
