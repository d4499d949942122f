package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "oipulse/internal/errors"
	"oipulse/pkg/contracts/domain"
)

// Exact, whitespace-trimmed header names of the key columns in the NSE
// participant-wise open interest report.
const (
	colDate     = "Date"
	colCategory = "Client Type"
)

var numericColumns = []struct {
	name     string
	assign   func(*domain.RawObservation, float64)
	required bool
}{
	{"Future Index Long", func(o *domain.RawObservation, v float64) { o.FutureIndexLong = v }, true},
	{"Future Index Short", func(o *domain.RawObservation, v float64) { o.FutureIndexShort = v }, true},
	{"Future Stock Long", func(o *domain.RawObservation, v float64) { o.FutureStockLong = v }, true},
	{"Future Stock Short", func(o *domain.RawObservation, v float64) { o.FutureStockShort = v }, true},
	{"Option Index Call Long", func(o *domain.RawObservation, v float64) { o.OptionIndexCallLong = v }, true},
	{"Option Index Put Long", func(o *domain.RawObservation, v float64) { o.OptionIndexPutLong = v }, true},
	{"Option Index Call Short", func(o *domain.RawObservation, v float64) { o.OptionIndexCallShort = v }, true},
	{"Option Index Put Short", func(o *domain.RawObservation, v float64) { o.OptionIndexPutShort = v }, true},
	{"Option Stock Call Long", func(o *domain.RawObservation, v float64) { o.OptionStockCallLong = v }, true},
	{"Option Stock Put Long", func(o *domain.RawObservation, v float64) { o.OptionStockPutLong = v }, true},
	{"Option Stock Call Short", func(o *domain.RawObservation, v float64) { o.OptionStockCallShort = v }, true},
	{"Option Stock Put Short", func(o *domain.RawObservation, v float64) { o.OptionStockPutShort = v }, true},
	{"Total Long Contracts", func(o *domain.RawObservation, v float64) { o.TotalLongContracts = v }, true},
	{"Total Short Contracts", func(o *domain.RawObservation, v float64) { o.TotalShortContracts = v }, true},
}

// titleDatePattern matches the NSE report title, e.g.
// "Participant wise Open Interest ... as on Dec 05, 2025".
var titleDatePattern = regexp.MustCompile(`(?i)as on\s+([A-Za-z]+)\s+(\d{1,2}),?\s+(\d{4})`)

// filenameDatePattern matches the 8-digit DDMMYYYY stamp NSE puts in report
// filenames, e.g. "fao_participant_oi_05122025.csv".
var filenameDatePattern = regexp.MustCompile(`(\d{2})(\d{2})(\d{4})`)

// Day-first layouts accepted for Date cells. The report's locale writes the
// day before the month; ambiguous numeric dates resolve day-first.
var dateLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"2-1-2006",
	"2/1/2006",
	"02.01.2006",
	"2006-01-02",
	"02-Jan-2006",
	"02 Jan 2006",
	"2 Jan 2006",
}

// ParseUpload reads one uploaded daily participant file (delimited text or
// spreadsheet) and extracts its raw observations.
//
// Two layouts are recognised: a plain table whose first row is a header
// containing a Date column, and the NSE report layout where row 0 is a
// free-text title carrying the date and row 1 is the real header keyed by
// Client Type. In the second layout the date is synthesised from the title
// text or, failing that, from a DDMMYYYY stamp in the filename, and stamped
// onto every data row. A file supplying neither a Date column nor a
// derivable date is rejected.
func ParseUpload(fileName string, r io.Reader) (*domain.Upload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeParsing, "failed to read upload", err)
	}

	rows, err := readTabular(fileName, data)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeParsing, "unreadable file", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrTypeParsing, "empty file", nil)
	}

	// Attempt 1: header in row 0 with a Date column.
	if header, ok := headerIndex(rows[0]); ok {
		if _, hasDate := header[colDate]; hasDate {
			return buildUpload(fileName, rows[1:], header, time.Time{}, "date_column")
		}
	}

	// Attempt 2: NSE layout, title in row 0 and header in row 1.
	if len(rows) < 2 {
		return nil, apperrors.NewAppError(apperrors.ErrTypeParsing, "could not find Date or Client Type columns", nil)
	}
	header, ok := headerIndex(rows[1])
	if !ok {
		return nil, apperrors.NewAppError(apperrors.ErrTypeParsing, "could not find a header row", nil)
	}
	if _, hasCategory := header[colCategory]; !hasCategory {
		if _, hasDate := header[colDate]; hasDate {
			return buildUpload(fileName, rows[2:], header, time.Time{}, "date_column")
		}
		return nil, apperrors.NewAppError(apperrors.ErrTypeParsing, "could not find Date or Client Type columns", nil)
	}

	reportDate, source := dateFromTitle(rows[0])
	if reportDate.IsZero() {
		reportDate, source = dateFromFilename(fileName)
	}
	if _, hasDate := header[colDate]; !hasDate && reportDate.IsZero() {
		return nil, apperrors.NewAppError(apperrors.ErrTypeParsing,
			fmt.Sprintf("no report date derivable from title or filename %q", fileName), nil)
	}

	return buildUpload(fileName, rows[2:], header, reportDate, source)
}

// PeekDate detects the report date of an upload without fully parsing it,
// so the caller can start the spot-price lookup early. The returned source
// is "filename", "title_row" or "date_column".
func PeekDate(fileName string, r io.Reader) (time.Time, string, error) {
	if d, source := dateFromFilename(fileName); !d.IsZero() {
		return d, source, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return time.Time{}, "", apperrors.NewAppError(apperrors.ErrTypeParsing, "failed to read upload", err)
	}
	rows, err := readTabular(fileName, data)
	if err != nil || len(rows) == 0 {
		return time.Time{}, "", apperrors.NewAppError(apperrors.ErrTypeParsing, "unreadable file", err)
	}

	if d, source := dateFromTitle(rows[0]); !d.IsZero() {
		return d, source, nil
	}

	// Fall back to the first parseable value in a Date column, trying both
	// recognised header positions.
	for _, headerRow := range []int{0, 1} {
		if headerRow >= len(rows) {
			break
		}
		header, ok := headerIndex(rows[headerRow])
		if !ok {
			continue
		}
		idx, hasDate := header[colDate]
		if !hasDate {
			continue
		}
		for _, row := range rows[headerRow+1:] {
			if idx < len(row) {
				if d := parseDayFirst(row[idx]); !d.IsZero() {
					return d, "date_column", nil
				}
			}
		}
	}

	return time.Time{}, "", apperrors.NewAppError(apperrors.ErrTypeParsing, "could not detect a report date", nil)
}

// readTabular returns the raw cell grid of a CSV or XLSX upload.
func readTabular(fileName string, data []byte) ([][]string, error) {
	if strings.HasSuffix(strings.ToLower(fileName), ".xlsx") {
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
		}
		defer f.Close()

		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("spreadsheet has no sheets")
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
		}
		return rows, nil
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read delimited text: %w", err)
	}
	return rows, nil
}

// headerIndex maps trimmed header names to column positions. A row counts
// as a header only if it names the Client Type or Date column.
func headerIndex(row []string) (map[string]int, bool) {
	header := make(map[string]int, len(row))
	for i, cell := range row {
		name := strings.TrimSpace(cell)
		if name == "" {
			continue
		}
		if _, dup := header[name]; !dup {
			header[name] = i
		}
	}
	_, hasCategory := header[colCategory]
	_, hasDate := header[colDate]
	return header, hasCategory || hasDate
}

// buildUpload converts data rows into observations. Rows lacking a
// parseable date are dropped silently; rows lacking a category are skipped
// as blank filler.
func buildUpload(fileName string, dataRows [][]string, header map[string]int, stampedDate time.Time, dateSource string) (*domain.Upload, error) {
	catIdx, hasCategory := header[colCategory]
	if !hasCategory {
		return nil, apperrors.NewAppError(apperrors.ErrTypeParsing, "missing Client Type column", nil)
	}
	for _, col := range numericColumns {
		if _, ok := header[col.name]; !ok && col.required {
			return nil, apperrors.NewAppError(apperrors.ErrTypeParsing,
				fmt.Sprintf("missing required column %q", col.name), nil)
		}
	}
	dateIdx, hasDateColumn := header[colDate]

	cell := func(row []string, idx int) string {
		if idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	upload := &domain.Upload{FileName: fileName, ReportDate: stampedDate, DateSource: dateSource}
	dropped := 0
	for _, row := range dataRows {
		category := cell(row, catIdx)
		if category == "" {
			continue
		}

		date := stampedDate
		if hasDateColumn {
			if parsed := parseDayFirst(cell(row, dateIdx)); !parsed.IsZero() {
				date = parsed
			} else if stampedDate.IsZero() {
				dropped++
				continue
			}
		}
		if date.IsZero() {
			dropped++
			continue
		}

		obs := domain.RawObservation{Date: date, Category: category}
		for _, col := range numericColumns {
			if idx, ok := header[col.name]; ok {
				col.assign(&obs, parseNumber(cell(row, idx)))
			}
		}
		if idx, ok := header["Nifty Spot"]; ok {
			if raw := cell(row, idx); raw != "" {
				v := parseNumber(raw)
				obs.NiftySpot = &v
			}
		}

		upload.Rows = append(upload.Rows, obs)
		if upload.ReportDate.IsZero() || date.After(upload.ReportDate) {
			upload.ReportDate = date
		}
	}

	if dropped > 0 {
		slog.Debug("dropped rows without a parseable date",
			slog.String("file", fileName), slog.Int("count", dropped))
	}
	if len(upload.Rows) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrTypeParsing, "file contains no data rows", nil)
	}
	return upload, nil
}

// parseDayFirst parses a calendar date written day-before-month. Returns
// the zero time when the value is not a recognisable date.
func parseDayFirst(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, value); err == nil {
			return d
		}
	}
	return time.Time{}
}

// dateFromTitle extracts the report date from an NSE title row.
func dateFromTitle(row []string) (time.Time, string) {
	if len(row) == 0 {
		return time.Time{}, ""
	}
	m := titleDatePattern.FindStringSubmatch(strings.Join(row, " "))
	if m == nil {
		return time.Time{}, ""
	}
	for _, layout := range []string{"Jan 2, 2006", "January 2, 2006"} {
		if d, err := time.Parse(layout, fmt.Sprintf("%s %s, %s", m[1], m[2], m[3])); err == nil {
			return d, "title_row"
		}
	}
	return time.Time{}, ""
}

// dateFromFilename extracts a DDMMYYYY date stamp from the filename.
func dateFromFilename(fileName string) (time.Time, string) {
	m := filenameDatePattern.FindStringSubmatch(fileName)
	if m == nil {
		return time.Time{}, ""
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, ""
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != time.Month(month) {
		return time.Time{}, ""
	}
	return d, "filename"
}

// parseNumber parses a numeric cell, tolerating thousands separators.
func parseNumber(value string) float64 {
	v, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(value), ",", ""), 64)
	return v
}
