package storage

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"oipulse/internal/config"
	"oipulse/internal/errors"
	"oipulse/internal/exporter"
	"oipulse/pkg/contracts/domain"
)

// SheetsStore keeps the derived table in a Google Sheets worksheet using
// the three-tier header layout. Data rows start below the third header
// tier; the third tier carries parseable column names, so Load works by
// scanning for the row that starts with "Date".
type SheetsStore struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsStore creates a Sheets-backed store authenticated with a
// service account credentials file.
func NewSheetsStore(ctx context.Context, cfg config.StorageConfig) (*SheetsStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.NewStorageError("failed to create sheets service", err)
	}
	return &SheetsStore{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
	}, nil
}

// Name implements TableStore.
func (s *SheetsStore) Name() string { return "sheets" }

// Load implements TableStore. An empty worksheet is an empty table.
func (s *SheetsStore) Load(ctx context.Context) (*domain.DerivedTable, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName).
		Context(ctx).Do()
	if err != nil {
		return nil, errors.NewStorageError("failed to read from sheets", err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, fmt.Sprint(cell))
		}
		rows = append(rows, cells)
	}
	return exporter.ParseTable(rows)
}

// Replace implements TableStore. The worksheet is cleared and rewritten
// wholesale: three header tiers, then full-precision data rows.
func (s *SheetsStore) Replace(ctx context.Context, table *domain.DerivedTable) error {
	if _, err := s.service.Spreadsheets.Values.Clear(
		s.spreadsheetID, s.sheetName, &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return errors.NewStorageError("failed to clear sheet", err)
	}

	layer1, layer2, layer3 := exporter.HeaderTiers()
	values := make([][]interface{}, 0, len(table.Records)+3)
	for _, header := range [][]string{layer1, layer2, layer3} {
		values = append(values, toInterfaceRow(header))
	}
	for _, row := range exporter.StorageRows(table) {
		values = append(values, toInterfaceRow(row))
	}

	valueRange := &sheets.ValueRange{Values: values}
	if _, err := s.service.Spreadsheets.Values.Update(
		s.spreadsheetID, fmt.Sprintf("%s!A1", s.sheetName), valueRange).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return errors.NewStorageError("failed to write to sheets", err)
	}

	slog.Info("table persisted",
		slog.String("backend", s.Name()),
		slog.String("spreadsheet_id", s.spreadsheetID),
		slog.Int("rows", len(table.Records)))
	return nil
}

func toInterfaceRow(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, cell := range row {
		out[i] = cell
	}
	return out
}
