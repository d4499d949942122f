package storage

import (
	"context"
	"log/slog"
	"os"

	"oipulse/internal/errors"
	"oipulse/internal/exporter"
	"oipulse/pkg/contracts/domain"
)

// CSVStore keeps the derived table in a single local CSV file. Values are
// persisted at full precision with a flat name header so the file
// round-trips losslessly through exporter.ParseTable.
type CSVStore struct {
	path string
}

// NewCSVStore creates a CSV-backed store at the given file path.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Name implements TableStore.
func (s *CSVStore) Name() string { return "csv" }

// Load implements TableStore. A missing file is an empty table.
func (s *CSVStore) Load(ctx context.Context) (*domain.DerivedTable, error) {
	rows, err := exporter.ReadCSVFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("table file not found, starting empty",
				slog.String("path", s.path))
			return &domain.DerivedTable{}, nil
		}
		return nil, errors.NewStorageError("failed to read table file", err)
	}
	table, err := exporter.ParseTable(rows)
	if err != nil {
		return nil, err
	}
	return table, nil
}

// Replace implements TableStore.
func (s *CSVStore) Replace(ctx context.Context, table *domain.DerivedTable) error {
	err := exporter.WriteCSV(s.path, exporter.WriteOptions{
		HeaderRows: [][]string{exporter.ColumnNames()},
		Records:    exporter.StorageRows(table),
		BOMPrefix:  true,
	})
	if err != nil {
		return errors.NewStorageError("failed to write table file", err)
	}
	slog.Info("table persisted",
		slog.String("backend", s.Name()),
		slog.String("path", s.path),
		slog.Int("rows", len(table.Records)))
	return nil
}
