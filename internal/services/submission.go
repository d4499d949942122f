package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"oipulse/internal/dataprocessing"
	"oipulse/internal/errors"
	"oipulse/internal/spotprice"
	"oipulse/internal/storage"
	"oipulse/pkg/contracts/domain"
)

// SpotLookup resolves the reference index close for a trading date.
type SpotLookup interface {
	CloseOn(ctx context.Context, date time.Time) (*spotprice.Quote, error)
}

// SubmissionService runs the daily workflow: parse an uploaded report,
// reject date conflicts, merge the new rows into the historical raw set,
// recompute the whole derived table, and persist it. Submissions are
// serialized; the table is single-writer state and concurrent merges
// against the same baseline would silently lose rows.
type SubmissionService struct {
	engine   *dataprocessing.Engine
	store    storage.TableStore
	fallback storage.TableStore
	spot     SpotLookup
	validate *validator.Validate
	logger   *slog.Logger

	mu sync.Mutex
}

// NewSubmissionService creates the workflow service. fallback may be nil;
// when set it receives the table if the primary backend's write fails, so
// a computed result is never lost to a transient outage.
func NewSubmissionService(engine *dataprocessing.Engine, store storage.TableStore, fallback storage.TableStore, spot SpotLookup, logger *slog.Logger) *SubmissionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionService{
		engine:   engine,
		store:    store,
		fallback: fallback,
		spot:     spot,
		validate: validator.New(),
		logger:   logger,
	}
}

// Submit processes one uploaded daily report end to end. spotOverride is
// an optional user-supplied index close used when the automatic lookup is
// unavailable; zero means none was supplied.
func (s *SubmissionService) Submit(ctx context.Context, fileName string, r io.Reader, spotOverride float64) (*domain.SubmissionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	upload, err := dataprocessing.ParseUpload(fileName, r)
	if err != nil {
		return nil, err
	}

	// Position columns carry min=0 tags; a negative open interest means
	// the file is corrupt, not merely unusual.
	if err := s.validate.Struct(upload); err != nil {
		return nil, errors.NewParsingError("uploaded rows failed validation", err)
	}

	existing, readNote := s.loadExisting(ctx)
	existingRaw := existing.RawRows()

	if conflicts := dataprocessing.ConflictingDates(existingRaw, upload.Rows); len(conflicts) > 0 {
		s.logger.WarnContext(ctx, "submission rejected, dates already present",
			slog.String("file", fileName),
			slog.Int("conflicting_dates", len(conflicts)))
		return nil, errors.NewDateConflictError(conflicts)
	}

	result := &domain.SubmissionResult{ProcessedAt: time.Now().UTC(), StorageNote: readNote}

	// The spot lookup is best effort. A dead quote feed must not block
	// the day's submission; the caller's override applies, or the latest
	// rows simply carry no spot.
	var spotPrice float64
	if s.spot != nil {
		quote, err := s.spot.CloseOn(ctx, upload.ReportDate)
		switch {
		case err == nil:
			spotPrice = quote.Price
			result.SpotPrice = quote.Price
			result.SpotNote = quote.SourceNote
		case spotOverride != 0:
			s.logger.WarnContext(ctx, "spot lookup failed, using supplied value",
				slog.String("error", err.Error()),
				slog.Float64("spot", spotOverride))
			spotPrice = spotOverride
			result.SpotPrice = spotOverride
			result.SpotNote = fmt.Sprintf("lookup failed, user-supplied value used: %v", err)
		default:
			s.logger.WarnContext(ctx, "spot lookup failed, continuing without spot",
				slog.String("error", err.Error()))
			result.SpotNote = fmt.Sprintf("spot lookup failed: %v", err)
		}
	} else if spotOverride != 0 {
		spotPrice = spotOverride
		result.SpotPrice = spotOverride
		result.SpotNote = "user-supplied value"
	}

	merged := dataprocessing.Merge(existingRaw, upload.Rows)
	table, excluded := s.engine.Compute(merged, spotPrice)

	if err := s.persist(ctx, table, result); err != nil {
		return nil, err
	}

	result.DatesAdded = addedDates(upload.Rows)
	result.RowsAdded = len(upload.Rows)
	result.TotalRows = len(table.Records)
	result.ExcludedRows = excluded

	s.logger.InfoContext(ctx, "submission processed",
		slog.String("file", fileName),
		slog.String("date_source", upload.DateSource),
		slog.Int("rows_added", result.RowsAdded),
		slog.Int("total_rows", result.TotalRows),
		slog.Int("excluded_rows", result.ExcludedRows))

	return result, nil
}

// loadExisting reads the persisted table without failing the workflow.
// A primary read failure falls back to the local store when one is
// configured, then to an empty table; the substitution is logged and
// surfaced as a note so the caller knows history may be incomplete.
func (s *SubmissionService) loadExisting(ctx context.Context) (*domain.DerivedTable, string) {
	table, err := s.store.Load(ctx)
	if err == nil {
		return table, ""
	}
	s.logger.WarnContext(ctx, "primary storage read failed",
		slog.String("backend", s.store.Name()),
		slog.String("error", err.Error()))

	if s.fallback != nil {
		fbTable, fbErr := s.fallback.Load(ctx)
		if fbErr == nil {
			return fbTable, fmt.Sprintf("%s read failed, table loaded from %s: %v",
				s.store.Name(), s.fallback.Name(), err)
		}
		s.logger.WarnContext(ctx, "fallback storage read failed",
			slog.String("backend", s.fallback.Name()),
			slog.String("error", fbErr.Error()))
	}

	return &domain.DerivedTable{}, fmt.Sprintf("%s read failed, starting from an empty table: %v",
		s.store.Name(), err)
}

// persist writes the table to the primary store, falling back to the
// local store on failure and noting the diversion in the result.
func (s *SubmissionService) persist(ctx context.Context, table *domain.DerivedTable, result *domain.SubmissionResult) error {
	err := s.store.Replace(ctx, table)
	if err == nil {
		return nil
	}
	if s.fallback == nil {
		return err
	}
	s.logger.ErrorContext(ctx, "primary storage write failed, using fallback",
		slog.String("primary", s.store.Name()),
		slog.String("fallback", s.fallback.Name()),
		slog.String("error", err.Error()))
	if fbErr := s.fallback.Replace(ctx, table); fbErr != nil {
		return errors.NewStorageError("primary and fallback storage both failed", fbErr)
	}
	note := fmt.Sprintf("%s write failed, table saved to %s: %v",
		s.store.Name(), s.fallback.Name(), err)
	if result.StorageNote != "" {
		note = result.StorageNote + "; " + note
	}
	result.StorageNote = note
	return nil
}

// Table returns the current derived table. Read failures substitute the
// fallback backend and then an empty table; an outage must not take the
// read path down with it.
func (s *SubmissionService) Table(ctx context.Context) (*domain.DerivedTable, error) {
	table, err := s.store.Load(ctx)
	if err == nil {
		return table, nil
	}
	s.logger.WarnContext(ctx, "primary storage read failed",
		slog.String("backend", s.store.Name()),
		slog.String("error", err.Error()))

	if s.fallback != nil {
		fbTable, fbErr := s.fallback.Load(ctx)
		if fbErr == nil {
			return fbTable, nil
		}
		s.logger.WarnContext(ctx, "fallback storage read failed",
			slog.String("backend", s.fallback.Name()),
			slog.String("error", fbErr.Error()))
	}

	return &domain.DerivedTable{}, nil
}

// Dates returns the distinct trading dates currently stored, newest
// first.
func (s *SubmissionService) Dates(ctx context.Context) ([]time.Time, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	dates := table.Dates()
	sortDatesDesc(dates)
	return dates, nil
}

func addedDates(rows []domain.RawObservation) []time.Time {
	seen := make(map[string]time.Time)
	for _, row := range rows {
		seen[row.Date.Format("2006-01-02")] = row.Date
	}
	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sortDatesDesc(dates)
	return dates
}

func sortDatesDesc(dates []time.Time) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
}
