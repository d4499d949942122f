package dataprocessing

import (
	"log/slog"
	"sort"
	"time"

	"oipulse/pkg/contracts/domain"
)

// ConflictingDates returns the distinct dates that appear in both the
// persisted table and a new upload. The submission workflow refuses the
// merge when this is non-empty: there is no automatic overwrite path, the
// caller must delete the stored dates first.
func ConflictingDates(existing, incoming []domain.RawObservation) []time.Time {
	stored := make(map[string]bool, len(existing))
	for _, row := range existing {
		if !row.Date.IsZero() {
			stored[dateKey(row.Date)] = true
		}
	}

	seen := make(map[string]time.Time)
	for _, row := range incoming {
		if row.Date.IsZero() {
			continue
		}
		if key := dateKey(row.Date); stored[key] {
			seen[key] = row.Date
		}
	}

	if len(seen) == 0 {
		return nil
	}
	conflicts := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		conflicts = append(conflicts, d)
	}
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Before(conflicts[j]) })
	return conflicts
}

// Merge combines a new upload's raw rows with the raw rows recovered from
// the persisted table. The union is always re-fed through the engine in
// full. If the workflow's date-conflict check was bypassed, uniqueness of
// (date, category) is still guaranteed here: the new upload wins and the
// stored row for that exact pair is discarded.
//
// Output carries no ordering guarantee; the engine re-sorts.
func Merge(existing, incoming []domain.RawObservation) []domain.RawObservation {
	incomingKeys := make(map[domain.ObservationKey]bool, len(incoming))
	for _, row := range incoming {
		incomingKeys[row.Key()] = true
	}

	merged := make([]domain.RawObservation, 0, len(incoming)+len(existing))
	merged = append(merged, incoming...)

	dropped := 0
	for _, row := range existing {
		if incomingKeys[row.Key()] {
			dropped++
			continue
		}
		merged = append(merged, row)
	}
	if dropped > 0 {
		slog.Warn("merge discarded stored rows superseded by upload", slog.Int("count", dropped))
	}

	return merged
}
