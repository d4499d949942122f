package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oipulse/pkg/contracts/domain"
)

func TestConflictingDates(t *testing.T) {
	tests := []struct {
		name     string
		existing []domain.RawObservation
		incoming []domain.RawObservation
		expected []string
	}{
		{
			name:     "no overlap",
			existing: []domain.RawObservation{obs("2025-12-04", "FII")},
			incoming: []domain.RawObservation{obs("2025-12-05", "FII")},
			expected: nil,
		},
		{
			name:     "empty table",
			existing: nil,
			incoming: []domain.RawObservation{obs("2025-12-05", "FII")},
			expected: nil,
		},
		{
			name: "single overlapping date reported once",
			existing: []domain.RawObservation{
				obs("2025-12-04", "FII"),
				obs("2025-12-04", "DII"),
			},
			incoming: []domain.RawObservation{
				obs("2025-12-04", "FII"),
				obs("2025-12-04", "Pro"),
			},
			expected: []string{"2025-12-04"},
		},
		{
			name: "multiple overlaps sorted ascending",
			existing: []domain.RawObservation{
				obs("2025-12-03", "FII"),
				obs("2025-12-05", "FII"),
				obs("2025-12-04", "FII"),
			},
			incoming: []domain.RawObservation{
				obs("2025-12-05", "DII"),
				obs("2025-12-03", "DII"),
			},
			expected: []string{"2025-12-03", "2025-12-05"},
		},
		{
			name:     "undated incoming rows ignored",
			existing: []domain.RawObservation{obs("2025-12-04", "FII")},
			incoming: []domain.RawObservation{{Category: "FII"}},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conflicts := ConflictingDates(tt.existing, tt.incoming)

			require.Len(t, conflicts, len(tt.expected))
			for i, d := range conflicts {
				assert.Equal(t, tt.expected[i], d.Format("2006-01-02"))
			}
		})
	}
}

func TestMergeDisjointRows(t *testing.T) {
	existing := []domain.RawObservation{
		obs("2025-12-04", "FII", futures(100, 50)),
		obs("2025-12-04", "DII", futures(20, 10)),
	}
	incoming := []domain.RawObservation{
		obs("2025-12-05", "FII", futures(150, 60)),
	}

	merged := Merge(existing, incoming)

	assert.Len(t, merged, 3)
}

func TestMergeIncomingWinsOnDuplicateKey(t *testing.T) {
	existing := []domain.RawObservation{
		obs("2025-12-05", "FII", futures(100, 50)),
		obs("2025-12-04", "FII", futures(90, 40)),
	}
	incoming := []domain.RawObservation{
		obs("2025-12-05", "FII", futures(999, 1)),
	}

	merged := Merge(existing, incoming)

	require.Len(t, merged, 2)
	byKey := make(map[domain.ObservationKey]domain.RawObservation, len(merged))
	for _, row := range merged {
		byKey[row.Key()] = row
	}
	winner := byKey[domain.ObservationKey{Date: "2025-12-05", Category: "FII"}]
	assert.InDelta(t, 999.0, winner.FutureIndexLong, 1e-9)
}

func TestMergeEmptyExisting(t *testing.T) {
	incoming := []domain.RawObservation{obs("2025-12-05", "FII")}

	merged := Merge(nil, incoming)

	assert.Equal(t, incoming, merged)
}
