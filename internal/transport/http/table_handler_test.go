package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "oipulse/internal/errors"
	"oipulse/internal/exporter"
	"oipulse/pkg/contracts/domain"
)

func derivedTable() *domain.DerivedTable {
	latest := domain.DerivedRecord{}
	latest.Date = time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC)
	latest.Category = "FII"
	latest.FutureIndexLong = 150

	older := domain.DerivedRecord{}
	older.Date = time.Date(2025, 12, 4, 0, 0, 0, 0, time.UTC)
	older.Category = "FII"
	older.FutureIndexLong = 100

	return &domain.DerivedTable{Records: []domain.DerivedRecord{latest, older}}
}

func newTableHandler(svc *stubSubmissionService) *TableHandler {
	logger := testLogger()
	return NewTableHandler(svc, logger, apierrors.NewErrorHandler(logger, false))
}

func TestGetTable(t *testing.T) {
	handler := newTableHandler(&stubSubmissionService{table: derivedTable()})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var table domain.DerivedTable
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
	assert.Len(t, table.Records, 2)
	assert.Equal(t, "FII", table.Records[0].Category)
}

func TestGetTableEmpty(t *testing.T) {
	handler := newTableHandler(&stubSubmissionService{table: &domain.DerivedTable{}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTableStorageError(t *testing.T) {
	handler := newTableHandler(&stubSubmissionService{
		tableErr: apierrors.NewStorageError("corrupt table file", nil),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestExportTable(t *testing.T) {
	handler := newTableHandler(&stubSubmissionService{table: derivedTable()})

	req := httptest.NewRequest(http.MethodGet, "/export", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "derivative_analytics_2025-12-05.csv")

	rows, err := exporter.ReadCSV(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	// Three header tiers plus the two records.
	require.Len(t, rows, 5)
	assert.Equal(t, "Date", rows[2][0])
	assert.Equal(t, "05.12.25", rows[3][0])
}

func TestExportTableEmpty(t *testing.T) {
	handler := newTableHandler(&stubSubmissionService{table: &domain.DerivedTable{}})

	req := httptest.NewRequest(http.MethodGet, "/export", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDates(t *testing.T) {
	handler := newTableHandler(&stubSubmissionService{
		dates: []time.Time{
			time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 12, 4, 0, 0, 0, 0, time.UTC),
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	http.HandlerFunc(handler.GetDates).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Dates []string `json:"dates"`
		Count int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 2, payload.Count)
	assert.Equal(t, []string{"2025-12-05", "2025-12-04"}, payload.Dates)
}

func TestGetDatesEmptyTable(t *testing.T) {
	handler := newTableHandler(&stubSubmissionService{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	http.HandlerFunc(handler.GetDates).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Dates []string `json:"dates"`
		Count int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 0, payload.Count)
	assert.Empty(t, payload.Dates)
}
