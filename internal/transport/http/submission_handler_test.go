package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "oipulse/internal/errors"
	"oipulse/pkg/contracts/domain"
)

// stubSubmissionService implements SubmissionServiceInterface for handler
// tests.
type stubSubmissionService struct {
	submitResult *domain.SubmissionResult
	submitErr    error
	table        *domain.DerivedTable
	tableErr     error
	dates        []time.Time
	datesErr     error

	gotFileName string
	gotSpot     float64
}

func (s *stubSubmissionService) Submit(ctx context.Context, fileName string, r io.Reader, spotOverride float64) (*domain.SubmissionResult, error) {
	s.gotFileName = fileName
	s.gotSpot = spotOverride
	io.Copy(io.Discard, r)
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return s.submitResult, nil
}

func (s *stubSubmissionService) Table(ctx context.Context) (*domain.DerivedTable, error) {
	if s.tableErr != nil {
		return nil, s.tableErr
	}
	return s.table, nil
}

func (s *stubSubmissionService) Dates(ctx context.Context) ([]time.Time, error) {
	if s.datesErr != nil {
		return nil, s.datesErr
	}
	return s.dates, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSubmissionHandler(svc *stubSubmissionService) *SubmissionHandler {
	logger := testLogger()
	return NewSubmissionHandler(svc, logger, apierrors.NewErrorHandler(logger, false), 1<<20)
}

// multipartUpload builds a multipart body carrying one file field.
func multipartUpload(t *testing.T, fieldName, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(fieldName, fileName)
	require.NoError(t, err)
	_, err = io.Copy(fw, strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCreateSubmissionAccepted(t *testing.T) {
	svc := &stubSubmissionService{
		submitResult: &domain.SubmissionResult{RowsAdded: 4, TotalRows: 8},
	}
	handler := newSubmissionHandler(svc)

	body, contentType := multipartUpload(t, "file", "report.csv", "Date,Client Type\n")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "report.csv", svc.gotFileName)

	var result domain.SubmissionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 4, result.RowsAdded)
	assert.Equal(t, 8, result.TotalRows)
}

func TestCreateSubmissionSpotOverride(t *testing.T) {
	svc := &stubSubmissionService{submitResult: &domain.SubmissionResult{}}
	handler := newSubmissionHandler(svc)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "report.csv")
	require.NoError(t, err)
	_, err = io.Copy(fw, strings.NewReader("Date,Client Type\n"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("spot", "24321.5"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.InDelta(t, 24321.5, svc.gotSpot, 1e-9)
}

func TestCreateSubmissionInvalidSpotOverride(t *testing.T) {
	tests := []struct {
		name string
		spot string
	}{
		{"not a number", "abc"},
		{"negative", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newSubmissionHandler(&stubSubmissionService{})

			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			fw, err := mw.CreateFormFile("file", "report.csv")
			require.NoError(t, err)
			_, err = io.Copy(fw, strings.NewReader("data"))
			require.NoError(t, err)
			require.NoError(t, mw.WriteField("spot", tt.spot))
			require.NoError(t, mw.Close())

			req := httptest.NewRequest(http.MethodPost, "/", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			rec := httptest.NewRecorder()

			handler.Routes().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateSubmissionMissingFileField(t *testing.T) {
	handler := newSubmissionHandler(&stubSubmissionService{})

	body, contentType := multipartUpload(t, "wrong_field", "report.csv", "data")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestCreateSubmissionNotMultipart(t *testing.T) {
	handler := newSubmissionHandler(&stubSubmissionService{})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"not":"multipart"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSubmissionDateConflict(t *testing.T) {
	conflictDate := time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC)
	svc := &stubSubmissionService{
		submitErr: apierrors.NewDateConflictError([]time.Time{conflictDate}),
	}
	handler := newSubmissionHandler(svc)

	body, contentType := multipartUpload(t, "file", "report.csv", "data")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "/errors/upload/date-conflict", problem["type"])
	dates, ok := problem["dates"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, "05.12.2025", dates[0])
}

func TestCreateSubmissionUnreadableUpload(t *testing.T) {
	svc := &stubSubmissionService{
		submitErr: apierrors.NewParsingError("could not find a header row", nil),
	}
	handler := newSubmissionHandler(svc)

	body, contentType := multipartUpload(t, "file", "garbage.csv", "data")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "/errors/upload/unreadable", problem["type"])
}

func TestCreateSubmissionStorageFailure(t *testing.T) {
	svc := &stubSubmissionService{
		submitErr: apierrors.NewStorageError("primary and fallback storage both failed", nil),
	}
	handler := newSubmissionHandler(svc)

	body, contentType := multipartUpload(t, "file", "report.csv", "data")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestOutcomeForError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"conflict", apierrors.NewDateConflictError(nil), "conflict"},
		{"parse failure", apierrors.NewParsingError("bad file", nil), "unreadable"},
		{"anything else", apierrors.NewStorageError("down", nil), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, outcomeForError(tt.err))
		})
	}
}
