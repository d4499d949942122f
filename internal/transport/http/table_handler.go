package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "oipulse/internal/errors"
	"oipulse/internal/exporter"
)

// TableHandler serves the derived table: JSON reads, the date index and
// the three-tier CSV export.
type TableHandler struct {
	service      SubmissionServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewTableHandler creates a new table handler.
func NewTableHandler(service SubmissionServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *TableHandler {
	return &TableHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "table_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the table routes.
func (h *TableHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetTable)
	r.Get("/export", h.ExportTable)
	return r
}

// GetTable handles GET /api/table.
func (h *TableHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	table, err := h.service.Table(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if table.Empty() {
		h.errorHandler.HandleError(w, r, apierrors.ErrTableEmpty)
		return
	}
	render.JSON(w, r, table)
}

// ExportTable handles GET /api/table/export, streaming the display-format
// CSV with the three header tiers.
func (h *TableHandler) ExportTable(w http.ResponseWriter, r *http.Request) {
	table, err := h.service.Table(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if table.Empty() {
		h.errorHandler.HandleError(w, r, apierrors.ErrTableEmpty)
		return
	}

	fileName := fmt.Sprintf("derivative_analytics_%s.csv",
		table.LatestDate().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if err := exporter.WriteExportCSV(w, table); err != nil {
		// Headers are gone; all we can do is log.
		h.logger.ErrorContext(r.Context(), "export stream failed",
			slog.String("error", err.Error()))
	}
}

// GetDates handles GET /api/dates, the distinct stored trading dates
// newest first.
func (h *TableHandler) GetDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.service.Dates(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format("2006-01-02"))
	}
	render.JSON(w, r, map[string]interface{}{
		"dates": out,
		"count": len(out),
	})
}
