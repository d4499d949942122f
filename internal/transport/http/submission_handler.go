package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "oipulse/internal/errors"
	"oipulse/internal/infrastructure"
)

// SubmissionHandler handles daily report uploads with RFC 7807 errors.
type SubmissionHandler struct {
	service        SubmissionServiceInterface
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	maxUploadBytes int64
}

// NewSubmissionHandler creates a new submission handler.
func NewSubmissionHandler(service SubmissionServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxUploadBytes int64) *SubmissionHandler {
	return &SubmissionHandler{
		service:        service,
		logger:         logger.With(slog.String("component", "submission_handler")),
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the submission routes.
func (h *SubmissionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/", h.CreateSubmission)
	return r
}

// CreateSubmission handles POST /api/submissions. The daily report comes
// as a multipart upload in the "file" field; CSV and XLSX are accepted.
func (h *SubmissionHandler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	reqID := infrastructure.GetTraceID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "A report file upload is required"))
		return
	}
	defer file.Close()

	// Optional fallback index close, used when the quote lookup fails.
	var spotOverride float64
	if raw := r.FormValue("spot"); raw != "" {
		spotOverride, err = strconv.ParseFloat(raw, 64)
		if err != nil || spotOverride < 0 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("spot", "spot must be a non-negative number"))
			return
		}
	}

	h.logger.InfoContext(r.Context(), "processing submission",
		slog.String("request_id", reqID),
		slog.String("file_name", header.Filename),
		slog.Int64("size", header.Size))

	result, err := h.service.Submit(r.Context(), header.Filename, file, spotOverride)
	if err != nil {
		h.logger.WarnContext(r.Context(), "submission failed",
			slog.String("request_id", reqID),
			slog.String("file_name", header.Filename),
			slog.String("error", err.Error()))
		recordSubmission(outcomeForError(err))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	recordSubmission("accepted")
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

func outcomeForError(err error) string {
	switch {
	case apierrors.IsDateConflict(err):
		return "conflict"
	case apierrors.IsParseError(err):
		return "unreadable"
	default:
		return "error"
	}
}
