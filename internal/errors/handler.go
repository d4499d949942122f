package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/render"

	"oipulse/internal/infrastructure"
)

// Problem types following RFC 7807. The upload types are the ones clients
// branch on: a date conflict is recoverable by the user, an unreadable
// file is not.
const (
	TypeValidation = "/errors/validation"
	TypeNotFound   = "/errors/not-found"
	TypeConflict   = "/errors/conflict"
	TypeInternal   = "/errors/internal"
	TypeTimeout    = "/errors/timeout"

	TypeUnreadableUpload = "/errors/upload/unreadable"
	TypeDateConflict     = "/errors/upload/date-conflict"
	TypeLookupFailed     = "/errors/spot-price/unavailable"
	TypeStorageDown      = "/errors/storage/unavailable"
)

// ErrorHandler converts application errors into RFC 7807 responses.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError logs err and writes the matching problem response.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	traceID := infrastructure.GetTraceID(r.Context())

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", traceID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("remote_addr", r.RemoteAddr))

	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", traceID)

	if h.includeStack {
		problem.WithExtension("stack", stackTrace())
	}

	render.Render(w, r, problem)
}

// ErrorToProblem maps any error to problem details. Typed errors map to
// precise statuses; anything unrecognized becomes a generic 500.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	// A date conflict carries the offending dates so the client can show
	// which days to remove from the file.
	var conflict *DateConflictError
	if errors.As(err, &conflict) {
		dates := make([]string, len(conflict.Dates))
		for i, d := range conflict.Dates {
			dates[i] = d.Format("02.01.2006")
		}
		return NewProblemDetails(
			http.StatusConflict,
			TypeDateConflict,
			"Date Already Exists",
			conflict.Error(),
			r.URL.Path,
		).WithExtension("dates", dates)
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrTypeParsing:
			return NewProblemDetails(
				http.StatusBadRequest,
				TypeUnreadableUpload,
				"Unreadable Upload",
				appErr.Message,
				r.URL.Path,
			)
		case ErrTypeLookup:
			return NewProblemDetails(
				http.StatusBadGateway,
				TypeLookupFailed,
				"Spot Price Unavailable",
				appErr.Message,
				r.URL.Path,
			)
		case ErrTypeStorage:
			return NewProblemDetails(
				http.StatusServiceUnavailable,
				TypeStorageDown,
				"Storage Unavailable",
				appErr.Message,
				r.URL.Path,
			)
		case ErrTypeValidation:
			return NewProblemDetails(
				http.StatusBadRequest,
				TypeValidation,
				"Validation Failed",
				appErr.Message,
				r.URL.Path,
			)
		case ErrTypeNotFound:
			return NewProblemDetails(
				http.StatusNotFound,
				TypeNotFound,
				"Resource Not Found",
				appErr.Message,
				r.URL.Path,
			)
		}
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request",
		r.URL.Path,
	)
}

func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.ErrorCode {
	case "VALIDATION_FAILED", "INVALID_REQUEST":
		problemType = TypeValidation
	case "NOT_FOUND", "TABLE_EMPTY":
		problemType = TypeNotFound
	case "CONFLICT":
		problemType = TypeConflict
	case "DATE_CONFLICT":
		problemType = TypeDateConflict
	case "UNREADABLE_UPLOAD":
		problemType = TypeUnreadableUpload
	case "STORAGE_UNAVAILABLE":
		problemType = TypeStorageDown
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}

	return problem
}

// NotFound is the router's fallback handler.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", infrastructure.GetTraceID(r.Context()))

	render.Render(w, r, problem)
}

// MethodNotAllowed is the router's 405 handler.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeInternal,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).WithExtension("trace_id", infrastructure.GetTraceID(r.Context()))

	render.Render(w, r, problem)
}

func stackTrace() string {
	buf := make([]byte, 8<<10)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
