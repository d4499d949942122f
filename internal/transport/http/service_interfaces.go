package http

import (
	"context"
	"io"
	"time"

	"oipulse/internal/services"
	"oipulse/pkg/contracts/domain"
)

// SubmissionServiceInterface is what the handlers need from the
// submission workflow. Defined here so handler tests can stub it.
type SubmissionServiceInterface interface {
	Submit(ctx context.Context, fileName string, r io.Reader, spotOverride float64) (*domain.SubmissionResult, error)
	Table(ctx context.Context) (*domain.DerivedTable, error)
	Dates(ctx context.Context) ([]time.Time, error)
}

// HealthServiceInterface is what the health handler needs.
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
