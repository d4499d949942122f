// Package services implements the business logic layer between HTTP
// handlers and the data packages.
//
// SubmissionService owns the daily workflow: parse the uploaded report,
// reject conflicting dates, fetch the reference index close, merge, run
// the recomputation engine and persist the result. HealthService
// answers liveness and readiness probes, including a storage
// reachability check.
//
// Services take their dependencies through constructors and a
// *slog.Logger, return domain errors that handlers transform into RFC
// 7807 problem responses, and propagate context for cancellation.
package services
