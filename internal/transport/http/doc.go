// Package http implements the HTTP handlers of the analysis service.
//
// Handlers stay thin: they parse the request, call a service and render the
// result. Errors are rendered as RFC 7807 problem documents through
// errors.ErrorHandler.
//
// # Endpoints
//
//	POST /api/v1/analyze   analyze one recording (CSV body or multipart "file")
//	GET  /api/health       liveness summary
//	GET  /api/health/ready readiness, including the output directory
//	GET  /api/health/live  runtime details
//	GET  /api/version      build information
//
// The analyze endpoint accepts the query overrides window (peak window
// order), threshold (minimum peak value) and exclude_zero (skip zeros when
// averaging). It answers with {"source", "rows", "features", "summary"}.
package http
