// Package services sits between the HTTP handlers and the analysis core.
//
// AnalysisService parses uploaded recordings, applies per-request overrides
// to the configured analysis options and runs the pipeline analyzer.
// HealthService reports liveness, readiness and build information.
package services
