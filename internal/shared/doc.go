// Package shared holds helpers used by more than one package and owned by
// none of them. At the moment that is only the testutil subpackage: a slog
// handler that captures records for assertions, and fixture builders for
// frames and matrices shaped like calcium-imaging exports.
package shared
