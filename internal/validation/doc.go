// Package validation checks the filesystem locations a run depends on:
// the input directory, the output directory and individual recordings.
// Failures are returned as typed errors from internal/errors.
package validation
